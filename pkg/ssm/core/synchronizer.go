package core

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/definition"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

// confirmation is what the reader drops into the mailbox for each
// submission outcome.
type confirmation uint8

const (
	accepted confirmation = iota
	rejected
)

// Synchronizer owns a client replica and keeps it converged with the
// group: a reader goroutine applies every update broadcast by the
// relay in packet order, and PublishUpdate runs the optimistic
// submission loop against the relay's packet counter.
type Synchronizer[V update.Updatable[U], U any] struct {
	configuration *types.SynchronizerConfiguration
	log           types.Logger

	mu      sync.Mutex
	replica V

	// Next packet id expected from the relay; advanced only by the
	// reader, right after a successful apply.
	lastPacket atomic.Uint32

	conn net.Conn

	// Serializes publishers: one in-flight submission per connection,
	// so the k-th mailbox event answers the k-th send.
	publishMu sync.Mutex
	mailbox   chan confirmation

	closeOnce sync.Once
	cause     error
}

// NewSynchronizer dials the relay, joins the group and starts the
// reader. The caller provides the empty replica value the history is
// applied onto.
func NewSynchronizer[V update.Updatable[U], U any](configuration *types.SynchronizerConfiguration, replica V) (*Synchronizer[V, U], error) {
	if configuration.Logger == nil {
		configuration.Logger = definition.NewDefaultLogger()
	}
	if configuration.MaxFrameSize == 0 {
		configuration.MaxFrameSize = types.DefaultMaxFrameSize
	}

	conn, err := net.Dial("tcp", configuration.Address)
	if err != nil {
		return nil, types.ConnectionErrorf("dialing relay %s: %v", configuration.Address, err)
	}
	if err := WriteMessage(conn, types.NewJoinGroup(configuration.GroupID), configuration.MaxFrameSize); err != nil {
		conn.Close()
		return nil, types.ConnectionErrorf("joining group %d: %v", configuration.GroupID, err)
	}
	var reply types.ServerMessage
	if err := ReadMessage(conn, &reply, configuration.MaxFrameSize); err != nil {
		conn.Close()
		return nil, types.ConnectionErrorf("awaiting join confirmation: %v", err)
	}
	if reply.Kind != types.ServerCorrect {
		conn.Close()
		return nil, types.ConnectionErrorf("relay refused join of group %d with %s", configuration.GroupID, reply.Kind)
	}

	s := &Synchronizer[V, U]{
		configuration: configuration,
		log:           configuration.Logger,
		replica:       replica,
		conn:          conn,
		mailbox:       make(chan confirmation, 1),
	}
	go s.read()
	return s, nil
}

// read is the reader goroutine: it demultiplexes the server stream
// into replica updates and mailbox confirmations.
//
// A Rejected is gated so the publish loop only observes it after at
// least one Update advanced the packet cursor since the previous
// Rejected; without the gate a rejected publisher can retry the same
// stale packet id faster than the replica catches up and livelock.
func (s *Synchronizer[V, U]) read() {
	canSendRejected := true
	deferRejected := false

	for {
		var message types.ServerMessage
		if err := ReadMessage(s.conn, &message, s.configuration.MaxFrameSize); err != nil {
			s.fail(types.ServerErrorf("reading from relay: %v", err))
			return
		}

		switch message.Kind {
		case types.ServerUpdate:
			u, err := types.ParseUpdate[U](*message.Update)
			if err != nil {
				s.fail(types.InternalErrorf("decoding update %d: %v", message.Update.PacketID, err))
				return
			}
			s.mu.Lock()
			err = s.replica.ApplyUpdate(u)
			s.mu.Unlock()
			if err != nil {
				// The relay order is authoritative; a failing apply
				// means this replica diverged and cannot continue.
				s.fail(types.InternalErrorf("replica corrupted applying packet %d: %v", message.Update.PacketID, err))
				return
			}
			s.lastPacket.Store(message.Update.PacketID + 1)
			if deferRejected {
				deferRejected = false
				s.mailbox <- rejected
			} else {
				canSendRejected = true
			}

		case types.ServerCorrect:
			s.mailbox <- accepted

		case types.ServerError:
			if canSendRejected {
				canSendRejected = false
				s.mailbox <- rejected
			} else {
				deferRejected = true
			}
		}
	}
}

// fail records the terminal cause, tears the connection down and
// closes the mailbox so a blocked publisher unblocks with an error.
func (s *Synchronizer[V, U]) fail(err error) {
	s.closeOnce.Do(func() {
		s.cause = err
		s.conn.Close()
		close(s.mailbox)
		s.log.Errorf("synchronizer for group %d stopped: %v", s.configuration.GroupID, err)
	})
}

// Close shuts the connection down; the reader terminates on the next
// read and any blocked publish returns an internal error.
func (s *Synchronizer[V, U]) Close() {
	s.conn.Close()
}

// PublishUpdate submits one update value and blocks until the relay
// accepts it. On rejection the intervening broadcasts have advanced
// the packet cursor, so the retry re-frames the same update at the
// fresh slot.
func (s *Synchronizer[V, U]) PublishUpdate(u U) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	for {
		packetID := s.lastPacket.Load()
		envelope, err := types.NewUMessage(s.configuration.GroupID, packetID, u)
		if err != nil {
			return types.InternalErrorf("framing update: %v", err)
		}
		if err := WriteMessage(s.conn, types.NewClientUpdate(envelope), s.configuration.MaxFrameSize); err != nil {
			return types.InternalErrorf("sending update: %v", err)
		}
		outcome, ok := <-s.mailbox
		if !ok {
			return types.InternalErrorf("synchronizer stopped: %v", s.cause)
		}
		if outcome == accepted {
			return nil
		}
		s.log.Debugf("packet %d rejected for group %d, retrying", packetID, s.configuration.GroupID)
	}
}

// Lock acquires the replica for reading and returns it. The caller
// must Unlock when done; updates are not applied while held.
func (s *Synchronizer[V, U]) Lock() V {
	s.mu.Lock()
	return s.replica
}

// Unlock releases the replica.
func (s *Synchronizer[V, U]) Unlock() {
	s.mu.Unlock()
}

// Read runs fn with the replica lock held.
func (s *Synchronizer[V, U]) Read(fn func(replica V)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.replica)
}

// GroupID returns the joined group.
func (s *Synchronizer[V, U]) GroupID() uint32 {
	return s.configuration.GroupID
}

// LastPacketNumber returns the next packet id expected from the relay.
func (s *Synchronizer[V, U]) LastPacketNumber() uint32 {
	return s.lastPacket.Load()
}
