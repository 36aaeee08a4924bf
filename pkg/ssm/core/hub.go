package core

import (
	"context"
	"net"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
)

// Per-connection state machine of the relay:
//
//	Handshake -> Replaying -> Serving -> Closed
//
// Handshake expects JoinGroup and answers Correct. Replaying streams
// the history snapshot taken when the subscription was registered.
// Serving interleaves client submissions with the subscription feed.
// Any read, parse or protocol failure closes the connection without
// touching the others.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.metrics.connections.Inc()
	defer s.metrics.connections.Dec()
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	maxFrame := s.configuration.MaxFrameSize

	// Handshake: the first message must join a group.
	var hello types.ClientMessage
	if err := ReadMessage(conn, &hello, maxFrame); err != nil {
		s.log.Debugf("connection %s dropped during handshake: %v", remote, err)
		return
	}
	if hello.JoinGroup == nil {
		s.log.Errorf("connection %s violated handshake, first message was not JoinGroup", remote)
		return
	}
	g := s.groupFor(*hello.JoinGroup)
	if err := WriteMessage(conn, types.NewCorrect(), maxFrame); err != nil {
		s.log.Debugf("connection %s dropped confirming handshake: %v", remote, err)
		return
	}
	s.log.Infof("connection %s joined group %d", remote, g.id)

	// Replaying: the snapshot and the subscription are taken under one
	// lock acquisition, so everything accepted after the snapshot is
	// already queued on the subscription in packet order.
	snapshot, sub := g.join()
	defer g.leave(sub)
	for _, message := range snapshot {
		if err := WriteMessage(conn, message, maxFrame); err != nil {
			s.log.Debugf("connection %s dropped during replay: %v", remote, err)
			return
		}
	}

	// Serving: one writer pump drains the subscription, the read loop
	// arbitrates submissions. Replies travel through the subscription
	// channel as well, keeping the per-connection FIFO.
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for message := range sub.events {
			if err := WriteMessage(conn, message, maxFrame); err != nil {
				s.log.Debugf("connection %s write failed: %v", remote, err)
				conn.Close()
				return
			}
		}
		// Subscription closed: dropped on overflow or leaving.
		conn.Close()
	}()

	for {
		var message types.ClientMessage
		if err := ReadMessage(conn, &message, maxFrame); err != nil {
			s.log.Debugf("connection %s closed: %v", remote, err)
			break
		}
		if message.Update == nil {
			s.log.Errorf("connection %s sent a non-update while serving", remote)
			break
		}
		g.submit(*message.Update, sub)
	}

	g.leave(sub)
	<-writerDone
	s.log.Infof("connection %s left group %d", remote, g.id)
}
