package core

import (
	"sync"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
)

// group is the relay-side state of one replication domain: the packet
// counter, the authoritative history and the subscriber fan-out. The
// mutex serializes arbitration, so history index i always carries
// packet id i and every subscriber observes the same prefix.
type group struct {
	id      uint32
	log     types.Logger
	metrics *serverMetrics
	buffer  int

	mu      sync.Mutex
	counter uint32
	history []types.ServerMessage
	subs    map[uint64]*subscription
	nextSub uint64
}

// subscription is one connection's view of a group. The channel
// carries both group broadcasts and the connection's own
// Correct/Error replies, so the per-connection FIFO of the protocol
// falls out of channel ordering.
type subscription struct {
	id     uint64
	events chan types.ServerMessage
}

func newGroup(id uint32, buffer int, log types.Logger, metrics *serverMetrics) *group {
	return &group{
		id:      id,
		log:     log,
		metrics: metrics,
		buffer:  buffer,
		subs:    make(map[uint64]*subscription),
	}
}

// join atomically snapshots the history and registers a subscriber.
// Updates accepted after the snapshot land in the subscription channel,
// so replay followed by the live feed forms a gapless ordered stream.
func (g *group) join() ([]types.ServerMessage, *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapshot := make([]types.ServerMessage, len(g.history))
	copy(snapshot, g.history)

	sub := &subscription{
		id:     g.nextSub,
		events: make(chan types.ServerMessage, g.buffer),
	}
	g.nextSub++
	g.subs[sub.id] = sub
	return snapshot, sub
}

// leave drops the subscription and closes its channel, terminating the
// connection's writer pump.
func (g *group) leave(sub *subscription) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drop(sub)
}

// submit arbitrates one client submission. The update is accepted if
// and only if its packet id equals the group counter; acceptance
// appends to the history, broadcasts to every subscriber and confirms
// the submitter, all inside the critical section.
func (g *group) submit(message types.UMessage, from *subscription) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if message.PacketID != g.counter {
		g.metrics.rejectedUpdates.Inc()
		g.log.Debugf("group %d rejected packet %d, expected %d", g.id, message.PacketID, g.counter)
		g.push(from, types.NewError())
		return false
	}

	g.counter++
	broadcast := types.NewServerUpdate(message)
	g.history = append(g.history, broadcast)
	for _, sub := range g.subs {
		g.push(sub, broadcast)
	}
	g.metrics.acceptedUpdates.Inc()
	g.push(from, types.NewCorrect())
	return true
}

// push delivers without blocking the critical section. A subscriber
// whose buffer is full is dropped; its connection terminates when the
// writer pump sees the closed channel.
func (g *group) push(sub *subscription, message types.ServerMessage) {
	if _, ok := g.subs[sub.id]; !ok {
		return
	}
	select {
	case sub.events <- message:
	default:
		g.log.Errorf("subscriber %d of group %d overflowed its buffer, dropping it", sub.id, g.id)
		g.drop(sub)
	}
}

func (g *group) drop(sub *subscription) {
	if _, ok := g.subs[sub.id]; !ok {
		return
	}
	delete(g.subs, sub.id)
	close(sub.events)
}

// snapshot returns a copy of the accepted history, for tests and
// introspection.
func (g *group) snapshot() []types.ServerMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	history := make([]types.ServerMessage, len(g.history))
	copy(history, g.history)
	return history
}

func (g *group) packetCounter() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}
