package types

import "fmt"

const (
	// DefaultBroadcastBuffer is how many server messages can queue for
	// a single subscriber before the relay gives up on it. Sized so a
	// reader only falls behind under pathological stalls.
	DefaultBroadcastBuffer = 1024

	// DefaultMaxFrameSize bounds a single wire frame.
	DefaultMaxFrameSize = 8 << 20
)

// ServerConfiguration carries everything needed to bootstrap a relay.
type ServerConfiguration struct {
	// Address the relay listens on, host:port.
	Address string

	// BroadcastBuffer is the per-subscriber queue depth.
	BroadcastBuffer int

	// MaxFrameSize bounds incoming and outgoing frames.
	MaxFrameSize uint32

	// Logger used by the relay. When nil a default one is created.
	Logger Logger
}

// DefaultServerConfiguration returns a local relay configuration for
// the given port.
func DefaultServerConfiguration(port uint16) *ServerConfiguration {
	return &ServerConfiguration{
		Address:         fmt.Sprintf("127.0.0.1:%d", port),
		BroadcastBuffer: DefaultBroadcastBuffer,
		MaxFrameSize:    DefaultMaxFrameSize,
	}
}

// SynchronizerConfiguration carries everything needed to join a group.
type SynchronizerConfiguration struct {
	// Address of the relay, host:port.
	Address string

	// GroupID of the replication domain to join.
	GroupID uint32

	// MaxFrameSize bounds incoming and outgoing frames.
	MaxFrameSize uint32

	// Logger used by the synchronizer. When nil a default one is
	// created.
	Logger Logger
}

// DefaultSynchronizerConfiguration returns a configuration pointing at
// a local relay.
func DefaultSynchronizerConfiguration(port uint16, groupID uint32) *SynchronizerConfiguration {
	return &SynchronizerConfiguration{
		Address:      fmt.Sprintf("127.0.0.1:%d", port),
		GroupID:      groupID,
		MaxFrameSize: DefaultMaxFrameSize,
	}
}
