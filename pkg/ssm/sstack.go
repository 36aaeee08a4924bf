package ssm

import (
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/core"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

// SStack is a shared replicated stack.
type SStack[V update.Updatable[U], U any] struct {
	syn *core.Synchronizer[*update.UStack[V, U], update.UStackUpdate[V, U]]
}

// NewSStack joins the given group on a local relay.
func NewSStack[V update.Updatable[U], U any](port uint16, groupID uint32) (*SStack[V, U], error) {
	return NewSStackWithConfiguration[V, U](types.DefaultSynchronizerConfiguration(port, groupID))
}

// NewSStackWithConfiguration joins with an explicit configuration.
func NewSStackWithConfiguration[V update.Updatable[U], U any](configuration *types.SynchronizerConfiguration) (*SStack[V, U], error) {
	syn, err := core.NewSynchronizer[*update.UStack[V, U], update.UStackUpdate[V, U]](configuration, update.NewUStack[V, U]())
	if err != nil {
		return nil, err
	}
	return &SStack[V, U]{syn: syn}, nil
}

// Push publishes pushing value.
func (s *SStack[V, U]) Push(value V) error {
	return s.syn.PublishUpdate(update.StackPush[V, U](value))
}

// Pop publishes dropping the top element.
func (s *SStack[V, U]) Pop() error {
	return s.syn.PublishUpdate(update.StackPop[V, U]())
}

// Top reads the top element of the local replica.
func (s *SStack[V, U]) Top() (V, bool) {
	var value V
	var ok bool
	s.syn.Read(func(replica *update.UStack[V, U]) {
		value, ok = replica.Top()
	})
	return value, ok
}

// Len reads the size of the local replica.
func (s *SStack[V, U]) Len() int {
	var n int
	s.syn.Read(func(replica *update.UStack[V, U]) {
		n = replica.Len()
	})
	return n
}

// GetLock acquires the replica for reading and returns it. The caller
// must Unlock when done.
func (s *SStack[V, U]) GetLock() *update.UStack[V, U] {
	return s.syn.Lock()
}

// Unlock releases the replica.
func (s *SStack[V, U]) Unlock() {
	s.syn.Unlock()
}

// TopMut addresses the top element; updates built through the returned
// position are published as root-level stack updates.
func (s *SStack[V, U]) TopMut() update.Nested[U, error] {
	return update.NewNested(func(u U) error {
		return s.syn.PublishUpdate(update.StackNested[V, U](u))
	})
}

// Close tears the underlying synchronizer down.
func (s *SStack[V, U]) Close() {
	s.syn.Close()
}
