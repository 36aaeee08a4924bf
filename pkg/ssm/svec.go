package ssm

import (
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/core"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

// SVec is a shared replicated vector.
type SVec[V update.Updatable[U], U any] struct {
	syn *core.Synchronizer[*update.UVec[V, U], update.UVecUpdate[V, U]]
}

// NewSVec joins the given group on a local relay.
func NewSVec[V update.Updatable[U], U any](port uint16, groupID uint32) (*SVec[V, U], error) {
	return NewSVecWithConfiguration[V, U](types.DefaultSynchronizerConfiguration(port, groupID))
}

// NewSVecWithConfiguration joins with an explicit configuration.
func NewSVecWithConfiguration[V update.Updatable[U], U any](configuration *types.SynchronizerConfiguration) (*SVec[V, U], error) {
	syn, err := core.NewSynchronizer[*update.UVec[V, U], update.UVecUpdate[V, U]](configuration, update.NewUVec[V, U]())
	if err != nil {
		return nil, err
	}
	return &SVec[V, U]{syn: syn}, nil
}

// Push publishes appending value.
func (s *SVec[V, U]) Push(value V) error {
	return s.syn.PublishUpdate(update.VecPush[V, U](value))
}

// Pop publishes dropping the last element.
func (s *SVec[V, U]) Pop() error {
	return s.syn.PublishUpdate(update.VecPop[V, U]())
}

// Clear publishes emptying the vector.
func (s *SVec[V, U]) Clear() error {
	return s.syn.PublishUpdate(update.VecClear[V, U]())
}

// Insert publishes inserting value at index.
func (s *SVec[V, U]) Insert(index int, value V) error {
	return s.syn.PublishUpdate(update.VecInsert[V, U](index, value))
}

// Remove publishes removing the element at index.
func (s *SVec[V, U]) Remove(index int) error {
	return s.syn.PublishUpdate(update.VecRemove[V, U](index))
}

// Get reads the element at index in the local replica.
func (s *SVec[V, U]) Get(index int) (V, bool) {
	var value V
	var ok bool
	s.syn.Read(func(replica *update.UVec[V, U]) {
		value, ok = replica.Get(index)
	})
	return value, ok
}

// Len reads the size of the local replica.
func (s *SVec[V, U]) Len() int {
	var n int
	s.syn.Read(func(replica *update.UVec[V, U]) {
		n = replica.Len()
	})
	return n
}

// GetLock acquires the replica for reading and returns it. The caller
// must Unlock when done.
func (s *SVec[V, U]) GetLock() *update.UVec[V, U] {
	return s.syn.Lock()
}

// Unlock releases the replica.
func (s *SVec[V, U]) Unlock() {
	s.syn.Unlock()
}

// GetMut addresses the element at index; updates built through the
// returned position are published as root-level vector updates.
func (s *SVec[V, U]) GetMut(index int) update.Nested[U, error] {
	return update.NewNested(func(u U) error {
		return s.syn.PublishUpdate(update.VecNested[V, U](index, u))
	})
}

// Close tears the underlying synchronizer down.
func (s *SVec[V, U]) Close() {
	s.syn.Close()
}
