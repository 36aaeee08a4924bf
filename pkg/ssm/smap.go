package ssm

import (
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/core"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

// SMap is a shared replicated map. Mutators publish updates through
// the relay; readers see the local replica.
type SMap[K comparable, V update.Updatable[U], U any] struct {
	syn *core.Synchronizer[*update.UMap[K, V, U], update.UMapUpdate[K, V, U]]
}

// NewSMap joins the given group on a local relay.
func NewSMap[K comparable, V update.Updatable[U], U any](port uint16, groupID uint32) (*SMap[K, V, U], error) {
	return NewSMapWithConfiguration[K, V, U](types.DefaultSynchronizerConfiguration(port, groupID))
}

// NewSMapWithConfiguration joins with an explicit configuration.
func NewSMapWithConfiguration[K comparable, V update.Updatable[U], U any](configuration *types.SynchronizerConfiguration) (*SMap[K, V, U], error) {
	syn, err := core.NewSynchronizer[*update.UMap[K, V, U], update.UMapUpdate[K, V, U]](configuration, update.NewUMap[K, V, U]())
	if err != nil {
		return nil, err
	}
	return &SMap[K, V, U]{syn: syn}, nil
}

// Insert publishes key -> value, overwriting any previous entry.
func (s *SMap[K, V, U]) Insert(key K, value V) error {
	return s.syn.PublishUpdate(update.MapInsert[K, V, U](key, value))
}

// Remove publishes the removal of key.
func (s *SMap[K, V, U]) Remove(key K) error {
	return s.syn.PublishUpdate(update.MapRemove[K, V, U](key))
}

// Get reads the value stored under key in the local replica.
func (s *SMap[K, V, U]) Get(key K) (V, bool) {
	var value V
	var ok bool
	s.syn.Read(func(replica *update.UMap[K, V, U]) {
		value, ok = replica.Get(key)
	})
	return value, ok
}

// Len reads the size of the local replica.
func (s *SMap[K, V, U]) Len() int {
	var n int
	s.syn.Read(func(replica *update.UMap[K, V, U]) {
		n = replica.Len()
	})
	return n
}

// GetLock acquires the replica for reading and returns it. The caller
// must Unlock when done.
func (s *SMap[K, V, U]) GetLock() *update.UMap[K, V, U] {
	return s.syn.Lock()
}

// Unlock releases the replica.
func (s *SMap[K, V, U]) Unlock() {
	s.syn.Unlock()
}

// GetMut addresses the value stored under key; updates built through
// the returned position are published as root-level map updates.
func (s *SMap[K, V, U]) GetMut(key K) update.Nested[U, error] {
	return update.NewNested(func(u U) error {
		return s.syn.PublishUpdate(update.MapNested[K, V, U](key, u))
	})
}

// Close tears the underlying synchronizer down.
func (s *SMap[K, V, U]) Close() {
	s.syn.Close()
}
