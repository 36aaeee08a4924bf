package update

import "encoding/json"

const (
	mapOpInsert = "insert"
	mapOpRemove = "remove"
	mapOpNested = "nested"
)

// UMap is an updatable map. K is constrained to types encoding/json
// accepts as object keys (strings and integer kinds).
type UMap[K comparable, V Updatable[U], U any] struct {
	entries map[K]V
}

// UMapUpdate is one mutation of a UMap.
type UMapUpdate[K comparable, V Updatable[U], U any] struct {
	Op     string `json:"op"`
	Key    K      `json:"key"`
	Value  V      `json:"value,omitempty"`
	Nested *U     `json:"nested,omitempty"`
}

// NewUMap creates an empty map.
func NewUMap[K comparable, V Updatable[U], U any]() *UMap[K, V, U] {
	return &UMap[K, V, U]{entries: make(map[K]V)}
}

// MapInsert builds an update setting key to value, overwriting any
// previous entry.
func MapInsert[K comparable, V Updatable[U], U any](key K, value V) UMapUpdate[K, V, U] {
	return UMapUpdate[K, V, U]{Op: mapOpInsert, Key: key, Value: value}
}

// MapRemove builds an update deleting key. Removing a missing key is a
// no-op so any accepted history replays cleanly.
func MapRemove[K comparable, V Updatable[U], U any](key K) UMapUpdate[K, V, U] {
	return UMapUpdate[K, V, U]{Op: mapOpRemove, Key: key}
}

// MapNested builds an update applying an inner update to the value
// stored under key.
func MapNested[K comparable, V Updatable[U], U any](key K, nested U) UMapUpdate[K, V, U] {
	return UMapUpdate[K, V, U]{Op: mapOpNested, Key: key, Nested: &nested}
}

// ApplyUpdate implements Updatable.
func (m *UMap[K, V, U]) ApplyUpdate(update UMapUpdate[K, V, U]) error {
	switch update.Op {
	case mapOpInsert:
		m.entries[update.Key] = update.Value
		return nil
	case mapOpRemove:
		delete(m.entries, update.Key)
		return nil
	case mapOpNested:
		value, ok := m.entries[update.Key]
		if !ok {
			return ErrMissingKey
		}
		if update.Nested == nil {
			return ErrUnknownOp
		}
		if err := value.ApplyUpdate(*update.Nested); err != nil {
			return err
		}
		m.entries[update.Key] = value
		return nil
	default:
		return ErrUnknownOp
	}
}

// Insert is the pure constructor counterpart of map insertion.
func (m *UMap[K, V, U]) Insert(key K, value V) UMapUpdate[K, V, U] {
	return MapInsert[K, V, U](key, value)
}

// Remove is the pure constructor counterpart of map removal.
func (m *UMap[K, V, U]) Remove(key K) UMapUpdate[K, V, U] {
	return MapRemove[K, V, U](key)
}

// Get reads the value stored under key.
func (m *UMap[K, V, U]) Get(key K) (V, bool) {
	value, ok := m.entries[key]
	return value, ok
}

// Len returns the number of entries.
func (m *UMap[K, V, U]) Len() int {
	return len(m.entries)
}

// Keys returns a snapshot of the stored keys, in no particular order.
func (m *UMap[K, V, U]) Keys() []K {
	keys := make([]K, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys
}

// GetMut addresses the value stored under key for nested updates.
func (m *UMap[K, V, U]) GetMut(key K) Nested[U, UMapUpdate[K, V, U]] {
	return NewNested(func(update U) UMapUpdate[K, V, U] {
		return MapNested[K, V, U](key, update)
	})
}

func (m UMap[K, V, U]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.entries)
}

func (m *UMap[K, V, U]) UnmarshalJSON(data []byte) error {
	m.entries = make(map[K]V)
	return json.Unmarshal(data, &m.entries)
}
