// Package update implements the updatable kernel: container types whose
// replicas mutate exclusively through serializable update values, so a
// relay can order the updates and every replica converges by applying
// them in the same sequence.
package update

import (
	"encoding/json"
	"errors"
)

var (
	// ErrUnknownOp is returned when an update carries an operation the
	// container does not understand.
	ErrUnknownOp = errors.New("unknown operation applied to updatable")

	// ErrMissingKey is returned by a nested update addressing a key
	// that is not present.
	ErrMissingKey = errors.New("nested update on missing key")

	// ErrIndexOutOfRange is returned by positional updates past the
	// container bounds.
	ErrIndexOutOfRange = errors.New("update index out of range")

	// ErrEmptyContainer is returned by a nested update addressing the
	// top of an empty stack.
	ErrEmptyContainer = errors.New("nested update on empty container")
)

// Updatable is the capability shared by every replicated value: a
// value type paired with an update type and a total apply function.
// Apply errors mean the update disagrees with the replica state, which
// under relay total order implies replica divergence; callers treat
// them as fatal.
type Updatable[U any] interface {
	ApplyUpdate(update U) error
}

// ScalarUpdate is the zero-information update of leaf values. Applying
// it never changes anything; it exists so containers of plain values
// compose under the same capability.
type ScalarUpdate struct{}

// Scalar wraps a plain value into an Updatable leaf. It serializes
// transparently as the wrapped value.
type Scalar[T any] struct {
	Value T
}

// Of wraps a plain value.
func Of[T any](value T) Scalar[T] {
	return Scalar[T]{Value: value}
}

// ApplyUpdate implements Updatable as an idempotent no-op.
func (s Scalar[T]) ApplyUpdate(ScalarUpdate) error {
	return nil
}

func (s Scalar[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value)
}

func (s *Scalar[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &s.Value)
}
