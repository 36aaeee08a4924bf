// Package ssm provides shared replicated data structures: map, vector
// and stack replicas kept converged across clients by a central relay
// that totally orders their updates.
//
// Mutations never touch the local replica directly. A facade call
// builds a serializable update value, publishes it through the relay
// and returns once the relay accepted it; the replica itself only
// changes when the accepted update is broadcast back and applied by
// the reader, the same way every other replica in the group applies it.
package ssm
