package test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/core"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/types"
	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

// IntMap is the plain string -> int shared map used across scenarios.
type IntMap = ssm.SMap[string, update.Scalar[int], update.ScalarUpdate]

// InnerMap is the int -> int map nested inside NestedMap scenarios.
type InnerMap = update.UMap[int, update.Scalar[int], update.ScalarUpdate]

// InnerMapUpdate is the update type of InnerMap.
type InnerMapUpdate = update.UMapUpdate[int, update.Scalar[int], update.ScalarUpdate]

// NestedMap is a shared map whose values are maps themselves.
type NestedMap = ssm.SMap[string, *InnerMap, InnerMapUpdate]

// Relay runs an in-process relay for one test.
type Relay struct {
	T      *testing.T
	Server *core.Server
	cancel context.CancelFunc
	done   chan error
}

// CreateRelay starts a relay on the given port and waits until it
// accepts connections.
func CreateRelay(port uint16, t *testing.T) *Relay {
	t.Helper()
	server, err := core.NewServer(types.DefaultServerConfiguration(port))
	if err != nil {
		t.Fatalf("failed creating relay on port %d. %v", port, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("tcp", server.Address())
		if err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("relay on port %d never became reachable. %v", port, err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	return &Relay{T: t, Server: server, cancel: cancel, done: done}
}

// Off shuts the relay down and waits for the drain.
func (r *Relay) Off() {
	r.cancel()
	select {
	case err := <-r.done:
		if err != nil {
			r.T.Errorf("relay run failed. %v", err)
		}
	case <-time.After(10 * time.Second):
		r.T.Error("relay did not shut down")
	}
}

// CreateIntMap joins an IntMap client to the given relay group.
func CreateIntMap(port uint16, group uint32, t *testing.T) *IntMap {
	t.Helper()
	client, err := ssm.NewSMap[string, update.Scalar[int], update.ScalarUpdate](port, group)
	if err != nil {
		t.Fatalf("failed joining group %d on port %d. %v", group, port, err)
	}
	return client
}

// CreateNestedMap joins a NestedMap client to the given relay group.
func CreateNestedMap(port uint16, group uint32, t *testing.T) *NestedMap {
	t.Helper()
	client, err := ssm.NewSMap[string, *InnerMap, InnerMapUpdate](port, group)
	if err != nil {
		t.Fatalf("failed joining group %d on port %d. %v", group, port, err)
	}
	return client
}

// MustInsert publishes and fails the test on error.
func MustInsert(client *IntMap, key string, value int, t *testing.T) {
	t.Helper()
	if err := client.Insert(key, update.Of(value)); err != nil {
		t.Fatalf("failed inserting %s=%d. %v", key, value, err)
	}
}

// SnapshotInts copies the replica into a plain map.
func SnapshotInts(client *IntMap) map[string]int {
	replica := client.GetLock()
	defer client.Unlock()
	snapshot := make(map[string]int, replica.Len())
	for _, key := range replica.Keys() {
		value, _ := replica.Get(key)
		snapshot[key] = value.Value
	}
	return snapshot
}

// Eventually polls the condition until it holds or the timeout fires.
func Eventually(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return condition()
}

// DoesReplicaMatchTo fails unless the client converges to the
// expected contents.
func DoesReplicaMatchTo(client *IntMap, expected map[string]int, t *testing.T) {
	t.Helper()
	matches := func() bool {
		snapshot := SnapshotInts(client)
		if len(snapshot) != len(expected) {
			return false
		}
		for key, value := range expected {
			if snapshot[key] != value {
				return false
			}
		}
		return true
	}
	if !Eventually(matches, 5*time.Second) {
		t.Errorf("replica never converged. expected %v, got %v", expected, SnapshotInts(client))
	}
}

// WaitThisOrTimeout runs the callback and reports whether it finished
// within the duration.
func WaitThisOrTimeout(cb func(), duration time.Duration) bool {
	done := make(chan bool)
	go func() {
		cb()
		done <- true
	}()
	select {
	case <-done:
		return true
	case <-time.After(duration):
		return false
	}
}
