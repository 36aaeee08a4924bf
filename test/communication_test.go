package test

import (
	"testing"
	"time"

	"github.com/BCzarkowski/shared-state-machine/pkg/ssm/update"
)

func TestCommunication_TwoClients(t *testing.T) {
	relay := CreateRelay(7870, t)
	defer relay.Off()

	map1 := CreateIntMap(7870, 1, t)
	defer map1.Close()
	map2 := CreateIntMap(7870, 1, t)
	defer map2.Close()

	MustInsert(map1, "foo", 1, t)
	MustInsert(map1, "bar", 2, t)
	MustInsert(map1, "dog", 3, t)

	DoesReplicaMatchTo(map2, map[string]int{"foo": 1, "bar": 2, "dog": 3}, t)

	MustInsert(map2, "foo", 9, t)
	MustInsert(map2, "bar", 8, t)
	MustInsert(map2, "dog", 7, t)

	DoesReplicaMatchTo(map1, map[string]int{"foo": 9, "bar": 8, "dog": 7}, t)
}

func TestCommunication_GroupIsolation(t *testing.T) {
	relay := CreateRelay(7872, t)
	defer relay.Off()

	map1 := CreateIntMap(7872, 1, t)
	defer map1.Close()
	map2 := CreateIntMap(7872, 1, t)
	defer map2.Close()
	map3 := CreateIntMap(7872, 2, t)
	defer map3.Close()
	map4 := CreateIntMap(7872, 2, t)
	defer map4.Close()

	MustInsert(map1, "foo", 1, t)
	MustInsert(map1, "bar", 2, t)
	MustInsert(map1, "dog", 3, t)

	MustInsert(map3, "foo", 4, t)
	MustInsert(map3, "bar", 5, t)
	MustInsert(map3, "dog", 6, t)

	DoesReplicaMatchTo(map2, map[string]int{"foo": 1, "bar": 2, "dog": 3}, t)
	DoesReplicaMatchTo(map4, map[string]int{"foo": 4, "bar": 5, "dog": 6}, t)

	// Cross-group reads never observe the other group's values.
	if snapshot := SnapshotInts(map2); snapshot["foo"] == 4 {
		t.Errorf("group 1 observed group 2 state: %v", snapshot)
	}
	if snapshot := SnapshotInts(map4); snapshot["foo"] == 1 {
		t.Errorf("group 2 observed group 1 state: %v", snapshot)
	}
	if relay.Server.PacketCounter(1) != 3 || relay.Server.PacketCounter(2) != 3 {
		t.Errorf("expected 3 accepted updates per group, got %d and %d",
			relay.Server.PacketCounter(1), relay.Server.PacketCounter(2))
	}
}

func TestCommunication_NestedStructure(t *testing.T) {
	relay := CreateRelay(7871, t)
	defer relay.Off()

	map1 := CreateNestedMap(7871, 1, t)
	defer map1.Close()
	map2 := CreateNestedMap(7871, 1, t)
	defer map2.Close()

	if err := map1.Insert("foo", update.NewUMap[int, update.Scalar[int], update.ScalarUpdate]()); err != nil {
		t.Fatalf("failed inserting the inner map. %v", err)
	}
	if err := update.MapAt(map1.GetMut("foo")).Insert(1, update.Of(5)); err != nil {
		t.Fatalf("failed publishing the nested insert. %v", err)
	}

	nestedValue := func(client *NestedMap, key string, inner int) (int, bool) {
		replica := client.GetLock()
		defer client.Unlock()
		innerMap, ok := replica.Get(key)
		if !ok {
			return 0, false
		}
		value, ok := innerMap.Get(inner)
		return value.Value, ok
	}

	if !Eventually(func() bool {
		value, ok := nestedValue(map2, "foo", 1)
		return ok && value == 5
	}, 5*time.Second) {
		value, ok := nestedValue(map2, "foo", 1)
		t.Fatalf("nested insert never converged, got %d (%v)", value, ok)
	}

	if err := update.MapAt(map2.GetMut("foo")).Insert(1, update.Of(10)); err != nil {
		t.Fatalf("failed publishing the overwrite. %v", err)
	}
	if !Eventually(func() bool {
		value, ok := nestedValue(map1, "foo", 1)
		return ok && value == 10
	}, 5*time.Second) {
		value, ok := nestedValue(map1, "foo", 1)
		t.Fatalf("nested overwrite never converged, got %d (%v)", value, ok)
	}
}

func TestCommunication_PacketCounterIsMonotonic(t *testing.T) {
	relay := CreateRelay(7874, t)
	defer relay.Off()

	map1 := CreateIntMap(7874, 1, t)
	defer map1.Close()
	map2 := CreateIntMap(7874, 1, t)
	defer map2.Close()

	last := uint32(0)
	for i := 0; i < 10; i++ {
		MustInsert(map1, "key", i, t)
		DoesReplicaMatchTo(map2, map[string]int{"key": i}, t)
		counter := relay.Server.PacketCounter(1)
		if counter < last {
			t.Fatalf("packet counter went backwards: %d after %d", counter, last)
		}
		last = counter
	}
	if last != 10 {
		t.Errorf("expected 10 accepted updates, got %d", last)
	}
}
