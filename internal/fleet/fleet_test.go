// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package fleet

import "testing"

func limits(maxSessions, maxPlayers int) Limits {
	return Limits{
		MaxSessions:          maxSessions,
		MaxPlayersPerSession: maxPlayers,
		MinPort:              40000,
		MaxPort:              40010,
	}
}

// TestReserveFreePortPicksSmallest exercises scenario 2: an empty fleet
// spawns on the smallest port in range.
func TestReserveFreePortPicksSmallest(t *testing.T) {
	r := NewRegistry()

	port, ok := r.ReserveFreePort(limits(2, 4))
	if !ok || port != 40000 {
		t.Fatalf("port = %d, ok = %v, want 40000, true", port, ok)
	}

	r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)

	info, ok := r.TryAssignExisting(limits(2, 4))
	if !ok || info.ServerIndex != 40000 || info.ProvisionalPlayerCount != 2 {
		t.Fatalf("unexpected assignment result: %+v ok=%v", info, ok)
	}
}

// TestNoFreeServersAtCapacity exercises boundary B1: once every registered
// server is full and the fleet is at MaxSessions, no more assignments are
// possible.
func TestNoFreeServersAtCapacity(t *testing.T) {
	r := NewRegistry()
	lim := limits(1, 3)

	port, ok := r.ReserveFreePort(lim)
	if !ok {
		t.Fatal("expected a free port")
	}
	r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)

	// The spawn commit already counts one player; two more assignments fill
	// the one server to capacity.
	if _, ok := r.TryAssignExisting(lim); !ok {
		t.Fatal("expected first assignment to succeed")
	}
	if _, ok := r.TryAssignExisting(lim); !ok {
		t.Fatal("expected second assignment to succeed")
	}

	if _, ok := r.TryAssignExisting(lim); ok {
		t.Fatal("expected server to be full")
	}

	if !r.AtCapacity(lim) {
		t.Fatal("expected fleet to be at capacity")
	}

	if _, ok := r.ReserveFreePort(lim); ok {
		t.Fatal("expected ReserveFreePort to fail at capacity")
	}
}

// TestMaxPlayersPerSessionOneSpawnsEachTime exercises boundary B2: with
// MaxPlayersPerSession = 1, each client triggers a new spawn.
func TestMaxPlayersPerSessionOneSpawnsEachTime(t *testing.T) {
	r := NewRegistry()
	lim := limits(3, 1)

	for i := 0; i < 3; i++ {
		if _, ok := r.TryAssignExisting(lim); ok {
			t.Fatalf("iteration %d: did not expect an existing server with room", i)
		}

		port, ok := r.ReserveFreePort(lim)
		if !ok {
			t.Fatalf("iteration %d: expected a free port", i)
		}
		r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)
	}

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
}

// TestReconcileConvergesProvisionalToReported exercises property P6.
func TestReconcileConvergesProvisionalToReported(t *testing.T) {
	r := NewRegistry()
	lim := limits(2, 4)

	port, _ := r.ReserveFreePort(lim)
	r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)

	r.PlayerConnected(port)
	r.PlayerConnected(port)

	r.Reconcile()

	snap := r.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snap))
	}
	if snap[0].ProvisionalPlayerCount != snap[0].ReportedPlayerCount {
		t.Fatalf("provisional %d != reported %d after reconcile", snap[0].ProvisionalPlayerCount, snap[0].ReportedPlayerCount)
	}
	if snap[0].ReportedPlayerCount != 2 {
		t.Fatalf("reported = %d, want 2", snap[0].ReportedPlayerCount)
	}
}

func TestGameServerShutDownRemovesEntry(t *testing.T) {
	r := NewRegistry()
	lim := limits(2, 4)

	port, _ := r.ReserveFreePort(lim)
	r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)

	r.GameServerShutDown(port)

	if r.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after shutdown", r.Len())
	}
}

func TestPlayerDisconnectedNeverGoesNegative(t *testing.T) {
	r := NewRegistry()
	lim := limits(2, 4)

	port, _ := r.ReserveFreePort(lim)
	r.CommitReservedPort(port, [4]byte{127, 0, 0, 1}, port)

	r.PlayerDisconnected(port)
	r.PlayerDisconnected(port)

	snap := r.Snapshot()
	if snap[0].ReportedPlayerCount != 0 {
		t.Fatalf("ReportedPlayerCount = %d, want 0", snap[0].ReportedPlayerCount)
	}
}
