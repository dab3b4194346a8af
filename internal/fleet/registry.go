// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package fleet implements the matchmaking service's authoritative registry
// of live match servers: admission bookkeeping, port reservation, and the
// periodic reconciliation of provisional against reported player counts.
//
// The registry is guarded by a single mutex, as specified, rather than the
// channel-actor style the teacher repo uses for its matchmaking queue
// (internal/matchmaking.Queue) -- the assignment algorithm must reserve a
// port and release the lock *before* the slow child-process handshake runs,
// which a single critical section cannot express as cleanly as it can with
// explicit lock/unlock calls around the in-memory mutation only.
package fleet

import (
	"errors"
	"sync"
)

// ErrNoFreeServers is returned by Assign when the fleet is at capacity and
// no existing session has room.
var ErrNoFreeServers = errors.New("fleet: no free servers")

// GameServerInfo is the registry's record for one live match server.
type GameServerInfo struct {
	// ServerIndex is the signaling port the match server listens on;
	// stable for the server's lifetime and used as the registry key.
	ServerIndex uint16

	// PublicAddress is what MM hands back to admitted clients.
	PublicIPv4 [4]byte
	PublicPort uint16

	// ReportedPlayerCount is authoritative, refreshed by MS heartbeats.
	ReportedPlayerCount int

	// ProvisionalPlayerCount is incremented on admission and periodically
	// reconciled to ReportedPlayerCount.
	ProvisionalPlayerCount int

	// reserved marks a slot whose child process has not yet completed its
	// readiness handshake; such entries are not eligible for
	// TryAssignExisting and are skipped by Reconcile, but they do count
	// against MaxSessions because they occupy a registry slot.
	reserved bool
}

// Registry is MM's fleet-wide state: the map of serverIndex -> GameServerInfo.
type Registry struct {
	mu      sync.Mutex
	servers map[uint16]*GameServerInfo
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[uint16]*GameServerInfo),
	}
}

// Snapshot returns a copy of every registry entry, for diagnostics and
// tests. Order is unspecified, matching spec.md's "ordered iteration not
// required".
func (r *Registry) Snapshot() []GameServerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]GameServerInfo, 0, len(r.servers))
	for _, info := range r.servers {
		out = append(out, *info)
	}

	return out
}

// Len returns the number of entries currently in the registry, including
// reserved-but-not-yet-ready placeholders.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.servers)
}
