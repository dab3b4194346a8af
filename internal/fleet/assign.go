// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package fleet

// Limits bundles the capacity knobs the assignment algorithm needs; these
// come straight from the MM configuration file.
type Limits struct {
	MaxSessions          int
	MaxPlayersPerSession int
	MinPort              uint16
	MaxPort              uint16
}

// TryAssignExisting implements step 1-3 of spec.md §4.1's assignment
// algorithm: find the first match server with spare provisional capacity,
// reserve a slot on it, and return it. ok is false if no existing server has
// room, in which case the caller proceeds to the spawn path.
func (r *Registry) TryAssignExisting(limits Limits) (info GameServerInfo, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, candidate := range r.servers {
		if candidate.reserved {
			continue
		}

		if candidate.ProvisionalPlayerCount < limits.MaxPlayersPerSession {
			candidate.ProvisionalPlayerCount++
			return *candidate, true
		}
	}

	return GameServerInfo{}, false
}

// AtCapacity reports whether the fleet has reached MaxSessions, meaning a
// new match server cannot be spawned.
func (r *Registry) AtCapacity(limits Limits) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.servers) >= limits.MaxSessions
}

// ReserveFreePort implements step 4b of the assignment algorithm: find the
// smallest port in [MinPort, MaxPort] absent from the registry, and insert a
// reserved placeholder for it so that no concurrent assignment can pick the
// same port. The placeholder is not eligible for TryAssignExisting and does
// not have a public address yet.
//
// ok is false if the fleet is already at MaxSessions, or every port in the
// range is taken.
func (r *Registry) ReserveFreePort(limits Limits) (port uint16, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.servers) >= limits.MaxSessions {
		return 0, false
	}

	for p := limits.MinPort; ; p++ {
		if _, taken := r.servers[p]; !taken {
			r.servers[p] = &GameServerInfo{
				ServerIndex: p,
				reserved:    true,
			}

			return p, true
		}

		if p == limits.MaxPort {
			break
		}
	}

	return 0, false
}

// CommitReservedPort finishes the spawn path: the child reached readiness,
// so the placeholder becomes a real entry with provisional count 1.
func (r *Registry) CommitReservedPort(port uint16, publicIPv4 [4]byte, publicPort uint16) GameServerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := r.servers[port]
	info.PublicIPv4 = publicIPv4
	info.PublicPort = publicPort
	info.ProvisionalPlayerCount = 1
	info.ReportedPlayerCount = 0
	info.reserved = false

	return *info
}

// ReleaseReservedPort undoes ReserveFreePort after a failed spawn, so the
// port can be picked again.
func (r *Registry) ReleaseReservedPort(port uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.servers, port)
}
