// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package fleet

import (
	"log"
	"time"
)

// ServerStarted logs a started match server. The registry entry already
// exists from the spawn path, so there is nothing to mutate.
func (r *Registry) ServerStarted(serverIndex uint16) {
	log.Printf("INFO: [%d] server has started", serverIndex)
}

// PlayerConnected handles a MatchServerToMM PlayerConnected report. If
// serverIndex is unknown to the registry, this is a semantic-violation
// error: log and drop.
func (r *Registry) PlayerConnected(serverIndex uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.servers[serverIndex]
	if !ok {
		log.Printf("WARNING: PlayerConnected report for unknown server [%d]", serverIndex)
		return
	}

	info.ReportedPlayerCount++
}

// PlayerDisconnected handles a MatchServerToMM PlayerDisconnected report.
func (r *Registry) PlayerDisconnected(serverIndex uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, ok := r.servers[serverIndex]
	if !ok {
		log.Printf("WARNING: PlayerDisconnected report for unknown server [%d]", serverIndex)
		return
	}

	if info.ReportedPlayerCount > 0 {
		info.ReportedPlayerCount--
	}
}

// GameServerShutDown removes the registry entry for a match server that has
// reported its own shutdown.
func (r *Registry) GameServerShutDown(serverIndex uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[serverIndex]; !ok {
		log.Printf("WARNING: GameServerShutDown report for unknown server [%d]", serverIndex)
		return
	}

	delete(r.servers, serverIndex)
	log.Printf("INFO: [%d] server is shut down", serverIndex)
}

// Reconcile sets ProvisionalPlayerCount = ReportedPlayerCount for every
// entry, correcting drift from admissions that never reach the match
// server. This realizes property P6.
func (r *Registry) Reconcile() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, info := range r.servers {
		if info.reserved {
			continue
		}

		info.ProvisionalPlayerCount = info.ReportedPlayerCount
	}
}

// RunReconciliationLoop runs Reconcile once per second until ctx-like stop
// channel is closed. It is started as its own goroutine from the
// matchmaking server's main, mirroring the teacher's pattern of a single
// owning loop per concern (internal/matchmaking.Queue.MainLoop).
func (r *Registry) RunReconciliationLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Reconcile()
		case <-stop:
			return
		}
	}
}
