// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package matchserver

import (
	"log"
	"os"
	"time"

	"github.com/slice4d/control-plane/internal/msclient"
	"github.com/slice4d/control-plane/internal/peer"
	"github.com/slice4d/control-plane/internal/session"
	"github.com/slice4d/control-plane/pkg/timeutil"
)

// tickInterval is the ~2ms per-tick sleep spec.md §4.3 describes.
const tickInterval = 2 * time.Millisecond

// idleShutdown is IDLE_SHUTDOWN_SECONDS from spec.md §4.3/§5.
const idleShutdown = 180 * time.Second

// MatchServer runs the outer tick loop around one Session for the lifetime
// of the process.
type MatchServer struct {
	serverIndex uint16
	peers       *peer.Manager
	mmClient    *msclient.Client
	sess        *session.Session

	idleTimeout  time.Duration
	lastNonEmpty time.Time
}

// New builds a MatchServer for serverIndex, wiring peers as the transport
// and mmClient as the MM report sink.
func New(serverIndex uint16, peers *peer.Manager, mmClient *msclient.Client) *MatchServer {
	reporter := mmReporter{client: mmClient, serverIndex: serverIndex}
	sess := session.New(peers, reporter, nil)

	return &MatchServer{
		serverIndex:  serverIndex,
		peers:        peers,
		mmClient:     mmClient,
		sess:         sess,
		idleTimeout:  idleShutdown,
		lastNonEmpty: time.Now(),
	}
}

// transportLost implements spec.md §4.3 step 1 / §7's two distinct transport
// loss checks: the MM control-plane link (msclient.Client.Lost) and the
// data-plane transport (peer.Manager.Lost, flipped when the embedded
// signaling listener dies). Split out from Run so it's testable without a
// real os.Exit.
func (m *MatchServer) transportLost() (reason string, lost bool) {
	if m.mmClient.Lost() {
		return "control-plane link", true
	}

	if m.peers.Lost() {
		return "data-plane transport", true
	}

	return "", false
}

// shouldShutdown implements spec.md §4.3 step 2: idle shutdown fires once
// the session has had zero peers for idleTimeout. Split out from Run so the
// idle reaper (scenario 6) can be tested with a synthetic clock instead of
// a real 180-second sleep.
func (m *MatchServer) shouldShutdown(now time.Time) bool {
	if len(m.sess.State().Players) > 0 {
		m.lastNonEmpty = now
		return false
	}

	return now.Sub(m.lastNonEmpty) >= m.idleTimeout
}

// Run reports readiness side effects are the caller's job (signaling.Server
// handles the "ready" line); Run starts the first session and then loops
// forever, per spec.md §4.3's tick cadence, until a terminal condition
// calls os.Exit.
func (m *MatchServer) Run() {
	m.mmClient.ServerStarted(m.serverIndex)
	m.sess.StartNewSession()

	for {
		start := time.Now()

		if reason, lost := m.transportLost(); lost {
			log.Printf("ERROR: [%d] %s closed unexpectedly, exiting", m.serverIndex, reason)
			os.Exit(1)
		}

		if m.shouldShutdown(start) {
			log.Printf("INFO: [%d] idle for %s, shutting down", m.serverIndex, m.idleTimeout)
			m.mmClient.Shutdown(m.serverIndex)
			os.Exit(0)
		}

		m.sess.Tick()

		elapsed := time.Since(start)
		time.Sleep(timeutil.MaxDuration(0, tickInterval-elapsed))
	}
}
