// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package mmserver

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/slice4d/control-plane/internal/wire"
)

// serverUpgrader accepts the persistent link a match server opens at
// startup.
var serverUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServerHandler implements the server port: a persistent, one-directional
// stream of MatchServerMessage reports, dispatched into the fleet registry
// per spec.md §4.2. The connection is closed by the match server itself on
// GameServerShutDown, or drops on error.
func (s *Service) ServerHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := serverUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARNING: server port upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	l := newLink(ws)

	stop := make(chan struct{})
	defer close(stop)
	go l.keepAlive(stop)

	log.Printf("INFO: server port: [%s] connected", l.uid)

	for {
		frame, err := l.readFrame()
		if err != nil {
			log.Printf("INFO: server port: [%s] disconnected: %v", l.uid, err)
			return
		}

		var report wire.MatchServerMessage
		tag, err := wire.Unmarshal(frame, &report)
		if err != nil {
			log.Printf("WARNING: server port: [%s] malformed report, dropping", l.uid)
			continue
		}

		switch tag {
		case wire.TagServerStarted:
			s.Registry.ServerStarted(report.ServerIndex)
		case wire.TagPlayerConnectedMM:
			s.Registry.PlayerConnected(report.ServerIndex)
		case wire.TagPlayerDisconnectedMM:
			s.Registry.PlayerDisconnected(report.ServerIndex)
		case wire.TagGameServerShutDown:
			s.Registry.GameServerShutDown(report.ServerIndex)
			return
		default:
			log.Printf("WARNING: server port: [%s] unexpected tag %s, dropping", l.uid, tag)
		}
	}
}
