// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package mmserver

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/slice4d/control-plane/internal/fleet"
	"github.com/slice4d/control-plane/internal/wire"
)

// clientUpgrader accepts connections from any origin, matching the
// teacher's upgrader posture (see SPEC_FULL.md §4.1 ambient stack notes).
var clientUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientHandler implements the client port: a single RequestToConnect is
// read, answered with WrongGameVersion, GameServerAddress or NoFreeServers,
// and the connection is closed either way.
func (s *Service) ClientHandler(w http.ResponseWriter, r *http.Request) {
	ws, err := clientUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARNING: client port upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	l := newLink(ws)

	frame, err := l.readFrame()
	if err != nil {
		log.Printf("INFO: client port: no RequestToConnect received: %v", err)
		return
	}

	var req wire.RequestToConnect
	tag, err := wire.Unmarshal(frame, &req)
	if err != nil || tag != wire.TagRequestToConnect {
		log.Printf("WARNING: client port: malformed RequestToConnect, dropping")
		return
	}

	if !req.Version.Equal(s.Config.CurrentGameVersion) {
		s.respond(l, wire.TagWrongGameVersion, wire.WrongGameVersion{CurrentVersion: s.Config.CurrentGameVersion})
		return
	}

	address, err := s.Assign()
	if err != nil {
		if errors.Is(err, fleet.ErrNoFreeServers) {
			s.respond(l, wire.TagNoFreeServers, wire.NoFreeServers{})
			return
		}

		log.Printf("WARNING: client port: assignment failed: %v", err)
		s.respond(l, wire.TagNoFreeServers, wire.NoFreeServers{})
		return
	}

	s.respond(l, wire.TagGameServerAddress, address)
}

func (s *Service) respond(l *link, tag wire.Tag, msg any) {
	frame, err := wire.Encode(tag, msg)
	if err != nil {
		log.Printf("WARNING: client port: encode %s: %v", tag, err)
		return
	}

	if err := l.writeFrame(frame); err != nil {
		log.Printf("INFO: client port: write %s failed: %v", tag, err)
	}
}
