// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package signaling embeds the match server's WebRTC negotiation endpoint:
// a chi-routed WebSocket that exchanges SDP offers/answers and trickles ICE
// candidates between the match server and connecting clients, per
// spec.md §2 ("an embedded signaling endpoint on a local port").
package signaling

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v3"

	"github.com/slice4d/control-plane/internal/peer"
)

// upgrader accepts connections from any origin, matching the permissive,
// single-operator CORS posture SPEC_FULL.md §4.3 carries forward from the
// original's SignalingServer.cors() call.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	// signalingKeepAliveInterval is the ping cadence, carried over from the
	// original's WebRtcSocketBuilder.signaling_keep_alive_interval(3s) per
	// SPEC_FULL.md §4.3/§7's reconnect-budget supplement.
	signalingKeepAliveInterval = 3 * time.Second

	// signalingReconnectAttempts bounds how many missed keep-alive pings this
	// endpoint tolerates before treating the link as dead, mirroring the
	// original's WebRtcSocketBuilder.reconnect_attempts(Some(3)). There is no
	// reconnect to retry here (the client simply re-dials signaling), so the
	// budget is spent as read-deadline slack instead of a retry counter.
	signalingReconnectAttempts = 3

	// signalingPongWait is how long a connection may go without inbound
	// traffic (including pongs) before it's considered dead.
	signalingPongWait = signalingReconnectAttempts * signalingKeepAliveInterval
)

// envelope is the plain JSON signaling message shape, distinct from the
// binary game wire protocol: this socket only ever negotiates connections,
// never carries gameplay traffic.
type envelope struct {
	Type      string                  `json:"type"`
	Offer     *webrtc.SessionDescription `json:"offer,omitempty"`
	Answer    *webrtc.SessionDescription `json:"answer,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// OnReady is invoked exactly once: the first time a connecting client's
// peer obtains an id from this signaling endpoint. The match server's main
// uses this to print the "ready" line the supervisor waits for.
type OnReady func()

// Server wires the chi-routed signaling endpoint to a peer.Manager.
type Server struct {
	manager *peer.Manager
	onReady OnReady
	ready   bool
}

// NewServer builds a signaling Server bound to manager.
func NewServer(manager *peer.Manager, onReady OnReady) *Server {
	return &Server{manager: manager, onReady: onReady}
}

// Router returns the chi router for the signaling endpoint, mountable at
// any path by the caller.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/signaling", s.handleSignaling)
	return r
}

func (s *Server) handleSignaling(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARNING: signaling upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	id := uuid.New()

	offer, err := s.manager.CreatePeer(id)
	if err != nil {
		log.Printf("WARNING: signaling: create peer %s: %v", id, err)
		return
	}

	if !s.ready && s.onReady != nil {
		s.ready = true
		s.onReady()
	}

	ws.SetReadDeadline(time.Now().Add(signalingPongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(signalingPongWait))
		return nil
	})

	stop := make(chan struct{})
	defer close(stop)
	go s.keepAlive(ws, stop)

	s.manager.OnLocalICECandidate(id, func(c *webrtc.ICECandidate) {
		if c == nil {
			return
		}

		init := c.ToJSON()
		s.send(ws, envelope{Type: "candidate", Candidate: &init})
	})

	s.send(ws, envelope{Type: "offer", Offer: &offer})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg envelope
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WARNING: signaling: malformed message from %s, dropping", id)
			continue
		}

		switch msg.Type {
		case "answer":
			if msg.Answer == nil {
				continue
			}
			if err := s.manager.SetAnswer(id, *msg.Answer); err != nil {
				log.Printf("WARNING: signaling: set answer for %s: %v", id, err)
			}
		case "candidate":
			if msg.Candidate == nil {
				continue
			}
			if err := s.manager.AddICECandidate(id, *msg.Candidate); err != nil {
				log.Printf("WARNING: signaling: add candidate for %s: %v", id, err)
			}
		default:
			log.Printf("WARNING: signaling: unexpected message type %q from %s", msg.Type, id)
		}
	}
}

// keepAlive pings ws every signalingKeepAliveInterval until stop is closed
// or a write fails, giving the connection up to signalingReconnectAttempts
// missed pings (signalingPongWait) before handleSignaling's read loop times
// out and returns.
func (s *Server) keepAlive(ws *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(signalingKeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(signalingKeepAliveInterval)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (s *Server) send(ws *websocket.Conn, msg envelope) {
	if err := ws.WriteJSON(msg); err != nil {
		log.Printf("WARNING: signaling: write failed: %v", err)
	}
}
