// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package peer manages WebRTC peer connections for a match server: one
// PeerConnection per player, each exposing a reliable-ordered and an
// unreliable-unordered data channel, per spec.md §4.2.
package peer

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v3"

	"github.com/slice4d/control-plane/internal/session"
	"github.com/slice4d/control-plane/internal/wire"
)

// eventBufferSize bounds the channel the webrtc callbacks (each running on
// pion's own goroutines) post into; the session loop is the single drainer,
// per spec.md §9's "one-directional ownership" design note.
const eventBufferSize = 4096

type eventKind int

const (
	eventConnected eventKind = iota
	eventDisconnected
	eventPacket
)

type event struct {
	kind    eventKind
	peer    uuid.UUID
	channel session.Channel
	tag     wire.Tag
	body    []byte
}

// connection bundles one player's PeerConnection and its two data channels.
type connection struct {
	pc         *webrtc.PeerConnection
	reliable   *webrtc.DataChannel
	unreliable *webrtc.DataChannel
}

// Manager implements session.Transport over a set of live WebRTC peer
// connections. It is safe for concurrent use: pion invokes callbacks from
// its own goroutines, while SendReliable/Send/Broadcast are called from the
// session loop's goroutine.
type Manager struct {
	mu         sync.Mutex
	peers      map[uuid.UUID]*connection
	events     chan event
	iceCfg     webrtc.Configuration
	maxPlayers int
	lost       atomic.Bool
}

// NewManager builds a Manager configured with the given ICE servers and
// capped at maxPlayers concurrently connected peers.
func NewManager(iceURLs []string, turnUsername, turnCredential string, maxPlayers int) *Manager {
	cfg := webrtc.Configuration{ICETransportPolicy: webrtc.ICETransportPolicyAll}
	if len(iceURLs) > 0 {
		server := webrtc.ICEServer{URLs: iceURLs}
		if turnUsername != "" {
			server.Username = turnUsername
			server.Credential = turnCredential
		}
		cfg.ICEServers = []webrtc.ICEServer{server}
	}

	return &Manager{
		peers:      make(map[uuid.UUID]*connection),
		events:     make(chan event, eventBufferSize),
		iceCfg:     cfg,
		maxPlayers: maxPlayers,
	}
}

// ErrAtCapacity is returned by CreatePeer when maxPlayers are already
// connected.
var ErrAtCapacity = fmt.Errorf("peer: match server at capacity")

// MarkTransportLost flags the data-plane transport as having closed
// unexpectedly -- e.g. the embedded signaling listener that accepts new
// negotiations has died, so no further peer connections can be established.
// The match server's tick loop checks this alongside the MM control-plane
// link (spec.md §4.3 step 1 / §7's distinct data-plane-loss exit path).
func (m *Manager) MarkTransportLost() {
	m.lost.Store(true)
}

// Lost reports whether MarkTransportLost has been called.
func (m *Manager) Lost() bool {
	return m.lost.Load()
}

// CreatePeer creates a new PeerConnection plus its reliable and unreliable
// data channels for id, and returns the SDP offer to push to the client
// over signaling. MS is always the offerer.
func (m *Manager) CreatePeer(id uuid.UUID) (webrtc.SessionDescription, error) {
	m.mu.Lock()
	atCapacity := m.maxPlayers > 0 && len(m.peers) >= m.maxPlayers
	m.mu.Unlock()

	if atCapacity {
		return webrtc.SessionDescription{}, ErrAtCapacity
	}

	pc, err := webrtc.NewPeerConnection(m.iceCfg)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("peer: new connection: %w", err)
	}

	ordered := true
	reliable, err := pc.CreateDataChannel("reliable", &webrtc.DataChannelInit{Ordered: &ordered})
	if err != nil {
		pc.Close()
		return webrtc.SessionDescription{}, fmt.Errorf("peer: reliable channel: %w", err)
	}

	unordered := false
	maxRetransmits := uint16(0)
	unreliable, err := pc.CreateDataChannel("unreliable", &webrtc.DataChannelInit{
		Ordered:        &unordered,
		MaxRetransmits: &maxRetransmits,
	})
	if err != nil {
		pc.Close()
		return webrtc.SessionDescription{}, fmt.Errorf("peer: unreliable channel: %w", err)
	}

	conn := &connection{pc: pc, reliable: reliable, unreliable: unreliable}

	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		if state == webrtc.ICEConnectionStateDisconnected || state == webrtc.ICEConnectionStateFailed || state == webrtc.ICEConnectionStateClosed {
			m.removePeer(id)
		}
	})

	m.wireDataChannel(id, reliable, session.Reliable)
	m.wireDataChannel(id, unreliable, session.Unreliable)

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		pc.Close()
		return webrtc.SessionDescription{}, fmt.Errorf("peer: create offer: %w", err)
	}

	if err := pc.SetLocalDescription(offer); err != nil {
		pc.Close()
		return webrtc.SessionDescription{}, fmt.Errorf("peer: set local description: %w", err)
	}

	m.mu.Lock()
	m.peers[id] = conn
	m.mu.Unlock()

	return offer, nil
}

func (m *Manager) wireDataChannel(id uuid.UUID, dc *webrtc.DataChannel, channel session.Channel) {
	dc.OnOpen(func() {
		if channel == session.Reliable {
			m.postEvent(event{kind: eventConnected, peer: id})
		}
	})

	dc.OnClose(func() {
		if channel == session.Reliable {
			m.removePeer(id)
		}
	})

	dc.OnError(func(err error) {
		log.Printf("WARNING: peer %s channel %d error: %v", id, channel, err)
	})

	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		tag, body, err := wire.Decode(msg.Data)
		if err != nil {
			log.Printf("WARNING: peer %s: malformed frame, dropping", id)
			return
		}

		m.postEvent(event{kind: eventPacket, peer: id, channel: channel, tag: tag, body: body})
	})
}

func (m *Manager) postEvent(e event) {
	select {
	case m.events <- e:
	default:
		log.Printf("WARNING: peer event buffer full, dropping event for %s", e.peer)
	}
}

// SetAnswer applies the client's SDP answer to the given peer's connection.
func (m *Manager) SetAnswer(id uuid.UUID, answer webrtc.SessionDescription) error {
	conn, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("peer: unknown peer %s", id)
	}

	return conn.pc.SetRemoteDescription(answer)
}

// AddICECandidate applies a trickled remote ICE candidate.
func (m *Manager) AddICECandidate(id uuid.UUID, candidate webrtc.ICECandidateInit) error {
	conn, ok := m.lookup(id)
	if !ok {
		return fmt.Errorf("peer: unknown peer %s", id)
	}

	return conn.pc.AddICECandidate(candidate)
}

// OnLocalICECandidate registers a callback invoked as local ICE candidates
// are discovered for id, so the caller (the signaling handler) can trickle
// them to the client.
func (m *Manager) OnLocalICECandidate(id uuid.UUID, fn func(*webrtc.ICECandidate)) {
	conn, ok := m.lookup(id)
	if !ok {
		return
	}

	conn.pc.OnICECandidate(fn)
}

func (m *Manager) lookup(id uuid.UUID) (*connection, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	conn, ok := m.peers[id]
	return conn, ok
}

func (m *Manager) removePeer(id uuid.UUID) {
	m.mu.Lock()
	conn, ok := m.peers[id]
	if ok {
		delete(m.peers, id)
	}
	m.mu.Unlock()

	if !ok {
		return
	}

	conn.pc.Close()
	m.postEvent(event{kind: eventDisconnected, peer: id})
}

// Poll implements session.Transport: drain every event queued since the
// last call without blocking.
func (m *Manager) Poll() ([]session.Transition, []session.Packet) {
	var transitions []session.Transition
	var packets []session.Packet

	for {
		select {
		case e := <-m.events:
			switch e.kind {
			case eventConnected:
				transitions = append(transitions, session.Transition{PeerID: e.peer, Connected: true})
			case eventDisconnected:
				transitions = append(transitions, session.Transition{PeerID: e.peer, Connected: false})
			case eventPacket:
				packets = append(packets, session.Packet{PeerID: e.peer, Channel: e.channel, Tag: e.tag, Body: e.body})
			}
		default:
			return transitions, packets
		}
	}
}

// SendReliable implements session.Transport.
func (m *Manager) SendReliable(to uuid.UUID, tag wire.Tag, msg any) error {
	return m.Send(to, session.Reliable, tag, msg)
}

// Send implements session.Transport.
func (m *Manager) Send(to uuid.UUID, channel session.Channel, tag wire.Tag, msg any) error {
	conn, ok := m.lookup(to)
	if !ok {
		return fmt.Errorf("peer: unknown peer %s", to)
	}

	frame, err := wire.Encode(tag, msg)
	if err != nil {
		return err
	}

	dc := conn.reliable
	if channel == session.Unreliable {
		dc = conn.unreliable
	}

	if dc.ReadyState() != webrtc.DataChannelStateOpen {
		return nil
	}

	return dc.Send(frame)
}

// Broadcast implements session.Transport.
func (m *Manager) Broadcast(channel session.Channel, tag wire.Tag, msg any) error {
	return m.BroadcastExcept(uuid.Nil, channel, tag, msg)
}

// BroadcastExcept implements session.Transport.
func (m *Manager) BroadcastExcept(except uuid.UUID, channel session.Channel, tag wire.Tag, msg any) error {
	frame, err := wire.Encode(tag, msg)
	if err != nil {
		return err
	}

	m.mu.Lock()
	targets := make([]*connection, 0, len(m.peers))
	for id, conn := range m.peers {
		if id == except {
			continue
		}
		targets = append(targets, conn)
	}
	m.mu.Unlock()

	for _, conn := range targets {
		dc := conn.reliable
		if channel == session.Unreliable {
			dc = conn.unreliable
		}

		if dc.ReadyState() != webrtc.DataChannelStateOpen {
			continue
		}

		dc.Send(frame)
	}

	return nil
}
