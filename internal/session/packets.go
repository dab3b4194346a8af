// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"encoding/json"
	"log"

	"github.com/slice4d/control-plane/internal/wire"
)

// handlePacket implements spec.md §4.3.9. The session never inspects
// payload; it is gameplay-opaque and only the tag/envelope is interpreted.
// p.Body is the packet's JSON body, already split from its tag by the peer
// manager's framing layer.
func (sess *Session) handlePacket(p Packet) {
	switch p.Tag {
	case wire.TagDirectMessage:
		sess.handleDirectMessage(p)
	case wire.TagBroadcastMessage:
		sess.handleBroadcastMessage(p)
	default:
		log.Printf("WARNING: session: unexpected tag %s from peer %s, dropping", p.Tag, p.PeerID)
	}
}

func (sess *Session) handleDirectMessage(p Packet) {
	var msg wire.DirectMessage
	if err := json.Unmarshal(p.Body, &msg); err != nil {
		log.Printf("WARNING: session: malformed DirectMessage from %s, dropping", p.PeerID)
		return
	}

	if _, ok := sess.state.Players[msg.ToID]; !ok {
		sess.transport.Send(p.PeerID, p.Channel, wire.TagPlayerDisconnected, wire.PlayerDisconnected{PeerID: msg.ToID})
		return
	}

	sess.transport.Send(msg.ToID, p.Channel, wire.TagNetMessageToPlayer, wire.NetMessageToPlayer{
		FromID:  p.PeerID,
		Payload: msg.Payload,
	})
}

func (sess *Session) handleBroadcastMessage(p Packet) {
	var msg wire.BroadcastMessage
	if err := json.Unmarshal(p.Body, &msg); err != nil {
		log.Printf("WARNING: session: malformed BroadcastMessage from %s, dropping", p.PeerID)
		return
	}

	sess.transport.BroadcastExcept(p.PeerID, p.Channel, wire.TagNetMessageBroadcast, wire.NetMessageBroadcast{
		FromID:  p.PeerID,
		Payload: msg.Payload,
	})
}
