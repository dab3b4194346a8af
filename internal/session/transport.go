// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

// Channel identifies which of the two per-peer data channels a packet
// travels on.
type Channel int

const (
	// Reliable is channel 0: ordered, at-least-once delivery.
	Reliable Channel = 0

	// Unreliable is channel 1: best-effort, no ordering guarantee.
	Unreliable Channel = 1
)

// Transition reports a peer joining or leaving since the last Poll.
type Transition struct {
	PeerID    uuid.UUID
	Connected bool
}

// Packet is one decoded ClientToServer message arriving on a given channel.
type Packet struct {
	PeerID  uuid.UUID
	Channel Channel
	Tag     wire.Tag
	Body    []byte
}

// Transport is everything the session loop needs from the peer manager
// (internal/peer). It is abstracted here so the state machine can be
// exercised without a real WebRTC stack, mirroring the teacher's pattern of
// bridging async callbacks into a channel a single owner drains.
type Transport interface {
	// Poll returns every peer transition and packet observed since the
	// previous call. It never blocks.
	Poll() ([]Transition, []Packet)

	// SendReliable delivers one tagged message to a single peer on the
	// reliable channel. Flag/bonus/score/session-control messages must
	// use this, per spec.md §4.2's transport contract.
	SendReliable(to uuid.UUID, tag wire.Tag, msg any) error

	// Send delivers one tagged message to a single peer on the given
	// channel, used to relay a packet back out on the same channel it
	// arrived on.
	Send(to uuid.UUID, channel Channel, tag wire.Tag, msg any) error

	// Broadcast delivers one tagged message to every connected peer on
	// the given channel.
	Broadcast(channel Channel, tag wire.Tag, msg any) error

	// BroadcastExcept is Broadcast, skipping one peer (the sender of a
	// relayed packet).
	BroadcastExcept(except uuid.UUID, channel Channel, tag wire.Tag, msg any) error
}

// Reporter notifies MM of player lifecycle events over the MS→MM link.
type Reporter interface {
	PlayerConnected()
	PlayerDisconnected()
}
