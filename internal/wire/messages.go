// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package wire

import "github.com/google/uuid"

// --- Client <-> MM, on the client port. ---

// RequestToConnect is the only message a client ever sends on the client
// port.
type RequestToConnect struct {
	Version GameVersion `json:"version"`
}

// WrongGameVersion is sent, and the connection closed, when the client's
// version does not match the server's.
type WrongGameVersion struct {
	CurrentVersion GameVersion `json:"current_version"`
}

// GameServerAddress is sent after a successful assignment.
type GameServerAddress struct {
	IPv4 [4]byte `json:"ipv4"`
	Port uint16  `json:"port"`
}

// NoFreeServers is sent when the fleet is full and no session has room.
type NoFreeServers struct{}

// --- MS -> MM, on the server port. ---

// MatchServerMessage carries a server index and is reused, with a different
// tag, for ServerStarted / PlayerConnected / PlayerDisconnected /
// GameServerShutDown.
type MatchServerMessage struct {
	ServerIndex uint16 `json:"server_index"`
}

// --- MS -> player. ---

// Team identifies a side in the capture-the-flag match.
type Team uint8

const (
	TeamRed Team = iota
	TeamBlue
)

// Opposite returns the other team.
func (t Team) Opposite() Team {
	if t == TeamRed {
		return TeamBlue
	}

	return TeamRed
}

func (t Team) String() string {
	if t == TeamRed {
		return "red"
	}

	return "blue"
}

// FlagStatusKind discriminates the FlagStatus tagged union.
type FlagStatusKind uint8

const (
	FlagOnBase FlagStatusKind = iota
	FlagMissed
	FlagCaptured
)

// Vec3 is an opaque world-space coordinate. Its contents are never
// interpreted by the control plane; map geometry and physics are out of
// scope.
type Vec3 struct {
	X, Y, Z float32
}

// FlagStatus is the wire representation of a flag's current state.
type FlagStatus struct {
	Kind     FlagStatusKind `json:"kind"`
	Position Vec3           `json:"position,omitempty"` // valid when Kind == FlagMissed
	Carrier  uuid.UUID      `json:"carrier,omitempty"`  // valid when Kind == FlagCaptured
}

// BonusStatusKind discriminates the BonusStatus tagged union.
type BonusStatusKind uint8

const (
	BonusOnSpot BonusStatusKind = iota
	BonusCollected
)

// NewSessionStarted is broadcast to every player when a new match session
// begins.
type NewSessionStarted struct {
	SessionStartMs uint64 `json:"session_start_ms"`
	YourTeam       Team   `json:"your_team"`
}

// JoinTheMatch is sent to a single newly connected player, describing the
// current state of the match they are joining.
type JoinTheMatch struct {
	NowMs     uint64          `json:"now_ms"`
	YourTeam  Team            `json:"your_team"`
	RedFlag   FlagStatus      `json:"red_flag"`
	BlueFlag  FlagStatus      `json:"blue_flag"`
	Bonus     BonusStatusKind `json:"bonus"`
	RedScore  uint32          `json:"red_score"`
	BlueScore uint32          `json:"blue_score"`
}

// PlayerConnected announces a peer join. Used both MS->MM (keyed by server
// index, via MatchServerMessage) and MS->player (keyed by peer id, this
// type).
type PlayerConnected struct {
	PeerID uuid.UUID `json:"peer_id"`
}

// PlayerDisconnected announces a peer leave, or (per spec §4.3.9) is sent
// back to a sender whose DirectMessage target no longer exists.
type PlayerDisconnected struct {
	PeerID uuid.UUID `json:"peer_id"`
}

// NetMessageToPlayer relays a gameplay-opaque payload from one peer to
// another.
type NetMessageToPlayer struct {
	FromID  uuid.UUID `json:"from_id"`
	Payload []byte    `json:"payload"`
}

// NetMessageBroadcast relays a gameplay-opaque payload from one peer to
// everyone else.
type NetMessageBroadcast struct {
	FromID  uuid.UUID `json:"from_id"`
	Payload []byte    `json:"payload"`
}

// SetFlagStatus is broadcast whenever a flag transitions state.
type SetFlagStatus struct {
	Team   Team       `json:"team"`
	Status FlagStatus `json:"status"`
}

// SetBonusStatus is broadcast whenever the bonus spot transitions state.
type SetBonusStatus struct {
	Index  uint32          `json:"index"`
	Status BonusStatusKind `json:"status"`
}

// --- Player -> MS. ---

// DirectMessage asks the session to relay payload to a single named peer.
type DirectMessage struct {
	ToID    uuid.UUID `json:"to_id"`
	Payload []byte    `json:"payload"`
}

// BroadcastMessage asks the session to relay payload to every other peer.
type BroadcastMessage struct {
	Payload []byte `json:"payload"`
}
