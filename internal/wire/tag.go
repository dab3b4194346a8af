// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package wire

// Tag identifies the payload carried by a framed message. Tags are shared
// across all three sockets in the control plane (client<->MM, MS<->MM,
// player<->MS); which tags are legal on a given socket is a matter of
// protocol convention, not of the wire format itself.
type Tag uint8

const (
	// Client -> MM, on the client port.
	TagRequestToConnect Tag = iota

	// MM -> client, on the client port.
	TagWrongGameVersion
	TagGameServerAddress
	TagNoFreeServers

	// MS -> MM, on the server port.
	TagServerStarted
	TagPlayerConnectedMM
	TagPlayerDisconnectedMM
	TagGameServerShutDown

	// MS -> player.
	TagNewSessionStarted
	TagJoinTheMatch
	TagPlayerConnected
	TagPlayerDisconnected
	TagNetMessageToPlayer
	TagNetMessageBroadcast
	TagSetFlagStatus
	TagSetBonusStatus

	// Player -> MS.
	TagDirectMessage
	TagBroadcastMessage
)

// String returns a short diagnostic name for the tag, for logging.
func (t Tag) String() string {
	switch t {
	case TagRequestToConnect:
		return "RequestToConnect"
	case TagWrongGameVersion:
		return "WrongGameVersion"
	case TagGameServerAddress:
		return "GameServerAddress"
	case TagNoFreeServers:
		return "NoFreeServers"
	case TagServerStarted:
		return "ServerStarted"
	case TagPlayerConnectedMM:
		return "PlayerConnectedMM"
	case TagPlayerDisconnectedMM:
		return "PlayerDisconnectedMM"
	case TagGameServerShutDown:
		return "GameServerShutDown"
	case TagNewSessionStarted:
		return "NewSessionStarted"
	case TagJoinTheMatch:
		return "JoinTheMatch"
	case TagPlayerConnected:
		return "PlayerConnected"
	case TagPlayerDisconnected:
		return "PlayerDisconnected"
	case TagNetMessageToPlayer:
		return "NetMessageToPlayer"
	case TagNetMessageBroadcast:
		return "NetMessageBroadcast"
	case TagSetFlagStatus:
		return "SetFlagStatus"
	case TagSetBonusStatus:
		return "SetBonusStatus"
	case TagDirectMessage:
		return "DirectMessage"
	case TagBroadcastMessage:
		return "BroadcastMessage"
	default:
		return "Unknown"
	}
}
