// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package mmserver

import (
	"net"

	"github.com/slice4d/control-plane/internal/fleet"
	"github.com/slice4d/control-plane/internal/mmconfig"
	"github.com/slice4d/control-plane/internal/supervisor"
	"github.com/slice4d/control-plane/internal/wire"
)

// Service ties the fleet registry, the loaded configuration, and the match
// server process spawner together behind the assignment algorithm described
// in spec.md §4.1.
type Service struct {
	Registry *fleet.Registry
	Config   mmconfig.Config

	// spawn is indirected so tests can substitute a fake that never
	// execs a real binary.
	spawn func(supervisor.Args) error
}

// NewService builds a Service that spawns real match server processes from
// the given binary path.
func NewService(cfg mmconfig.Config, registry *fleet.Registry, binary string) *Service {
	return &Service{
		Registry: registry,
		Config:   cfg,
		spawn: func(args supervisor.Args) error {
			return supervisor.Spawn(binary, args)
		},
	}
}

// Assign runs the assignment algorithm: prefer an existing match server
// with spare room, otherwise spawn a new one on the smallest free port. It
// returns fleet.ErrNoFreeServers when the fleet is already at MaxSessions.
func (s *Service) Assign() (wire.GameServerAddress, error) {
	limits := s.Config.Limits()

	if info, ok := s.Registry.TryAssignExisting(limits); ok {
		return addressOf(info), nil
	}

	port, ok := s.Registry.ReserveFreePort(limits)
	if !ok {
		return wire.GameServerAddress{}, fleet.ErrNoFreeServers
	}

	args := supervisor.Args{
		SignalingPort:  port,
		MMIp:           s.Config.MatchmakingServerIP.String(),
		MMServerPort:   s.Config.MatchmakingServerPortForServers,
		MaxPlayers:     s.Config.MaxPlayersPerGameSession,
		IceURLs:        s.Config.GameServersIce.URLs,
		TurnUsername:   s.Config.GameServersIce.Username,
		TurnCredential: s.Config.GameServersIce.Credential,
	}

	if err := s.spawn(args); err != nil {
		s.Registry.ReleaseReservedPort(port)
		return wire.GameServerAddress{}, err
	}

	publicIPv4, ok := ipv4Bytes(s.Config.GameServersPublicIP)
	if !ok {
		s.Registry.ReleaseReservedPort(port)
		return wire.GameServerAddress{}, fleet.ErrNoFreeServers
	}

	info := s.Registry.CommitReservedPort(port, publicIPv4, port)

	return addressOf(info), nil
}

func addressOf(info fleet.GameServerInfo) wire.GameServerAddress {
	return wire.GameServerAddress{
		IPv4: info.PublicIPv4,
		Port: info.PublicPort,
	}
}

// ipv4Bytes reduces a net.IP (which may be in 16-byte form) down to its
// 4-byte IPv4 representation.
func ipv4Bytes(ip net.IP) (out [4]byte, ok bool) {
	v4 := ip.To4()
	if v4 == nil {
		return out, false
	}

	copy(out[:], v4)
	return out, true
}
