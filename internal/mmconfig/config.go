// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package mmconfig loads and validates the matchmaking service's JSON
// configuration file. Every key is required; a missing or malformed key is
// fatal at startup, matching the original Rust loader's all-or-nothing
// Map/expect chain.
package mmconfig

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/slice4d/control-plane/internal/fleet"
	"github.com/slice4d/control-plane/internal/wire"
)

// IceConfig mirrors game_severs_ice_config in the config file.
type IceConfig struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username"`
	Credential string   `json:"credential"`
}

// Config is the fully parsed and validated matchmaking-server-config.json.
type Config struct {
	MatchmakingServerIP              net.IP
	MatchmakingServerPortForClients  uint16
	MatchmakingServerPortForServers  uint16
	CurrentGameVersion               wire.GameVersion
	GameServersPublicIP              net.IP
	GameServersMinPort               uint16
	GameServersMaxPort               uint16
	MaxGameSessions                  int
	MaxPlayersPerGameSession         int
	GameServersIce                   IceConfig
}

// Limits projects the capacity-relevant fields into a fleet.Limits.
func (c Config) Limits() fleet.Limits {
	return fleet.Limits{
		MaxSessions:          c.MaxGameSessions,
		MaxPlayersPerSession: c.MaxPlayersPerGameSession,
		MinPort:              c.GameServersMinPort,
		MaxPort:              c.GameServersMaxPort,
	}
}

// rawConfig matches the JSON document shape exactly, with every field
// required so a missing key surfaces as a nil check below rather than a
// silently-zero value.
type rawConfig struct {
	MatchmakingServerIP             *string    `json:"matchmaking_server_ip"`
	MatchmakingServerPortForClients *uint16    `json:"matchmaking_server_port_for_clients"`
	MatchmakingServerPortForServers *uint16    `json:"matchmaking_server_port_for_servers"`
	CurrentGameVersion              *string    `json:"current_game_version"`
	GameServersPublicIP             *string    `json:"game_severs_public_ip"`
	GameServersMinPort              *uint16    `json:"game_severs_min_port"`
	GameServersMaxPort              *uint16    `json:"game_severs_max_port"`
	MaxGameSessions                 *int       `json:"max_game_sessions"`
	MaxPlayersPerGameSession        *int       `json:"max_players_per_game_session"`
	GameServersIce                  *IceConfig `json:"game_severs_ice_config"`
}

// Load reads and validates the config file at path. Every required key
// listed in spec.md §6 must be present; the first missing key is a fatal
// error, returned (not panicked) so callers can choose how to report it
// before exiting.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("mmconfig: read %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("mmconfig: parse %s: %w", path, err)
	}

	missing := func(key string) error {
		return fmt.Errorf("mmconfig: missing required key %q in %s", key, path)
	}

	switch {
	case raw.MatchmakingServerIP == nil:
		return Config{}, missing("matchmaking_server_ip")
	case raw.MatchmakingServerPortForClients == nil:
		return Config{}, missing("matchmaking_server_port_for_clients")
	case raw.MatchmakingServerPortForServers == nil:
		return Config{}, missing("matchmaking_server_port_for_servers")
	case raw.CurrentGameVersion == nil:
		return Config{}, missing("current_game_version")
	case raw.GameServersPublicIP == nil:
		return Config{}, missing("game_severs_public_ip")
	case raw.GameServersMinPort == nil:
		return Config{}, missing("game_severs_min_port")
	case raw.GameServersMaxPort == nil:
		return Config{}, missing("game_severs_max_port")
	case raw.MaxGameSessions == nil:
		return Config{}, missing("max_game_sessions")
	case raw.MaxPlayersPerGameSession == nil:
		return Config{}, missing("max_players_per_game_session")
	case raw.GameServersIce == nil:
		return Config{}, missing("game_severs_ice_config")
	}

	mmIP := net.ParseIP(*raw.MatchmakingServerIP)
	if mmIP == nil {
		return Config{}, fmt.Errorf("mmconfig: invalid matchmaking_server_ip %q", *raw.MatchmakingServerIP)
	}

	publicIP := net.ParseIP(*raw.GameServersPublicIP)
	if publicIP == nil {
		return Config{}, fmt.Errorf("mmconfig: invalid game_severs_public_ip %q", *raw.GameServersPublicIP)
	}

	version, err := parseGameVersion(*raw.CurrentGameVersion)
	if err != nil {
		return Config{}, err
	}

	return Config{
		MatchmakingServerIP:             mmIP,
		MatchmakingServerPortForClients: *raw.MatchmakingServerPortForClients,
		MatchmakingServerPortForServers: *raw.MatchmakingServerPortForServers,
		CurrentGameVersion:              version,
		GameServersPublicIP:             publicIP,
		GameServersMinPort:              *raw.GameServersMinPort,
		GameServersMaxPort:              *raw.GameServersMaxPort,
		MaxGameSessions:                 *raw.MaxGameSessions,
		MaxPlayersPerGameSession:        *raw.MaxPlayersPerGameSession,
		GameServersIce:                  *raw.GameServersIce,
	}, nil
}

func parseGameVersion(s string) (wire.GameVersion, error) {
	var v wire.GameVersion
	n, err := fmt.Sscanf(s, "%d.%d.%d", &v.Major, &v.Minor, &v.Patch)
	if err != nil || n != 3 {
		return wire.GameVersion{}, fmt.Errorf("mmconfig: invalid current_game_version %q", s)
	}

	return v, nil
}
