// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package mmserver

import (
	"fmt"
	"net"
	"testing"

	"github.com/slice4d/control-plane/internal/fleet"
	"github.com/slice4d/control-plane/internal/mmconfig"
	"github.com/slice4d/control-plane/internal/supervisor"
)

func testConfig() mmconfig.Config {
	return mmconfig.Config{
		MatchmakingServerIP:             net.ParseIP("127.0.0.1"),
		MatchmakingServerPortForClients: 9000,
		MatchmakingServerPortForServers: 9001,
		GameServersPublicIP:             net.ParseIP("203.0.113.7"),
		GameServersMinPort:              40000,
		GameServersMaxPort:              40010,
		MaxGameSessions:                 2,
		MaxPlayersPerGameSession:        4,
	}
}

// TestAssignSpawnsFirstServerOnEmptyFleet exercises scenario 2: the first
// client to connect triggers a spawn rather than an existing-server match.
func TestAssignSpawnsFirstServerOnEmptyFleet(t *testing.T) {
	svc := &Service{
		Registry: fleet.NewRegistry(),
		Config:   testConfig(),
		spawn:    func(supervisor.Args) error { return nil },
	}

	addr, err := svc.Assign()
	if err != nil {
		t.Fatalf("Assign() error = %v", err)
	}

	if addr.Port != 40000 {
		t.Fatalf("Port = %d, want 40000", addr.Port)
	}
	if addr.IPv4 != [4]byte{203, 0, 113, 7} {
		t.Fatalf("IPv4 = %v, want 203.0.113.7", addr.IPv4)
	}
}

// TestAssignReusesServerWithRoom exercises scenario where a second client
// lands on the already-spawned server instead of triggering a second spawn.
func TestAssignReusesServerWithRoom(t *testing.T) {
	spawns := 0
	svc := &Service{
		Registry: fleet.NewRegistry(),
		Config:   testConfig(),
		spawn: func(supervisor.Args) error {
			spawns++
			return nil
		},
	}

	first, err := svc.Assign()
	if err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}

	second, err := svc.Assign()
	if err != nil {
		t.Fatalf("second Assign() error = %v", err)
	}

	if second.Port != first.Port {
		t.Fatalf("second assignment went to port %d, want reuse of %d", second.Port, first.Port)
	}
	if spawns != 1 {
		t.Fatalf("spawns = %d, want 1", spawns)
	}
}

// TestAssignNoFreeServersAtCapacity exercises boundary B1.
func TestAssignNoFreeServersAtCapacity(t *testing.T) {
	cfg := testConfig()
	cfg.MaxGameSessions = 1
	cfg.MaxPlayersPerGameSession = 1

	svc := &Service{
		Registry: fleet.NewRegistry(),
		Config:   cfg,
		spawn:    func(supervisor.Args) error { return nil },
	}

	if _, err := svc.Assign(); err != nil {
		t.Fatalf("first Assign() error = %v", err)
	}

	if _, err := svc.Assign(); err != fleet.ErrNoFreeServers {
		t.Fatalf("second Assign() error = %v, want ErrNoFreeServers", err)
	}
}

// TestAssignReleasesPortOnSpawnFailure ensures a failed spawn does not leak
// the reserved port: a subsequent attempt can reuse it.
func TestAssignReleasesPortOnSpawnFailure(t *testing.T) {
	failNext := true
	svc := &Service{
		Registry: fleet.NewRegistry(),
		Config:   testConfig(),
		spawn: func(supervisor.Args) error {
			if failNext {
				failNext = false
				return fmt.Errorf("boom")
			}
			return nil
		},
	}

	if _, err := svc.Assign(); err == nil {
		t.Fatal("expected first Assign() to fail")
	}
	if svc.Registry.Len() != 0 {
		t.Fatalf("Len() = %d after failed spawn, want 0", svc.Registry.Len())
	}

	addr, err := svc.Assign()
	if err != nil {
		t.Fatalf("retried Assign() error = %v", err)
	}
	if addr.Port != 40000 {
		t.Fatalf("Port = %d, want 40000 reused after release", addr.Port)
	}
}
