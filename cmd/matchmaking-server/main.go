// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package main implements the initialization and entry point function for
// the matchmaking service, in main().
package main

import (
	"flag"
	"log"
	"os"

	"github.com/slice4d/control-plane/internal/fleet"
	"github.com/slice4d/control-plane/internal/mmconfig"
	"github.com/slice4d/control-plane/internal/mmserver"
)

func main() {
	log.SetOutput(os.Stdout)

	configPath := flag.String("config", "matchmaking-server-config.json", "path to the matchmaking server's JSON config file")
	binary := flag.String("match-server-binary", "./match-server", "path to the match server executable spawned per session")
	flag.Parse()

	cfg, err := mmconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	registry := fleet.NewRegistry()

	stop := make(chan struct{})
	go registry.RunReconciliationLoop(stop)

	service := mmserver.NewService(cfg, registry, *binary)

	log.Printf("INFO: 4D Shooter matchmaking service starting (version %s)", cfg.CurrentGameVersion)

	if err := service.Run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}
