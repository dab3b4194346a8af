// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package main implements the initialization and entry point function for
// one match server process, in main(). Arguments are positional, per
// spec.md §6: signalingPort mmIp mmPort maxPlayers iceUrlsJoined
// turnUsername turnCredential.
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/slice4d/control-plane/internal/matchserver"
	"github.com/slice4d/control-plane/internal/msclient"
	"github.com/slice4d/control-plane/internal/peer"
	"github.com/slice4d/control-plane/internal/signaling"
)

func main() {
	log.SetOutput(os.Stdout)

	args := os.Args[1:]
	if len(args) != 7 {
		log.Fatalf("FATAL: expected 7 positional arguments, got %d", len(args))
	}

	signalingPort, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		log.Fatalf("FATAL: invalid signalingPort %q: %v", args[0], err)
	}

	mmIP := args[1]

	mmPort, err := strconv.ParseUint(args[2], 10, 16)
	if err != nil {
		log.Fatalf("FATAL: invalid mmPort %q: %v", args[2], err)
	}

	maxPlayers, err := strconv.Atoi(args[3])
	if err != nil {
		log.Fatalf("FATAL: invalid maxPlayers %q: %v", args[3], err)
	}

	var iceURLs []string
	if args[4] != "" {
		iceURLs = strings.Split(args[4], "|")
	}

	turnUsername := args[5]
	turnCredential := args[6]

	mmClient, err := msclient.Dial(mmIP, uint16(mmPort))
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	peers := peer.NewManager(iceURLs, turnUsername, turnCredential, maxPlayers)
	ms := matchserver.New(uint16(signalingPort), peers, mmClient)

	printReady := func() {
		fmt.Println("ready")
	}

	sig := signaling.NewServer(peers, printReady)

	go func() {
		addr := fmt.Sprintf(":%d", signalingPort)
		log.Printf("INFO: signaling endpoint listening on %s", addr)
		if err := http.ListenAndServe(addr, sig.Router()); err != nil {
			log.Printf("ERROR: signaling listener died: %v", err)
			peers.MarkTransportLost()
		}
	}()

	ms.Run()
}
