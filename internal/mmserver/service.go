// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package mmserver

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Run starts both of the matchmaking service's listeners and blocks forever.
// It mirrors the teacher's single log.Fatal(http.ListenAndServe(...)) launch
// shape, just duplicated across the client and server ports, which per
// spec.md §4 are independent sockets and so get independent chi routers
// rather than being multiplexed onto one mux.
func (s *Service) Run() error {
	clientRouter := chi.NewRouter()
	clientRouter.Get("/", s.ClientHandler)

	serverRouter := chi.NewRouter()
	serverRouter.Get("/", s.ServerHandler)

	clientAddr := fmt.Sprintf(":%d", s.Config.MatchmakingServerPortForClients)
	serverAddr := fmt.Sprintf(":%d", s.Config.MatchmakingServerPortForServers)

	errCh := make(chan error, 2)

	go func() {
		log.Printf("INFO: matchmaking client port listening on %s", clientAddr)
		errCh <- http.ListenAndServe(clientAddr, clientRouter)
	}()

	go func() {
		log.Printf("INFO: matchmaking server port listening on %s", serverAddr)
		errCh <- http.ListenAndServe(serverAddr, serverRouter)
	}()

	return <-errCh
}
