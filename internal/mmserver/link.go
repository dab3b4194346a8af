// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package mmserver implements the matchmaking service's two WebSocket
// endpoints: the client port (admission and assignment) and the server port
// (the status stream from live match servers).
package mmserver

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/xid"
)

const (
	// maximumWriteWait is the maximum duration to wait before a write is
	// considered to have failed.
	maximumWriteWait = time.Second * 8

	// pongWait is the maximum duration to wait before a connection is
	// considered dead due to no inbound traffic.
	pongWait = maximumWriteWait * 2

	// pingPeriod is how often a ping is sent while idle.
	pingPeriod = (pongWait * 8) / 10
)

// link wraps a websocket connection carrying framed wire messages, with the
// same ping/pong keep-alive discipline the matchmaking queue's client
// connections use.
type link struct {
	ws  *websocket.Conn
	uid xid.ID
}

func newLink(ws *websocket.Conn) *link {
	l := &link{ws: ws, uid: xid.New()}

	l.ws.SetReadDeadline(time.Now().Add(pongWait))
	l.ws.SetPongHandler(func(string) error {
		l.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	return l
}

// keepAlive sends periodic pings until stop is closed or a write fails.
func (l *link) keepAlive(stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(maximumWriteWait)); err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

// readFrame blocks for the next binary frame on the connection.
func (l *link) readFrame() ([]byte, error) {
	_, payload, err := l.ws.ReadMessage()
	return payload, err
}

// writeFrame sends a pre-encoded binary frame.
func (l *link) writeFrame(frame []byte) error {
	l.ws.SetWriteDeadline(time.Now().Add(maximumWriteWait))
	return l.ws.WriteMessage(websocket.BinaryMessage, frame)
}

func (l *link) close() error {
	return l.ws.Close()
}
