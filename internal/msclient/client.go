// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package msclient implements the match server's outbound connection back
// to the matchmaking service: a single WebSocket carrying MatchServerMessage
// reports, per spec.md §4.5.
package msclient

import (
	"fmt"
	"log"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slice4d/control-plane/internal/wire"
)

// outboundBufferSize is the bounded channel capacity spec.md §4.5 / §5
// specifies ("capacity ≈ 10").
const outboundBufferSize = 10

// reconnectAttempts is the number of initial dial attempts, carried over from
// the original's WebRtcSocketBuilder.reconnect_attempts(Some(3)) per
// SPEC_FULL.md §4.3.
const reconnectAttempts = 3

// Client owns the single outbound link to MM's server port.
type Client struct {
	ws       *websocket.Conn
	outbound chan frame
	done     chan struct{}
	lost     atomic.Bool
}

type frame struct {
	tag Tag
	msg any
}

// Tag re-exports wire.Tag so callers of this package don't need to import
// wire directly for the handful of report kinds it sends.
type Tag = wire.Tag

// Dial connects to MM's server port at mmIP:mmPort, making up to
// reconnectAttempts attempts one second apart, and starts the background
// worker that drains the outbound channel onto the socket.
func Dial(mmIP string, mmPort uint16) (*Client, error) {
	addr := url.URL{Scheme: "ws", Host: fmt.Sprintf("%s:%d", mmIP, mmPort), Path: "/"}

	var ws *websocket.Conn
	var err error

	for attempt := 1; attempt <= reconnectAttempts; attempt++ {
		ws, _, err = websocket.DefaultDialer.Dial(addr.String(), nil)
		if err == nil {
			break
		}

		log.Printf("WARNING: msclient: dial attempt %d/%d failed: %v", attempt, reconnectAttempts, err)
		time.Sleep(time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("msclient: dial %s: %w", addr.String(), err)
	}

	c := &Client{
		ws:       ws,
		outbound: make(chan frame, outboundBufferSize),
		done:     make(chan struct{}),
	}

	go c.worker()

	return c, nil
}

func (c *Client) worker() {
	defer close(c.done)

	for f := range c.outbound {
		encoded, err := wire.Encode(f.tag, f.msg)
		if err != nil {
			log.Printf("WARNING: msclient: encode %s: %v", f.tag, err)
			continue
		}

		if err := c.ws.WriteMessage(websocket.BinaryMessage, encoded); err != nil {
			log.Printf("WARNING: msclient: write %s failed: %v", f.tag, err)
			c.MarkLost()
			return
		}

		if f.tag == wire.TagGameServerShutDown {
			return
		}
	}
}

// MarkLost flags the control-plane link as having died unexpectedly. Mainly
// useful for tests; the worker itself calls this on a failed write.
func (c *Client) MarkLost() {
	c.lost.Store(true)
}

// Lost reports whether the control-plane link died unexpectedly (as
// opposed to a clean GameServerShutDown drain). The session tick loop uses
// this to satisfy spec.md §4.3 step 1: "check transport health; if closed
// unexpectedly, exit with failure code 1".
func (c *Client) Lost() bool {
	return c.lost.Load()
}

// report enqueues a MatchServerMessage under the given tag. It never
// blocks the session loop except when the channel is genuinely full, which
// spec.md §5 accepts as backpressure. Once the worker has exited, the
// report is dropped instead.
func (c *Client) report(tag Tag, serverIndex uint16) {
	select {
	case c.outbound <- frame{tag: tag, msg: wire.MatchServerMessage{ServerIndex: serverIndex}}:
	case <-c.done:
		log.Printf("WARNING: msclient: link closed, dropping %s", tag)
	}
}

// ServerStarted reports this match server has come up.
func (c *Client) ServerStarted(serverIndex uint16) { c.report(wire.TagServerStarted, serverIndex) }

// PlayerConnected reports a peer join.
func (c *Client) PlayerConnected(serverIndex uint16) { c.report(wire.TagPlayerConnectedMM, serverIndex) }

// PlayerDisconnected reports a peer leave.
func (c *Client) PlayerDisconnected(serverIndex uint16) {
	c.report(wire.TagPlayerDisconnectedMM, serverIndex)
}

// Shutdown enqueues GameServerShutDown and blocks up to 3 seconds (per
// spec.md §4.5 / §5's shutdown drain) for the worker to flush it and exit.
func (c *Client) Shutdown(serverIndex uint16) {
	c.outbound <- frame{tag: wire.TagGameServerShutDown, msg: wire.MatchServerMessage{ServerIndex: serverIndex}}
	close(c.outbound)

	select {
	case <-c.done:
	case <-time.After(3 * time.Second):
		log.Printf("WARNING: msclient: shutdown drain timed out")
	}

	c.ws.Close()
}
