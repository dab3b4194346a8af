// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package matchserver wires together the peer manager, signaling endpoint,
// session state machine and MM link into the outer match server process
// described in spec.md §2-§4.3.
package matchserver

import "github.com/slice4d/control-plane/internal/msclient"

// mmReporter adapts msclient.Client's server-indexed report methods to the
// no-argument session.Reporter interface, since one match server process
// only ever reports for its own serverIndex.
type mmReporter struct {
	client      *msclient.Client
	serverIndex uint16
}

func (r mmReporter) PlayerConnected() {
	r.client.PlayerConnected(r.serverIndex)
}

func (r mmReporter) PlayerDisconnected() {
	r.client.PlayerDisconnected(r.serverIndex)
}
