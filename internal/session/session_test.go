// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

// fakeTransport is a no-op Transport recording every outbound send, enough
// to drive the state machine without any real networking.
type fakeTransport struct {
	sent []sentMessage
}

type sentMessage struct {
	to      uuid.UUID
	channel Channel
	tag     wire.Tag
}

func (f *fakeTransport) Poll() ([]Transition, []Packet) { return nil, nil }

func (f *fakeTransport) SendReliable(to uuid.UUID, tag wire.Tag, msg any) error {
	f.sent = append(f.sent, sentMessage{to: to, channel: Reliable, tag: tag})
	return nil
}

func (f *fakeTransport) Send(to uuid.UUID, channel Channel, tag wire.Tag, msg any) error {
	f.sent = append(f.sent, sentMessage{to: to, channel: channel, tag: tag})
	return nil
}

func (f *fakeTransport) Broadcast(channel Channel, tag wire.Tag, msg any) error {
	f.sent = append(f.sent, sentMessage{channel: channel, tag: tag})
	return nil
}

func (f *fakeTransport) BroadcastExcept(except uuid.UUID, channel Channel, tag wire.Tag, msg any) error {
	f.sent = append(f.sent, sentMessage{channel: channel, tag: tag})
	return nil
}

type fakeReporter struct {
	connects    int
	disconnects int
}

func (r *fakeReporter) PlayerConnected()    { r.connects++ }
func (r *fakeReporter) PlayerDisconnected() { r.disconnects++ }

func newTestSession(seed int64) (*Session, *fakeTransport, *fakeReporter) {
	transport := &fakeTransport{}
	reporter := &fakeReporter{}
	sess := New(transport, reporter, rand.New(rand.NewSource(seed)))
	return sess, transport, reporter
}

// checkRosterInvariants verifies P1 and I1: every player is in exactly one
// roster, and the rosters are disjoint.
func checkRosterInvariants(t *testing.T, s *State) {
	t.Helper()

	seen := make(map[uuid.UUID]bool)
	for id := range s.RedRoster {
		if _, ok := s.BlueRoster[id]; ok {
			t.Fatalf("player %s present in both rosters", id)
		}
		seen[id] = true
	}
	for id := range s.BlueRoster {
		seen[id] = true
	}

	if len(seen) != len(s.Players) {
		t.Fatalf("roster union size %d != players size %d", len(seen), len(s.Players))
	}
	for id := range s.Players {
		if !seen[id] {
			t.Fatalf("player %s missing from both rosters", id)
		}
	}
}

func TestConnectAndDisconnectMaintainRosterInvariants(t *testing.T) {
	sess, _, _ := newTestSession(1)

	ids := make([]uuid.UUID, 6)
	for i := range ids {
		ids[i] = uuid.New()
		sess.handleConnect(ids[i])
		checkRosterInvariants(t, sess.state)
	}

	if got := len(sess.state.RedRoster) - len(sess.state.BlueRoster); got > 2 || got < -2 {
		t.Fatalf("roster imbalance %d exceeds P2 bound after connects", got)
	}

	sess.handleDisconnect(ids[0])
	checkRosterInvariants(t, sess.state)

	if _, ok := sess.state.Players[ids[0]]; ok {
		t.Fatal("disconnected player still present")
	}
}

func TestDisconnectOfUnknownPeerIsIgnored(t *testing.T) {
	sess, _, reporter := newTestSession(1)

	sess.handleDisconnect(uuid.New())

	if reporter.disconnects != 0 {
		t.Fatalf("expected no PlayerDisconnected report, got %d", reporter.disconnects)
	}
}

// TestRebalanceOnDisconnect exercises scenario 4: red=[a,b,c,d,e], blue=[f];
// f disconnects, triggering a rebalance of one red player to blue.
func TestRebalanceOnDisconnect(t *testing.T) {
	sess, _, _ := newTestSession(1)

	red := make([]uuid.UUID, 5)
	for i := range red {
		red[i] = uuid.New()
		sess.state.Players[red[i]] = &PlayerInfo{PeerID: red[i], Team: wire.TeamRed}
		sess.state.RedRoster[red[i]] = struct{}{}
	}

	f := uuid.New()
	sess.state.Players[f] = &PlayerInfo{PeerID: f, Team: wire.TeamBlue}
	sess.state.BlueRoster[f] = struct{}{}

	sess.handleDisconnect(f)

	if len(sess.state.RedRoster) != 4 {
		t.Fatalf("red roster size = %d, want 4", len(sess.state.RedRoster))
	}
	if len(sess.state.BlueRoster) != 1 {
		t.Fatalf("blue roster size = %d, want 1", len(sess.state.BlueRoster))
	}

	checkRosterInvariants(t, sess.state)
}

// TestFlagRespawnsAfterTimeout exercises scenario 5 and property P3: a
// missed flag returns to base once FlagRespawn has elapsed, and a status
// broadcast is sent.
func TestFlagRespawnsAfterTimeout(t *testing.T) {
	sess, transport, _ := newTestSession(1)

	carrier := uuid.New()
	sess.transitionFlag(wire.TeamRed, wire.FlagMissed, wire.Vec3{X: 1, Y: 2, Z: 3}, carrier)
	transport.sent = nil

	sess.state.RedFlag.LastTransition = time.Now().Add(-FlagRespawn - time.Millisecond)

	sess.advanceTimers()

	if sess.state.RedFlag.Status != wire.FlagOnBase {
		t.Fatalf("RedFlag.Status = %v, want FlagOnBase", sess.state.RedFlag.Status)
	}

	found := false
	for _, m := range transport.sent {
		if m.tag == wire.TagSetFlagStatus {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a SetFlagStatus broadcast on respawn")
	}
}

func TestFlagDoesNotRespawnBeforeTimeout(t *testing.T) {
	sess, _, _ := newTestSession(1)

	sess.transitionFlag(wire.TeamBlue, wire.FlagMissed, wire.Vec3{}, uuid.New())
	sess.state.BlueFlag.LastTransition = time.Now().Add(-FlagRespawn / 2)

	sess.advanceTimers()

	if sess.state.BlueFlag.Status != wire.FlagMissed {
		t.Fatal("flag respawned early")
	}
}

// TestBonusRespawnsAfterTimeout exercises property P4.
func TestBonusRespawnsAfterTimeout(t *testing.T) {
	sess, _, _ := newTestSession(1)

	sess.transitionBonus(wire.BonusCollected)
	sess.state.Bonus.LastTransition = time.Now().Add(-BonusRespawn - time.Millisecond)

	sess.advanceTimers()

	if sess.state.Bonus.Status != wire.BonusOnSpot {
		t.Fatalf("Bonus.Status = %v, want BonusOnSpot", sess.state.Bonus.Status)
	}
}

// TestDisconnectReturnsCarriedFlag verifies spec.md §4.3.3 step 3: a
// disconnecting flag carrier returns the opposing flag to base.
func TestDisconnectReturnsCarriedFlag(t *testing.T) {
	sess, _, _ := newTestSession(1)

	carrier := uuid.New()
	sess.state.Players[carrier] = &PlayerInfo{PeerID: carrier, Team: wire.TeamRed, HasFlag: true}
	sess.state.RedRoster[carrier] = struct{}{}
	sess.transitionFlag(wire.TeamBlue, wire.FlagCaptured, wire.Vec3{}, carrier)

	sess.handleDisconnect(carrier)

	if sess.state.BlueFlag.Status != wire.FlagOnBase {
		t.Fatalf("BlueFlag.Status = %v, want FlagOnBase after carrier disconnect", sess.state.BlueFlag.Status)
	}
}

func TestStartNewSessionResetsState(t *testing.T) {
	sess, _, _ := newTestSession(1)

	for i := 0; i < 4; i++ {
		id := uuid.New()
		sess.handleConnect(id)
	}

	sess.state.RedScore = 3
	sess.state.BlueScore = 5
	sess.transitionFlag(wire.TeamRed, wire.FlagMissed, wire.Vec3{}, uuid.New())

	sess.StartNewSession()

	if sess.state.RedScore != 0 || sess.state.BlueScore != 0 {
		t.Fatal("scores not reset")
	}
	if sess.state.RedFlag.Status != wire.FlagOnBase || sess.state.BlueFlag.Status != wire.FlagOnBase {
		t.Fatal("flags not reset to OnBase")
	}
	if sess.state.Bonus.Status != wire.BonusOnSpot {
		t.Fatal("bonus not reset to OnSpot")
	}

	checkRosterInvariants(t, sess.state)
}

func TestChooseTeamBalancesSmallerSide(t *testing.T) {
	sess, _, _ := newTestSession(2)

	sess.state.RedRoster[uuid.New()] = struct{}{}
	sess.state.RedRoster[uuid.New()] = struct{}{}

	if got := sess.state.chooseTeam(sess.rng); got != wire.TeamBlue {
		t.Fatalf("chooseTeam() = %v, want TeamBlue when red is larger", got)
	}
}
