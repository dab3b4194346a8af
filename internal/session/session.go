// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

// Session owns one match's State exclusively; nothing outside the methods
// below ever touches it, matching the single-owner discipline spec.md §5
// requires of the session task.
type Session struct {
	state     *State
	transport Transport
	reporter  Reporter
	rng       *rand.Rand
}

// New builds a Session around the given transport and MM reporter. rng may
// be nil, in which case a time-seeded source is used; tests pass a seeded
// one for determinism.
func New(transport Transport, reporter Reporter, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Session{
		state:     NewState(),
		transport: transport,
		reporter:  reporter,
		rng:       rng,
	}
}

// State exposes the current state for read-only inspection (diagnostics,
// tests).
func (sess *Session) State() *State {
	return sess.state
}

// StartNewSession implements spec.md §4.3.1: reset flags, bonus and score,
// reshuffle teams, and broadcast NewSessionStarted individually to every
// player with their own team assignment.
func (sess *Session) StartNewSession() {
	sess.state.SessionStart = time.Now()
	sess.state.RedFlag = FlagState{Status: wire.FlagOnBase, LastTransition: sess.state.SessionStart}
	sess.state.BlueFlag = FlagState{Status: wire.FlagOnBase, LastTransition: sess.state.SessionStart}
	sess.state.Bonus = BonusState{Status: wire.BonusOnSpot, LastTransition: sess.state.SessionStart}
	sess.state.RedScore = 0
	sess.state.BlueScore = 0

	for id := range sess.state.Players {
		sess.state.Players[id].HasFlag = false
	}

	sess.state.shuffleTeams(sess.rng)

	for id, p := range sess.state.Players {
		sess.transport.SendReliable(id, wire.TagNewSessionStarted, wire.NewSessionStarted{
			SessionStartMs: 0,
			YourTeam:       p.Team,
		})
	}
}

// Tick implements one iteration of spec.md §4.3's tick body, steps 3-4
// (transport health and idle-shutdown evaluation are the caller's
// responsibility, since they are process-lifetime concerns rather than
// session-state concerns).
func (sess *Session) Tick() {
	transitions, packets := sess.transport.Poll()

	for _, t := range transitions {
		if t.Connected {
			sess.handleConnect(t.PeerID)
		} else {
			sess.handleDisconnect(t.PeerID)
		}
	}

	for _, p := range packets {
		sess.handlePacket(p)
	}

	sess.advanceTimers()
}

// handleConnect implements spec.md §4.3.2.
func (sess *Session) handleConnect(peer uuid.UUID) {
	team := sess.state.chooseTeam(sess.rng)

	sess.transport.SendReliable(peer, wire.TagJoinTheMatch, wire.JoinTheMatch{
		NowMs:     sess.state.nowMs(),
		YourTeam:  team,
		RedFlag:   sess.state.RedFlag.ToWire(),
		BlueFlag:  sess.state.BlueFlag.ToWire(),
		Bonus:     sess.state.Bonus.Status,
		RedScore:  sess.state.RedScore,
		BlueScore: sess.state.BlueScore,
	})

	for id := range sess.state.Players {
		sess.transport.SendReliable(id, wire.TagPlayerConnected, wire.PlayerConnected{PeerID: peer})
		sess.transport.SendReliable(peer, wire.TagPlayerConnected, wire.PlayerConnected{PeerID: id})
	}

	sess.reporter.PlayerConnected()

	sess.state.Players[peer] = &PlayerInfo{PeerID: peer, Team: team}
	sess.state.roster(team)[peer] = struct{}{}
}

// handleDisconnect implements spec.md §4.3.3.
func (sess *Session) handleDisconnect(peer uuid.UUID) {
	info, ok := sess.state.Players[peer]
	if !ok {
		log.Printf("WARNING: disconnect for unknown peer %s", peer)
		return
	}

	delete(sess.state.Players, peer)
	delete(sess.state.roster(info.Team), peer)

	if info.HasFlag {
		sess.transitionFlag(info.Team.Opposite(), wire.FlagOnBase, wire.Vec3{}, uuid.Nil)
	}

	sess.state.rebalance()

	sess.transport.BroadcastExcept(peer, Reliable, wire.TagPlayerDisconnected, wire.PlayerDisconnected{PeerID: peer})

	sess.reporter.PlayerDisconnected()
}
