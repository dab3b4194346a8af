// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package session implements the capture-the-flag match state machine that
// runs inside a match server process: team assignment, flag and bonus
// lifecycles, rebalancing, and client packet fan-out.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

const (
	// FlagRespawn is how long a missed flag stays on the ground before
	// returning to its base.
	FlagRespawn = 10 * time.Second

	// BonusRespawn is how long the bonus stays collected before
	// reappearing.
	BonusRespawn = 20 * time.Second
)

// PlayerInfo is the session's view of one connected peer.
type PlayerInfo struct {
	PeerID  uuid.UUID
	Team    wire.Team
	HasFlag bool
}

// FlagState tracks one team's flag.
type FlagState struct {
	Status         wire.FlagStatusKind
	Position       wire.Vec3
	Carrier        uuid.UUID
	LastTransition time.Time
}

// ToWire projects the flag into its wire representation.
func (f FlagState) ToWire() wire.FlagStatus {
	return wire.FlagStatus{
		Kind:     f.Status,
		Position: f.Position,
		Carrier:  f.Carrier,
	}
}

// BonusState tracks the single bonus pickup.
type BonusState struct {
	Status         wire.BonusStatusKind
	LastTransition time.Time
}

// State is the full state of one match session, owned exclusively by the
// session tick loop. Nothing outside the loop mutates it, so it carries no
// locks — the same single-owner discipline the teacher applies to its
// per-match struct, here widened to the one match a process hosts.
type State struct {
	Players    map[uuid.UUID]*PlayerInfo
	RedRoster  map[uuid.UUID]struct{}
	BlueRoster map[uuid.UUID]struct{}

	RedFlag  FlagState
	BlueFlag FlagState
	Bonus    BonusState

	RedScore  uint32
	BlueScore uint32

	SessionStart time.Time
}

// NewState returns an empty session state, with both flags on base and the
// bonus on its spot — the same baseline StartNewSession resets to.
func NewState() *State {
	return &State{
		Players:    make(map[uuid.UUID]*PlayerInfo),
		RedRoster:  make(map[uuid.UUID]struct{}),
		BlueRoster: make(map[uuid.UUID]struct{}),
	}
}

// roster returns the roster map for the given team.
func (s *State) roster(team wire.Team) map[uuid.UUID]struct{} {
	if team == wire.TeamRed {
		return s.RedRoster
	}

	return s.BlueRoster
}

// flag returns a pointer to the given team's flag.
func (s *State) flag(team wire.Team) *FlagState {
	if team == wire.TeamRed {
		return &s.RedFlag
	}

	return &s.BlueFlag
}

// nowMs returns milliseconds elapsed since SessionStart, per spec.md §3's
// "monotonic origin" timestamp convention.
func (s *State) nowMs() uint64 {
	return uint64(time.Since(s.SessionStart).Milliseconds())
}
