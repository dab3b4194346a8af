// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

// shuffleTeams implements spec.md §4.3.5: a uniform random permutation of
// every current player, alternating Red/Blue assignment starting with Red.
// Rosters are rebuilt from scratch.
func (s *State) shuffleTeams(rng *rand.Rand) {
	keys := make([]uuid.UUID, 0, len(s.Players))
	for id := range s.Players {
		keys = append(keys, id)
	}

	rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })

	s.RedRoster = make(map[uuid.UUID]struct{})
	s.BlueRoster = make(map[uuid.UUID]struct{})

	for i, id := range keys {
		team := wire.TeamRed
		if i%2 == 1 {
			team = wire.TeamBlue
		}

		s.Players[id].Team = team
		s.roster(team)[id] = struct{}{}
	}
}

// chooseTeam implements spec.md §4.3.6: a joining player is assigned to
// whichever team is smaller, or a fair coin flip when they are equal.
func (s *State) chooseTeam(rng *rand.Rand) wire.Team {
	red, blue := len(s.RedRoster), len(s.BlueRoster)

	switch {
	case blue > red:
		return wire.TeamRed
	case red > blue:
		return wire.TeamBlue
	default:
		if rng.Intn(2) == 0 {
			return wire.TeamRed
		}
		return wire.TeamBlue
	}
}

// rebalance implements spec.md §4.3.8: if the rosters differ by more than
// two, migrate one non-flag-holding player from the larger roster to the
// smaller one. At most one migration per call.
func (s *State) rebalance() (moved uuid.UUID, from, to wire.Team, ok bool) {
	diff := len(s.RedRoster) - len(s.BlueRoster)
	if diff > -3 && diff < 3 {
		return uuid.Nil, 0, 0, false
	}

	larger, smaller := wire.TeamRed, wire.TeamBlue
	if diff < 0 {
		larger, smaller = wire.TeamBlue, wire.TeamRed
	}

	for id := range s.roster(larger) {
		if s.Players[id].HasFlag {
			continue
		}

		delete(s.roster(larger), id)
		s.roster(smaller)[id] = struct{}{}
		s.Players[id].Team = smaller

		return id, larger, smaller, true
	}

	return uuid.Nil, 0, 0, false
}
