// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/slice4d/control-plane/internal/wire"
)

// transitionFlag implements spec.md §4.3.7 for a flag: update status and
// lastTransitionTime, then broadcast the change on the reliable channel.
func (sess *Session) transitionFlag(team wire.Team, status wire.FlagStatusKind, position wire.Vec3, carrier uuid.UUID) {
	f := sess.state.flag(team)
	f.Status = status
	f.Position = position
	f.Carrier = carrier
	f.LastTransition = time.Now()

	sess.transport.Broadcast(Reliable, wire.TagSetFlagStatus, wire.SetFlagStatus{
		Team:   team,
		Status: f.ToWire(),
	})
}

// transitionBonus implements spec.md §4.3.7 for the bonus spot.
func (sess *Session) transitionBonus(status wire.BonusStatusKind) {
	sess.state.Bonus.Status = status
	sess.state.Bonus.LastTransition = time.Now()

	sess.transport.Broadcast(Reliable, wire.TagSetBonusStatus, wire.SetBonusStatus{
		Index:  0,
		Status: status,
	})
}

// advanceTimers implements spec.md §4.3.4: respawn a missed flag after
// FlagRespawn, and the bonus after BonusRespawn.
func (sess *Session) advanceTimers() {
	now := time.Now()

	if sess.state.RedFlag.Status == wire.FlagMissed && now.Sub(sess.state.RedFlag.LastTransition) >= FlagRespawn {
		sess.transitionFlag(wire.TeamRed, wire.FlagOnBase, wire.Vec3{}, uuid.Nil)
	}

	if sess.state.BlueFlag.Status == wire.FlagMissed && now.Sub(sess.state.BlueFlag.LastTransition) >= FlagRespawn {
		sess.transitionFlag(wire.TeamBlue, wire.FlagOnBase, wire.Vec3{}, uuid.Nil)
	}

	if sess.state.Bonus.Status == wire.BonusCollected && now.Sub(sess.state.Bonus.LastTransition) >= BonusRespawn {
		sess.transitionBonus(wire.BonusOnSpot)
	}
}
