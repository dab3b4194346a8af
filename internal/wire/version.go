// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package wire implements the binary framing and message catalogue used on
// every socket in the control plane: the matchmaking client port, the
// matchmaking server port, and the per-player data channels.
package wire

import "fmt"

// GameVersion is an opaque (major, minor, patch) triplet, compared for
// equality only.
type GameVersion struct {
	Major uint16 `json:"major"`
	Minor uint16 `json:"minor"`
	Patch uint16 `json:"patch"`
}

// Equal returns true if both versions have identical components.
func (v GameVersion) Equal(other GameVersion) bool {
	return v.Major == other.Major && v.Minor == other.Minor && v.Patch == other.Patch
}

// String renders the version as "major.minor.patch".
func (v GameVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
