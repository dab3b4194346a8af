// Copyright 2020 James Einosuke Stanton. All rights reserved.
// Use of this source code is governed by the MIT license
// that can be found in the LICENSE.md file.

// Package timeutil implements small time/duration helper functions shared
// across the control plane.
package timeutil

import "time"

// MaxDuration returns the larger of two durations.
func MaxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}

	return b
}
