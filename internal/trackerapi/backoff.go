// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package trackerapi

import "math"

// expFloor returns floor(e^x), the backoff curve used by retryDelay.
func expFloor(x float64) float64 {
	return math.Floor(math.Exp(x))
}
