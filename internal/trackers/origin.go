// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package trackers

import "github.com/autobrr/fertilizer/internal/bencode"

// GetOriginTracker identifies which sibling tracker t originated from,
// checking in this order:
//  1. info.source matches one of a tracker's search flags.
//  2. failing that, any announce/trackers candidate contains a tracker's
//     announce fragment.
//
// Returns nil if neither check matches.
func GetOriginTracker(t *bencode.Torrent) *Descriptor {
	if source, ok := t.Source(); ok {
		for _, d := range All() {
			if d.HasSearchFlag(source) {
				return d
			}
		}
	}

	candidates := t.AnnounceCandidates()
	if len(candidates) > 0 {
		for _, d := range All() {
			if d.MatchesAnnounce(candidates) {
				return d
			}
		}
	}

	return nil
}
