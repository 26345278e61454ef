// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package trackers holds the static, process-wide description of the two
// sibling Gazelle trackers this tool cross-seeds between.
package trackers

import "bytes"

// Descriptor is an immutable description of one sibling tracker. Consumers
// MUST NOT mutate a Descriptor's slices.
type Descriptor struct {
	// ShortName is the directory-safe tag used for staging and output paths
	// ("RED"/"OPS").
	ShortName string

	// SiteURL is the tracker's web root, used for comment URLs and as the
	// API base.
	SiteURL string

	// TrackerURL is the announce-URL host used to build the final announce
	// URL (<TrackerURL>/<passkey>/announce).
	TrackerURL string

	// SearchFlags are the info.source values considered evidence that a
	// torrent originated on this tracker.
	SearchFlags [][]byte

	// CreationFlags are the info.source values to try, in order, when
	// searching this tracker for a sibling-origin torrent. The empty byte
	// string is always the final fallback, for legacy uploads carrying no
	// source flag at all.
	CreationFlags [][]byte

	// AnnounceFragment is the substring that identifies this tracker inside
	// an announce URL (e.g. "flacsfor.me").
	AnnounceFragment string

	// Reciprocal is the sibling tracker. Set after both descriptors exist;
	// see init() below.
	Reciprocal *Descriptor
}

// HasSearchFlag reports whether source matches one of d's search flags.
func (d *Descriptor) HasSearchFlag(source []byte) bool {
	for _, f := range d.SearchFlags {
		if bytes.Equal(f, source) {
			return true
		}
	}
	return false
}

// MatchesAnnounce reports whether any of the candidate announce URLs
// contains d's announce fragment.
func (d *Descriptor) MatchesAnnounce(candidates [][]byte) bool {
	frag := []byte(d.AnnounceFragment)
	for _, c := range candidates {
		if bytes.Contains(c, frag) {
			return true
		}
	}
	return false
}

var (
	// RED is site A: Redacted.
	RED = &Descriptor{
		ShortName:        "RED",
		SiteURL:          "https://redacted.sh",
		TrackerURL:       "https://flacsfor.me",
		SearchFlags:      [][]byte{[]byte("RED"), []byte("PTH")},
		CreationFlags:    [][]byte{[]byte("RED"), []byte("PTH"), []byte("")},
		AnnounceFragment: "flacsfor.me",
	}

	// OPS is site B: Orpheus.
	OPS = &Descriptor{
		ShortName:        "OPS",
		SiteURL:          "https://orpheus.network",
		TrackerURL:       "https://home.opsfet.ch",
		SearchFlags:      [][]byte{[]byte("OPS"), []byte("APL")},
		CreationFlags:    [][]byte{[]byte("OPS"), []byte("APL"), []byte("")},
		AnnounceFragment: "home.opsfet.ch",
	}
)

func init() {
	RED.Reciprocal = OPS
	OPS.Reciprocal = RED
}

// All returns both descriptors, for iteration when identifying origin.
func All() []*Descriptor {
	return []*Descriptor{RED, OPS}
}

// ByShortName looks up a descriptor by its directory-safe tag.
func ByShortName(name string) (*Descriptor, bool) {
	for _, d := range All() {
		if d.ShortName == name {
			return d, true
		}
	}
	return nil, false
}
