// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package crossseed implements the core single-torrent cross-seed pipeline:
// given a source torrent from one sibling tracker, locate and materialize
// the matching metafile on the other.
package crossseed

import "github.com/autobrr/fertilizer/internal/trackers"

// Outcome is the successful result of a single Generate call: either a
// freshly written metafile or a pre-existing one. Failures are returned as
// the call's error instead, for classification by domain.BucketFor.
type Outcome struct {
	// Tracker is the sibling (destination) tracker the metafile targets.
	Tracker *trackers.Descriptor

	// OutputPath is the absolute path of the generated or pre-existing
	// metafile.
	OutputPath string

	// AlreadyExisted is true when OutputPath was already present (in the
	// output-directory cache, or on disk at the computed path) rather than
	// written during this call. A match in the input directory is reported
	// as domain.ErrTorrentAlreadyExists, not as an Outcome.
	AlreadyExisted bool
}
