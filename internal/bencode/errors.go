// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bencode

import "errors"

// ErrNoInfo is returned by Infohash/RecalculateWithSource when the torrent
// has no `info` dictionary. Callers in package crossseed map this onto
// domain.ErrTorrentDecoding.
var ErrNoInfo = errors.New("bencode: torrent has no info dictionary")
