// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bencode

import (
	"crypto/sha1" //nolint:gosec // BitTorrent v1 infohash requires SHA1.
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Torrent is a thin view over a decoded bencode dict, exposing the keys the
// cross-seed pipeline cares about (info, announce, trackers, comment).
type Torrent struct {
	Dict *Dict
}

// LoadFile best-effort decodes path. Any I/O or decode failure yields
// (nil, false) rather than an error so a scan can continue past unreadable
// peer files.
func LoadFile(path string) (*Torrent, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	v, err := Decode(data)
	if err != nil || v.Kind != KindDict {
		return nil, false
	}
	return &Torrent{Dict: v.Dict}, true
}

// SaveFile writes t canonically-encoded to path, creating any missing
// parent directories first.
func SaveFile(path string, t *Torrent) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", path, err)
	}
	data := Encode(NewDict(t.Dict))
	return os.WriteFile(path, data, 0o644)
}

// Info returns the info sub-dictionary, if present.
func (t *Torrent) Info() (*Dict, bool) {
	v, ok := t.Dict.Get("info")
	if !ok || v.Kind != KindDict {
		return nil, false
	}
	return v.Dict, true
}

// Name returns info.name.
func (t *Torrent) Name() (string, bool) {
	info, ok := t.Info()
	if !ok {
		return "", false
	}
	v, ok := info.Get("name")
	if !ok || v.Kind != KindBytes {
		return "", false
	}
	return string(v.Bytes), true
}

// Source returns info.source, and whether the key was present at all.
func (t *Torrent) Source() ([]byte, bool) {
	info, ok := t.Info()
	if !ok {
		return nil, false
	}
	v, ok := info.Get("source")
	if !ok || v.Kind != KindBytes {
		return nil, false
	}
	return v.Bytes, true
}

// AnnounceCandidates returns every announce-URL-shaped byte string found in
// either the top-level `announce` key or the flattened `trackers` list, in
// that order.
func (t *Torrent) AnnounceCandidates() [][]byte {
	var out [][]byte

	if v, ok := t.Dict.Get("announce"); ok {
		switch v.Kind {
		case KindBytes:
			out = append(out, v.Bytes)
		case KindList:
			for _, item := range v.List {
				if item.Kind == KindBytes {
					out = append(out, item.Bytes)
				}
			}
		}
	}

	if v, ok := t.Dict.Get("trackers"); ok && v.Kind == KindList {
		for _, tier := range v.List {
			if tier.Kind != KindList {
				continue
			}
			for _, item := range tier.List {
				if item.Kind == KindBytes {
					out = append(out, item.Bytes)
				}
			}
		}
	}

	return out
}

// Infohash computes SHA1(Encode(info)) as 40 uppercase hex characters. It
// fails with ErrNoInfo when the info dict is absent; infohash is always a
// pure function of info.
func Infohash(t *Torrent) (string, error) {
	info, ok := t.Info()
	if !ok {
		return "", ErrNoInfo
	}
	sum := sha1.Sum(Encode(NewDict(info))) //nolint:gosec // BitTorrent v1 infohash requires SHA1.
	return strings.ToUpper(hex.EncodeToString(sum[:])), nil
}

// RecalculateWithSource deep-copies t, sets info.source to source (even when
// source is the empty byte string — the empty flag is represented as a
// present, zero-length value, never as key deletion, matching the upstream
// Python reference's unconditional assignment), and returns the resulting
// infohash. The caller's value is never mutated.
func RecalculateWithSource(t *Torrent, source []byte) (string, error) {
	clone := t.Dict.Clone()
	cloned := &Torrent{Dict: clone}

	info, ok := cloned.Info()
	if !ok {
		return "", ErrNoInfo
	}
	info.Set("source", NewBytes(append([]byte(nil), source...)))

	return Infohash(cloned)
}

// IsValidInfohash reports whether s is a 40-character hex string that
// parses as a positive 160-bit integer.
func IsValidInfohash(s string) bool {
	if len(s) != 40 {
		return false
	}
	nonZero := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			nonZero = nonZero || c != '0'
		case c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			nonZero = true
		default:
			return false
		}
	}
	return nonZero
}
