// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package injector

import (
	"fmt"
	"os"
	"strings"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/domain"
)

// readFileForInjection reads a generated metafile whole, for clients whose
// RPC protocol wants the raw bytes (Deluge, Transmission) rather than a
// multipart upload (qBittorrent).
func readFileForInjection(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrTorrentInjection, path, err)
	}
	return data, nil
}

// infohashOf decodes and hashes the metafile at path, lower-cased to match
// the casing torrent clients report over RPC.
func infohashOf(path string) (string, error) {
	t, ok := bencode.LoadFile(path)
	if !ok {
		return "", fmt.Errorf("%w: could not decode %s", domain.ErrTorrentDecoding, path)
	}
	hash, err := bencode.Infohash(t)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTorrentDecoding, err)
	}
	return strings.ToLower(hash), nil
}
