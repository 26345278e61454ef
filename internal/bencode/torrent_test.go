// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bencode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTorrent(source string) *Torrent {
	info := NewEmptyDict()
	info.Set("name", NewString("example.bin"))
	info.Set("piece length", NewInt(16384))
	info.Set("pieces", NewBytes([]byte("01234567890123456789")))
	info.Set("source", NewString(source))

	d := NewEmptyDict()
	d.Set("announce", NewString("https://flacsfor.me/1234/announce"))
	d.Set("info", NewDict(info))
	return &Torrent{Dict: d}
}

func TestInfohashIsDeterministic(t *testing.T) {
	tr := sampleTorrent("RED")
	h1, err := Infohash(tr)
	require.NoError(t, err)
	h2, err := Infohash(tr)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 40)
}

func TestRecalculateWithSourceChangesInfohash(t *testing.T) {
	tr := sampleTorrent("RED")
	original, err := Infohash(tr)
	require.NoError(t, err)

	recalculated, err := RecalculateWithSource(tr, []byte("OPS"))
	require.NoError(t, err)

	assert.NotEqual(t, original, recalculated)

	// Original value must be untouched.
	src, _ := tr.Source()
	assert.Equal(t, "RED", string(src))
}

func TestRecalculateWithEmptySourceIsDistinctFromMissing(t *testing.T) {
	tr := sampleTorrent("RED")

	withEmpty, err := RecalculateWithSource(tr, []byte(""))
	require.NoError(t, err)

	missing := sampleTorrent("RED")
	info, ok := missing.Info()
	require.True(t, ok)
	info.Delete("source")
	withMissing, err := Infohash(missing)
	require.NoError(t, err)

	assert.NotEqual(t, withEmpty, withMissing)
}

func TestSaveAndLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "example.torrent")

	tr := sampleTorrent("RED")
	require.NoError(t, SaveFile(path, tr))

	loaded, ok := LoadFile(path)
	require.True(t, ok)

	name, _ := loaded.Name()
	assert.Equal(t, "example.bin", name)
}

func TestLoadFileMissingReturnsFalse(t *testing.T) {
	_, ok := LoadFile(filepath.Join(t.TempDir(), "missing.torrent"))
	assert.False(t, ok)
}

func TestLoadFileGarbageReturnsFalse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.torrent")
	require.NoError(t, os.WriteFile(path, []byte("not bencode"), 0o644))

	_, ok := LoadFile(path)
	assert.False(t, ok)
}

func TestAnnounceCandidatesCollectsAnnounceAndTrackersList(t *testing.T) {
	d := NewEmptyDict()
	d.Set("announce", NewString("https://flacsfor.me/announce"))
	d.Set("trackers", NewList([]Value{
		NewList([]Value{NewString("https://home.opsfet.ch/announce")}),
	}))
	tr := &Torrent{Dict: d}

	candidates := tr.AnnounceCandidates()
	require.Len(t, candidates, 2)
	assert.Equal(t, "https://flacsfor.me/announce", string(candidates[0]))
	assert.Equal(t, "https://home.opsfet.ch/announce", string(candidates[1]))
}

func TestIsValidInfohash(t *testing.T) {
	cases := map[string]bool{
		"":                            false, // wrong length
		strings.Repeat("0", 40):       false, // all-zero, not a valid infohash
		strings.Repeat("a", 39):       false, // too short
		strings.Repeat("a", 40):       true,
		strings.Repeat("0", 39) + "a": true, // mostly zero but one nonzero digit
		strings.Repeat("z", 40):       false, // not hex
		strings.Repeat("A", 40):       true,  // uppercase hex is valid
	}
	for in, want := range cases {
		assert.Equal(t, want, IsValidInfohash(in), "input %q", in)
	}
}
