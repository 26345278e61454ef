// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package scanner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/crossseed"
	"github.com/autobrr/fertilizer/internal/trackerapi"
	"github.com/autobrr/fertilizer/internal/trackers"
)

func writeTorrent(t *testing.T, dir, name, source, announce string) string {
	t.Helper()
	info := bencode.NewEmptyDict()
	info.Set("name", bencode.NewString(name))
	info.Set("source", bencode.NewString(source))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	if announce != "" {
		d.Set("announce", bencode.NewString(announce))
	}
	path := filepath.Join(dir, name+".torrent")
	require.NoError(t, bencode.SaveFile(path, &bencode.Torrent{Dict: d}))
	return path
}

func TestScanTalliesBucketsAcrossMixedTorrents(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "index":
			_, _ = w.Write([]byte(`{"status":"success","response":{"passkey":"key"}}`))
		case "torrent":
			hash := r.URL.Query().Get("hash")
			if hash == foundHash {
				_, _ = w.Write([]byte(`{"status":"success","response":{"torrent":{"id":1,"filePath":"Found Album"}}}`))
				return
			}
			_, _ = w.Write([]byte(`{"status":"failure","error":"bad hash parameter"}`))
		}
	}))
	defer srv.Close()

	opsStub := &trackers.Descriptor{ShortName: "OPS", SiteURL: srv.URL, TrackerURL: "https://home.opsfet.ch"}
	client := trackerapi.NewClient(opsStub, "token test", time.Millisecond)

	writeTorrent(t, inputDir, "Found Album", "RED", "https://flacsfor.me/announce")
	writeTorrent(t, inputDir, "Missing Album", "RED", "https://flacsfor.me/announce")
	writeTorrent(t, inputDir, "Unknown Source", "NOPE", "https://example.com/announce")

	g := &crossseed.Generator{
		Clients:   map[string]*trackerapi.Client{"OPS": client},
		OutputDir: outputDir,
	}

	s := &Scanner{Generator: g, InputDir: inputDir, OutputDir: outputDir}
	report, err := s.Scan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Generated)
	assert.Equal(t, 1, report.NotFound)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Errors)
}

// foundHash is computed lazily so it matches the "Found Album" torrent's
// OPS-sourced candidate hash regardless of any encoding change.
var foundHash = mustHash()

func mustHash() string {
	info := bencode.NewEmptyDict()
	info.Set("name", bencode.NewString("Found Album"))
	info.Set("source", bencode.NewString("OPS"))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	tr := &bencode.Torrent{Dict: d}
	h, _ := bencode.Infohash(tr)
	return h
}

func TestReportStringFormatsPercentages(t *testing.T) {
	r := Report{Total: 4, Generated: 2, NotFound: 1, Errors: 1, Elapsed: 2 * time.Second}
	out := r.String()
	assert.Contains(t, out, "Analyzed 4 local torrents in 2.00 seconds")
	assert.Contains(t, out, "Generated for cross-seeding: 2 (50%)")
}

func TestScanErrorsWhenInputDirMissing(t *testing.T) {
	s := &Scanner{Generator: &crossseed.Generator{}, InputDir: filepath.Join(t.TempDir(), "missing"), OutputDir: t.TempDir()}
	_, err := s.Scan(context.Background())
	assert.Error(t, err)
}

func TestListTorrentsIgnoresNonTorrentFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.torrent"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("x"), 0o644))

	found, err := listTorrents(dir)
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
