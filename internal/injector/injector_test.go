// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package injector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/trackers"
	"github.com/autobrr/fertilizer/pkg/hardlink"
)

type fakeClient struct {
	info           *TorrentInfo
	injectedPath   string
	injectedSave   string
	injectedLabel  string
	injectInfohash string
}

func (f *fakeClient) Setup(ctx context.Context) error { return nil }

func (f *fakeClient) GetTorrentInfo(ctx context.Context, infohash string) (*TorrentInfo, error) {
	return f.info, nil
}

func (f *fakeClient) InjectTorrent(ctx context.Context, newTorrentPath, savePathOverride, label string) (string, error) {
	f.injectedPath = newTorrentPath
	f.injectedSave = savePathOverride
	f.injectedLabel = label
	f.injectInfohash = "newhash"
	return f.injectInfohash, nil
}

func writeTestTorrent(t *testing.T, path, name string) {
	t.Helper()
	info := bencode.NewEmptyDict()
	info.Set("name", bencode.NewString(name))
	info.Set("source", bencode.NewString("RED"))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	require.NoError(t, bencode.SaveFile(path, &bencode.Torrent{Dict: d}))
}

func TestInjectStagesContentAndCallsClient(t *testing.T) {
	contentDir := t.TempDir()
	contentPath := filepath.Join(contentDir, "Some Album")
	require.NoError(t, os.MkdirAll(contentPath, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contentPath, "track.flac"), []byte("audio"), 0o644))

	sourcePath := filepath.Join(t.TempDir(), "source.torrent")
	writeTestTorrent(t, sourcePath, "Some Album")

	newTorrentPath := filepath.Join(t.TempDir(), "new.torrent")
	writeTestTorrent(t, newTorrentPath, "Some Album")

	client := &fakeClient{info: &TorrentInfo{Complete: true, Label: "", ContentPath: contentPath}}
	stageRoot := t.TempDir()
	inj := &Injector{Client: client, StageRoot: stageRoot}

	newHash, err := inj.Inject(context.Background(), sourcePath, newTorrentPath, trackers.OPS)
	require.NoError(t, err)
	assert.Equal(t, "newhash", newHash)
	assert.Equal(t, "fertilizer", client.injectedLabel)

	stagedDir := filepath.Join(stageRoot, "OPS", "Some Album")
	stagedFile := filepath.Join(stagedDir, "track.flac")
	fi, err := os.Stat(stagedFile)
	require.NoError(t, err)
	assert.Equal(t, filepath.Dir(stagedDir), client.injectedSave)

	_, nlink, err := hardlink.GetFileID(fi, stagedFile)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, nlink, uint64(2), "staged file must share an inode with its source")
}

func TestInjectFailsWhenContentMissing(t *testing.T) {
	sourcePath := filepath.Join(t.TempDir(), "source.torrent")
	writeTestTorrent(t, sourcePath, "Some Album")

	client := &fakeClient{info: &TorrentInfo{ContentPath: filepath.Join(t.TempDir(), "does-not-exist")}}
	inj := &Injector{Client: client, StageRoot: t.TempDir()}

	_, err := inj.Inject(context.Background(), sourcePath, sourcePath, trackers.OPS)
	assert.Error(t, err)
}

func TestDetermineLabel(t *testing.T) {
	assert.Equal(t, "fertilizer", determineLabel(""))
	assert.Equal(t, "fertilizer", determineLabel("fertilizer"))
	assert.Equal(t, "music.fertilizer", determineLabel("music"))
	assert.Equal(t, "music.fertilizer", determineLabel("music.fertilizer"))
}

func TestSplitRPCURL(t *testing.T) {
	href, user, pass, err := splitRPCURL("http://:secret@localhost:8112/", "/json")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8112/json", href)
	assert.Equal(t, "", user)
	assert.Equal(t, "secret", pass)
}
