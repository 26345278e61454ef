// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package injector stages a generated metafile's content into a new
// hardlinked location and adds it to a running torrent client.
package injector

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/domain"
	"github.com/autobrr/fertilizer/internal/trackers"
	"github.com/autobrr/fertilizer/pkg/fsutil"
	"github.com/autobrr/fertilizer/pkg/hardlink"
)

const defaultLabel = "fertilizer"

// TorrentInfo is the subset of a torrent client's per-torrent state the
// injector needs to stage and re-add a sibling torrent.
type TorrentInfo struct {
	Complete    bool
	Label       string
	SavePath    string
	ContentPath string
}

// Client abstracts the three supported torrent-client RPC protocols
// (Deluge, qBittorrent, Transmission): Setup once at startup, then
// GetTorrentInfo and InjectTorrent from the injection pipeline.
type Client interface {
	Setup(ctx context.Context) error
	GetTorrentInfo(ctx context.Context, infohash string) (*TorrentInfo, error)
	InjectTorrent(ctx context.Context, newTorrentPath, savePathOverride, label string) (newInfohash string, err error)
}

// Injector wires a single Client to a staging directory.
type Injector struct {
	Client    Client
	StageRoot string
}

// Inject stages sourceTorrentPath's on-disk content under a new directory
// named for destTracker, then hands newTorrentPath to the client with the
// staged directory's parent as the save-path override, exactly mirroring
// the upstream reference's inject_torrent.
func (i *Injector) Inject(ctx context.Context, sourceTorrentPath, newTorrentPath string, destTracker *trackers.Descriptor) (string, error) {
	sourceTorrent, ok := bencode.LoadFile(sourceTorrentPath)
	if !ok {
		return "", fmt.Errorf("%w: could not decode %s", domain.ErrTorrentDecoding, sourceTorrentPath)
	}

	infohash, err := bencode.Infohash(sourceTorrent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTorrentDecoding, err)
	}

	info, err := i.Client.GetTorrentInfo(ctx, infohash)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(info.ContentPath); err != nil {
		return "", fmt.Errorf("%w: could not locate source data at %s: %v", domain.ErrTorrentInjection, info.ContentPath, err)
	}

	trackerDir := filepath.Join(i.StageRoot, destTracker.ShortName)
	if err := os.MkdirAll(trackerDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create staging directory: %v", domain.ErrTorrentInjection, err)
	}

	if same, err := fsutil.SameFilesystem(info.ContentPath, trackerDir); err != nil {
		return "", fmt.Errorf("%w: check filesystem of %s: %v", domain.ErrTorrentInjection, info.ContentPath, err)
	} else if !same {
		return "", fmt.Errorf("%w: %s and the staging directory %s are on different filesystems; hardlinks cannot cross filesystems", domain.ErrTorrentInjection, info.ContentPath, trackerDir)
	}

	outputLocation := filepath.Join(trackerDir, filepath.Base(info.ContentPath))

	if err := hardlink.StageTree(info.ContentPath, outputLocation); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTorrentInjection, err)
	}

	if err := verifyStagedLinks(outputLocation); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTorrentInjection, err)
	}

	label := determineLabel(info.Label)
	newInfohash, err := i.Client.InjectTorrent(ctx, newTorrentPath, filepath.Dir(outputLocation), label)
	if err != nil {
		return "", err
	}

	return newInfohash, nil
}

// verifyStagedLinks walks a freshly staged tree and confirms every regular
// file actually shares an inode with its source (nlink >= 2), catching a
// silent fall-back to a plain copy.
func verifyStagedLinks(root string) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fmt.Errorf("stat staged path %s: %w", root, err)
	}
	if !info.IsDir() {
		return verifyStagedFile(root, info)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		return verifyStagedFile(path, fi)
	})
}

func verifyStagedFile(path string, fi os.FileInfo) error {
	_, nlink, err := hardlink.GetFileID(fi, path)
	if err != nil {
		return fmt.Errorf("get file id for %s: %w", path, err)
	}
	if nlink < 2 {
		return fmt.Errorf("staged file %s has link count %d, expected a hardlink (>=2)", path, nlink)
	}
	return nil
}

// determineLabel reproduces the upstream reference's label inheritance: an
// untagged torrent gets the bare "fertilizer" label; an already-tagged one
// is extended with ".fertilizer" unless it already carries that suffix.
func determineLabel(current string) string {
	if current == "" {
		return defaultLabel
	}
	if current == defaultLabel || strings.HasSuffix(current, "."+defaultLabel) {
		return current
	}
	return current + "." + defaultLabel
}

// splitRPCURL extracts (href, username, password) from a client RPC URL
// shaped like scheme://[user[:pass]@]host[:port][/path], appending
// basePath to the origin when given. Clients take their RPC endpoint
// credentials embedded in the configured URL.
func splitRPCURL(rawURL, basePath string) (href, username, password string, err error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", "", fmt.Errorf("parse client URL: %w", err)
	}

	if parsed.User != nil {
		username = parsed.User.Username()
		password, _ = parsed.User.Password()
	}

	origin := fmt.Sprintf("%s://%s", parsed.Scheme, parsed.Host)
	path := parsed.Path
	if basePath != "" {
		path = basePath
	}

	href = strings.TrimRight(origin, "/") + "/" + strings.TrimLeft(path, "/")
	return href, username, password, nil
}
