// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package crossseed

import (
	"context"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/domain"
	"github.com/autobrr/fertilizer/internal/trackerapi"
	"github.com/autobrr/fertilizer/internal/trackers"
)

// Generator runs the single-torrent cross-seed pipeline against the two
// sibling trackers.
type Generator struct {
	// Clients maps a tracker's ShortName ("RED"/"OPS") to its API client.
	Clients map[string]*trackerapi.Client

	// OutputDir is the root directory new metafiles are written under, one
	// subdirectory per destination tracker ShortName.
	OutputDir string
}

// Generate runs the pipeline for one source torrent at path. inputHashes and
// outputHashes map an uppercase 40-char infohash to the path it was already
// found at, in the input and output directories respectively, letting the
// caller short-circuit repeat work across a scan.
func (g *Generator) Generate(ctx context.Context, path string, inputHashes, outputHashes map[string]string) (*Outcome, error) {
	sourceTorrent, sourceTracker, err := g.loadAndIdentify(path)
	if err != nil {
		return nil, err
	}

	destTracker := sourceTracker.Reciprocal

	candidateHashes := make([]string, 0, len(destTracker.CreationFlags))
	for _, source := range destTracker.CreationFlags {
		hash, err := bencode.RecalculateWithSource(sourceTorrent, source)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrTorrentDecoding, err)
		}
		candidateHashes = append(candidateHashes, hash)
	}

	if found, at := firstMatch(candidateHashes, inputHashes); found {
		return nil, fmt.Errorf("%w: already present in input directory at %s", domain.ErrTorrentAlreadyExists, at)
	}
	if found, at := firstMatch(candidateHashes, outputHashes); found {
		return &Outcome{Tracker: destTracker, OutputPath: at, AlreadyExisted: true}, nil
	}

	destClient, ok := g.Clients[destTracker.ShortName]
	if !ok {
		return nil, fmt.Errorf("%w: no client configured for %s", domain.ErrUnknownTracker, destTracker.ShortName)
	}

	var lastErrStr string
	for i, source := range destTracker.CreationFlags {
		resp, err := destClient.FindTorrent(ctx, candidateHashes[i])
		if err != nil {
			return nil, err
		}
		if resp.Status != "success" {
			lastErrStr = resp.Error
			continue
		}

		lookup, err := trackerapi.DecodeTorrentLookup(resp)
		if err != nil {
			return nil, err
		}

		outputPath := g.outputFilepath(destTracker, string(source), lookup.Torrent.FilePath)
		if _, err := os.Stat(outputPath); err == nil {
			return &Outcome{Tracker: destTracker, OutputPath: outputPath, AlreadyExisted: true}, nil
		}

		if err := g.writeMetafile(ctx, sourceTorrent, destClient, destTracker, source, lookup, outputPath); err != nil {
			return nil, err
		}
		return &Outcome{Tracker: destTracker, OutputPath: outputPath, AlreadyExisted: false}, nil
	}

	if trackerapi.IsNotFound(lastErrStr) {
		return nil, fmt.Errorf("%w: not found on %s", domain.ErrTorrentNotFound, destTracker.ShortName)
	}
	return nil, fmt.Errorf("%w: unexpected response from %s: %s", domain.ErrTorrentClient, destTracker.ShortName, lastErrStr)
}

// loadAndIdentify loads the source torrent (and its fastresume sidecar, if
// any) and determines the origin tracker from whichever of the two yields a
// match.
func (g *Generator) loadAndIdentify(path string) (*bencode.Torrent, *trackers.Descriptor, error) {
	sourceTorrent, ok := bencode.LoadFile(path)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrTorrentDecoding, path)
	}
	if _, ok := sourceTorrent.Info(); !ok {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrTorrentDecoding, path)
	}

	originTracker := trackers.GetOriginTracker(sourceTorrent)

	if originTracker == nil {
		if fastresume, ok := bencode.LoadFile(fastresumePath(path)); ok {
			originTracker = trackers.GetOriginTracker(fastresume)
		}
	}

	if originTracker == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownTracker, path)
	}

	return sourceTorrent, originTracker, nil
}

// fastresumePath mirrors qBittorrent's BT_backup convention: the sidecar
// carrying tracker data for torrents added by path shares the same stem
// with a .fastresume extension.
func fastresumePath(torrentPath string) string {
	ext := filepath.Ext(torrentPath)
	return strings.TrimSuffix(torrentPath, ext) + ".fastresume"
}

func firstMatch(hashes []string, known map[string]string) (bool, string) {
	for _, h := range hashes {
		if at, ok := known[h]; ok {
			return true, at
		}
	}
	return false, ""
}

// outputFilepath builds "<OutputDir>/<tracker>/<unescaped filePath>[ source].torrent",
// matching the original reference's filename convention exactly.
func (g *Generator) outputFilepath(tracker *trackers.Descriptor, source, filePathFromAPI string) string {
	suffix := ""
	if source != "" {
		suffix = fmt.Sprintf(" [%s]", source)
	}
	filename := html.UnescapeString(filePathFromAPI) + suffix + ".torrent"
	return filepath.Join(g.OutputDir, tracker.ShortName, filename)
}

// writeMetafile stamps sourceTorrent with the new source flag, announce URL,
// and comment URL, then saves it to outputPath.
func (g *Generator) writeMetafile(
	ctx context.Context,
	sourceTorrent *bencode.Torrent,
	destClient *trackerapi.Client,
	destTracker *trackers.Descriptor,
	source []byte,
	lookup *trackerapi.TorrentLookupResponse,
	outputPath string,
) error {
	announceURL, err := destClient.AnnounceURL(ctx)
	if err != nil {
		return err
	}

	clone := &bencode.Torrent{Dict: sourceTorrent.Dict.Clone()}
	info, ok := clone.Info()
	if !ok {
		return fmt.Errorf("%w: %s", bencode.ErrNoInfo, outputPath)
	}
	info.Set("source", bencode.NewBytes(append([]byte(nil), source...)))
	clone.Dict.Set("announce", bencode.NewString(announceURL))
	clone.Dict.Set("comment", bencode.NewString(commentURL(destClient.SiteURL(), lookup.Torrent.ID)))

	return bencode.SaveFile(outputPath, clone)
}

func commentURL(siteURL string, torrentID trackerapi.FlexInt) string {
	return fmt.Sprintf("%s/torrents.php?torrentid=%s", siteURL, strconv.FormatInt(int64(torrentID), 10))
}
