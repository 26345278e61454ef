// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package scanner drives the directory-scan entry point: walk every
// .torrent file in an input directory, run it through the cross-seed
// pipeline, and optionally inject the result into a torrent client.
package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/crossseed"
	"github.com/autobrr/fertilizer/internal/domain"
	"github.com/autobrr/fertilizer/internal/injector"
)

// Scanner runs the cross-seed pipeline over every torrent in InputDir.
type Scanner struct {
	Generator *crossseed.Generator
	Injector  *injector.Injector // nil disables injection, which is opt-in
	InputDir  string
	OutputDir string
}

// Report tallies one bucket count per disposition.
type Report struct {
	Total         int
	Generated     int
	AlreadyExists int
	NotFound      int
	Errors        int
	Skipped       int
	Elapsed       time.Duration
}

// String renders Report the way the upstream reference's end-of-run
// summary does, substituting zerolog-style plain text for ANSI color.
func (r Report) String() string {
	noun := "torrent"
	if r.Total != 1 {
		noun = "torrents"
	}
	pct := func(n int) float64 {
		if r.Total == 0 {
			return 0
		}
		return float64(n) / float64(r.Total) * 100
	}
	divider := strings.Repeat("-", 50)
	return fmt.Sprintf(
		"\n%s\nAnalyzed %d local %s in %.2f seconds:\n"+
			"*\tGenerated for cross-seeding: %d (%.0f%%)\n"+
			"*\tAlready exists: %d (%.0f%%)\n"+
			"*\tNot found: %d (%.0f%%)\n"+
			"*\tErrors: %d (%.0f%%)\n"+
			"*\tSkipped: %d (%.0f%%)\n%s",
		divider, r.Total, noun, r.Elapsed.Seconds(),
		r.Generated, pct(r.Generated),
		r.AlreadyExists, pct(r.AlreadyExists),
		r.NotFound, pct(r.NotFound),
		r.Errors, pct(r.Errors),
		r.Skipped, pct(r.Skipped),
		divider,
	)
}

// Scan walks InputDir's .torrent files, generating and optionally injecting
// a sibling metafile for each, and returns a tallied Report.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	if _, err := os.Stat(s.InputDir); err != nil {
		return Report{}, fmt.Errorf("input directory not found: %s: %w", s.InputDir, err)
	}
	if err := os.MkdirAll(s.OutputDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output directory %s: %w", s.OutputDir, err)
	}

	inputTorrents, err := listTorrents(s.InputDir)
	if err != nil {
		return Report{}, err
	}
	outputTorrents, err := listTorrents(s.OutputDir)
	if err != nil {
		return Report{}, err
	}

	inputHashes := collectInfohashes(inputTorrents)
	outputHashes := collectInfohashes(outputTorrents)

	start := time.Now()
	report := Report{Total: len(inputTorrents)}

	for i, path := range inputTorrents {
		select {
		case <-ctx.Done():
			report.Elapsed = time.Since(start)
			return report, ctx.Err()
		default:
		}

		log.Info().Str("torrent", filepath.Base(path)).Msgf("(%d/%d) scanning", i+1, len(inputTorrents))

		outcome, err := s.Generator.Generate(ctx, path, inputHashes, outputHashes)
		bucket := domain.BucketFor(err)
		tallyBucket(&report, bucket)

		switch {
		case outcome != nil:
			log.Info().Str("torrent", path).Str("output", outcome.OutputPath).Msg("found sibling torrent")
			if newTorrent, ok := bencode.LoadFile(outcome.OutputPath); ok {
				if hash, err := bencode.Infohash(newTorrent); err == nil {
					outputHashes[hash] = outcome.OutputPath
				}
			}
			s.maybeInject(ctx, path, outcome)
		case bucket == domain.BucketAlreadyExists:
			log.Info().Err(err).Str("torrent", path).Msg("already present in input directory")
		case bucket == domain.BucketNotFound:
			log.Info().Str("torrent", path).Msg("not found on sibling tracker")
		case bucket == domain.BucketSkipped:
			log.Debug().Str("torrent", path).Msg("not from a known tracker, skipping")
		default:
			log.Error().Err(err).Str("torrent", path).Msg("failed to process torrent")
		}
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

func (s *Scanner) maybeInject(ctx context.Context, sourcePath string, outcome *crossseed.Outcome) {
	if s.Injector == nil {
		return
	}
	if _, err := s.Injector.Inject(ctx, sourcePath, outcome.OutputPath, outcome.Tracker); err != nil {
		log.Error().Err(err).Str("torrent", outcome.OutputPath).Msg("failed to inject torrent into client")
	}
}

func tallyBucket(r *Report, b domain.Bucket) {
	switch b {
	case domain.BucketGenerated:
		r.Generated++
	case domain.BucketAlreadyExists:
		r.AlreadyExists++
	case domain.BucketNotFound:
		r.NotFound++
	case domain.BucketSkipped:
		r.Skipped++
	default:
		r.Errors++
	}
}

func listTorrents(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".torrent") {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}

// BuildOutputCache lists dir's .torrent files and maps each one's infohash
// to its path, the same output cache Scan builds internally. Single-file
// callers use this so repeat runs stay idempotent against previous output,
// not just against what's already on disk at the one computed path.
func BuildOutputCache(dir string) (map[string]string, error) {
	torrents, err := listTorrents(dir)
	if err != nil {
		return nil, err
	}
	return collectInfohashes(torrents), nil
}

// collectInfohashes maps each decodable file's own infohash to its path,
// for the generator's already-exists short-circuit. Recomputing candidate
// hashes under other source flags is left to the generator.
func collectInfohashes(paths []string) map[string]string {
	out := make(map[string]string, len(paths))
	for _, path := range paths {
		t, ok := bencode.LoadFile(path)
		if !ok {
			continue
		}
		hash, err := bencode.Infohash(t)
		if err != nil {
			continue
		}
		out[hash] = path
	}
	return out
}
