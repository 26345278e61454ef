// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package domain holds the cross-cutting error taxonomy shared by the
// generator, injector, and scan loop, plus the Bucket type naming the five
// classifications the scan loop sorts results into.
package domain

import "errors"

// Sentinel errors forming the error kind table. Callers use
// errors.Is/errors.As; wrapped context is added with fmt.Errorf("...: %w").
var (
	ErrTorrentDecoding             = errors.New("torrent decoding failed")
	ErrUnknownTracker              = errors.New("torrent is not from a known tracker")
	ErrTorrentAlreadyExists        = errors.New("torrent already exists")
	ErrTorrentNotFound             = errors.New("torrent not found on sibling tracker")
	ErrAuthentication              = errors.New("tracker authentication failed")
	ErrTorrentClient               = errors.New("torrent client error")
	ErrTorrentClientAuthentication = errors.New("torrent client authentication failed")
	ErrTorrentExistsInClient       = errors.New("torrent already exists in client")
	ErrTorrentInjection            = errors.New("torrent injection failed")
	ErrMaxRetries                  = errors.New("tracker API max retries exceeded")
)

// Bucket is one of the five classifications the scan loop sorts outcomes
// into.
type Bucket string

const (
	BucketGenerated     Bucket = "generated"
	BucketAlreadyExists Bucket = "already-exists"
	BucketNotFound      Bucket = "not-found"
	BucketSkipped       Bucket = "skipped"
	BucketError         Bucket = "error"
)

// BucketFor maps an error (nil meaning success) onto the scan loop's
// disposition table.
func BucketFor(err error) Bucket {
	switch {
	case err == nil:
		return BucketGenerated
	case errors.Is(err, ErrUnknownTracker):
		return BucketSkipped
	case errors.Is(err, ErrTorrentAlreadyExists), errors.Is(err, ErrTorrentExistsInClient):
		return BucketAlreadyExists
	case errors.Is(err, ErrTorrentNotFound):
		return BucketNotFound
	default:
		return BucketError
	}
}
