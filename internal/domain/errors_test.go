// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBucketFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Bucket
	}{
		{"success", nil, BucketGenerated},
		{"unknown tracker", fmt.Errorf("wrap: %w", ErrUnknownTracker), BucketSkipped},
		{"already exists", fmt.Errorf("wrap: %w", ErrTorrentAlreadyExists), BucketAlreadyExists},
		{"exists in client", fmt.Errorf("wrap: %w", ErrTorrentExistsInClient), BucketAlreadyExists},
		{"not found", fmt.Errorf("wrap: %w", ErrTorrentNotFound), BucketNotFound},
		{"other error", fmt.Errorf("wrap: %w", ErrTorrentClient), BucketError},
		{"plain error", fmt.Errorf("boom"), BucketError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BucketFor(tc.err))
		})
	}
}
