// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package trackers

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autobrr/fertilizer/internal/bencode"
)

func torrentWithSource(source string) *bencode.Torrent {
	info := bencode.NewEmptyDict()
	info.Set("source", bencode.NewString(source))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	return &bencode.Torrent{Dict: d}
}

func torrentWithAnnounce(announce string) *bencode.Torrent {
	info := bencode.NewEmptyDict()
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	d.Set("announce", bencode.NewString(announce))
	return &bencode.Torrent{Dict: d}
}

func TestGetOriginTrackerBySourceFlag(t *testing.T) {
	tr := torrentWithSource("PTH")
	assert.Same(t, RED, GetOriginTracker(tr))
}

func TestGetOriginTrackerByAnnounceFallback(t *testing.T) {
	tr := torrentWithAnnounce("https://home.opsfet.ch/1234/announce")
	assert.Same(t, OPS, GetOriginTracker(tr))
}

func TestGetOriginTrackerPrefersSourceOverAnnounce(t *testing.T) {
	info := bencode.NewEmptyDict()
	info.Set("source", bencode.NewString("OPS"))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	d.Set("announce", bencode.NewString("https://flacsfor.me/1234/announce"))
	tr := &bencode.Torrent{Dict: d}

	assert.Same(t, OPS, GetOriginTracker(tr))
}

func TestGetOriginTrackerReturnsNilForUnknown(t *testing.T) {
	tr := torrentWithAnnounce("https://example.com/announce")
	assert.Nil(t, GetOriginTracker(tr))
}

func TestRedAndOpsAreReciprocal(t *testing.T) {
	assert.Same(t, OPS, RED.Reciprocal)
	assert.Same(t, RED, OPS.Reciprocal)
}

func TestByShortName(t *testing.T) {
	d, ok := ByShortName("RED")
	assert.True(t, ok)
	assert.Same(t, RED, d)

	_, ok = ByShortName("nope")
	assert.False(t, ok)
}
