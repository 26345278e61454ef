// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package webhook

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fertilizer/internal/bencode"
	"github.com/autobrr/fertilizer/internal/crossseed"
	"github.com/autobrr/fertilizer/internal/trackerapi"
	"github.com/autobrr/fertilizer/internal/trackers"
)

func postForm(t *testing.T, srv *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestWebhookMissingInfohash(t *testing.T) {
	srv := NewServer(&crossseed.Generator{}, t.TempDir())
	rec := postForm(t, srv, url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookInvalidInfohash(t *testing.T) {
	srv := NewServer(&crossseed.Generator{}, t.TempDir())
	rec := postForm(t, srv, url.Values{"infohash": {"not-a-hash"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookNoFileOnDisk(t *testing.T) {
	srv := NewServer(&crossseed.Generator{}, t.TempDir())
	rec := postForm(t, srv, url.Values{"infohash": {strings.Repeat("a", 40)}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWebhookSuccess(t *testing.T) {
	inputDir := t.TempDir()

	info := bencode.NewEmptyDict()
	info.Set("name", bencode.NewString("Some Album"))
	info.Set("source", bencode.NewString("RED"))
	d := bencode.NewEmptyDict()
	d.Set("info", bencode.NewDict(info))
	tr := &bencode.Torrent{Dict: d}
	hash, err := bencode.Infohash(tr)
	require.NoError(t, err)

	sourcePath := filepath.Join(inputDir, strings.ToLower(hash)+".torrent")
	require.NoError(t, bencode.SaveFile(sourcePath, tr))

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "index":
			_, _ = w.Write([]byte(`{"status":"success","response":{"passkey":"key"}}`))
		case "torrent":
			_, _ = w.Write([]byte(`{"status":"success","response":{"torrent":{"id":1,"filePath":"Some Album"}}}`))
		}
	}))
	defer srv2.Close()

	opsStub := &trackers.Descriptor{ShortName: "OPS", SiteURL: srv2.URL, TrackerURL: "https://home.opsfet.ch"}
	client := trackerapi.NewClient(opsStub, "token test", time.Millisecond)

	g := &crossseed.Generator{
		Clients:   map[string]*trackerapi.Client{"OPS": client},
		OutputDir: t.TempDir(),
	}
	srv := NewServer(g, inputDir)

	rec := postForm(t, srv, url.Values{"infohash": {strings.ToLower(hash)}})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "Some Album")
}
