// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package injector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/fertilizer/internal/domain"
)

// DelugeClient drives Deluge's web JSON-RPC interface
// (`auth.login`, `web.update_ui`, `core.add_torrent_file`), authenticating
// with the session cookie Deluge issues on login.
type DelugeClient struct {
	rpcURL     string
	href       string
	password   string
	httpClient *http.Client

	cookie             string
	reqID              atomic.Int64
	labelPluginEnabled bool
}

// NewDelugeClient builds a client for rpcURL, e.g.
// "http://:secret@localhost:8112".
func NewDelugeClient(rpcURL string) *DelugeClient {
	return &DelugeClient{
		rpcURL:     rpcURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *DelugeClient) Setup(ctx context.Context) error {
	href, _, password, err := splitRPCURL(d.rpcURL, "/json")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("%w: Deluge RPC URL must embed a password, e.g. http://:<password>@host:8112", domain.ErrTorrentClientAuthentication)
	}
	d.href = href
	d.password = password

	if _, err := d.call(ctx, "auth.login", []any{d.password}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTorrentClientAuthentication, err)
	}
	if _, err := d.call(ctx, "web.connected", []any{}); err != nil {
		return err
	}

	d.labelPluginEnabled = d.probeLabelPlugin(ctx)
	return nil
}

// probeLabelPlugin checks whether the Label plugin is enabled, enabling it
// if not, and caches the result for the lifetime of the client. Labeling is
// best-effort: a plugin that can't be probed or enabled just means
// InjectTorrent skips the label.set_torrent call.
func (d *DelugeClient) probeLabelPlugin(ctx context.Context) bool {
	result, err := d.call(ctx, "core.get_enabled_plugins", []any{})
	if err != nil {
		return false
	}

	var enabled []string
	if err := json.Unmarshal(result, &enabled); err != nil {
		return false
	}
	for _, name := range enabled {
		if name == "Label" {
			return true
		}
	}

	if _, err := d.call(ctx, "core.enable_plugin", []any{"Label"}); err != nil {
		return false
	}
	return true
}

func (d *DelugeClient) GetTorrentInfo(ctx context.Context, infohash string) (*TorrentInfo, error) {
	params := []any{
		[]string{"name", "state", "progress", "save_path", "label", "total_remaining"},
		map[string]string{"hash": infohash},
	}
	result, err := d.call(ctx, "web.update_ui", params)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Torrents map[string]struct {
			Name           string  `json:"name"`
			State          string  `json:"state"`
			Progress       float64 `json:"progress"`
			SavePath       string  `json:"save_path"`
			Label          string  `json:"label"`
			TotalRemaining int64   `json:"total_remaining"`
		} `json:"torrents"`
	}
	if err := json.Unmarshal(result, &decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed web.update_ui response: %v", domain.ErrTorrentClient, err)
	}

	torrent, ok := decoded.Torrents[infohash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTorrentNotFound, infohash)
	}

	complete := (torrent.State == "Paused" && (torrent.Progress == 100 || torrent.TotalRemaining == 0)) ||
		torrent.State == "Seeding" ||
		torrent.Progress == 100 ||
		torrent.TotalRemaining == 0

	return &TorrentInfo{
		Complete:    complete,
		Label:       torrent.Label,
		SavePath:    torrent.SavePath,
		ContentPath: filepath.Join(torrent.SavePath, torrent.Name),
	}, nil
}

func (d *DelugeClient) InjectTorrent(ctx context.Context, newTorrentPath, savePathOverride, label string) (string, error) {
	data, err := readFileForInjection(newTorrentPath)
	if err != nil {
		return "", err
	}
	newInfohash, err := infohashOf(newTorrentPath)
	if err != nil {
		return "", err
	}

	if _, err := d.GetTorrentInfo(ctx, newInfohash); err == nil {
		return "", fmt.Errorf("%w: %s", domain.ErrTorrentExistsInClient, newInfohash)
	}

	params := []any{
		filepath.Base(newTorrentPath),
		base64.StdEncoding.EncodeToString(data),
		map[string]any{"download_location": savePathOverride},
	}
	if _, err := d.call(ctx, "core.add_torrent_file", params); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTorrentInjection, err)
	}

	if d.labelPluginEnabled && label != "" {
		d.applyLabel(ctx, newInfohash, label)
	}

	return newInfohash, nil
}

// applyLabel sets label on newInfohash via the Label plugin's RPC methods.
// Deluge's label.set_torrent fails if the label hasn't been registered with
// label.add first; that call is issued unconditionally and its
// "already exists" failure (the common case) is ignored. Labeling failures
// never fail the injection itself.
func (d *DelugeClient) applyLabel(ctx context.Context, infohash, label string) {
	_, _ = d.call(ctx, "label.add", []any{label})
	if _, err := d.call(ctx, "label.set_torrent", []any{infohash, label}); err != nil {
		log.Debug().Err(err).Str("infohash", infohash).Str("label", label).Msg("failed to set Deluge label")
	}
}

// delugeNotAuthenticatedCode is the Deluge JSON-RPC error code meaning the
// session cookie is no longer valid (expired or never established).
const delugeNotAuthenticatedCode = 1

// delugeRPCError carries the numeric error code Deluge attaches to a
// JSON-RPC failure, so call can detect an expired session without
// string-matching the message. It unwraps to domain.ErrTorrentClient so
// callers can keep using errors.Is against that sentinel.
type delugeRPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *delugeRPCError) Error() string {
	return fmt.Sprintf("Deluge method %s returned an error: %s (code %d)", e.Method, e.Message, e.Code)
}

func (e *delugeRPCError) Unwrap() error { return domain.ErrTorrentClient }

// call performs one Deluge JSON-RPC request. If the session has expired
// (error code 1) it re-authenticates once and retries the same call,
// mirroring the re-login-and-retry behavior qBittorrent's and Transmission's
// client libraries already give those clients via HTTP-level 403/409
// handling.
func (d *DelugeClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	result, err := d.rawCall(ctx, method, params)
	if err == nil || method == "auth.login" {
		return result, err
	}

	var rpcErr *delugeRPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != delugeNotAuthenticatedCode {
		return result, err
	}

	if _, loginErr := d.rawCall(ctx, "auth.login", []any{d.password}); loginErr != nil {
		return nil, fmt.Errorf("%w: re-authentication failed: %v", domain.ErrTorrentClientAuthentication, loginErr)
	}
	return d.rawCall(ctx, method, params)
}

func (d *DelugeClient) rawCall(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
		"id":     d.reqID.Add(1),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.href, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cookie != "" {
		req.Header.Set("Cookie", d.cookie)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTorrentClient, err)
	}
	defer resp.Body.Close()

	if set := resp.Header.Get("Set-Cookie"); set != "" {
		d.cookie = firstCookiePair(set)
	}

	var parsed struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: non-JSON response from Deluge method %s", domain.ErrTorrentClient, method)
	}
	if len(parsed.Error) > 0 && string(parsed.Error) != "null" {
		var decoded struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		}
		if err := json.Unmarshal(parsed.Error, &decoded); err == nil && decoded.Message != "" {
			return nil, &delugeRPCError{Method: method, Code: decoded.Code, Message: decoded.Message}
		}
		return nil, fmt.Errorf("%w: Deluge method %s returned an error: %s", domain.ErrTorrentClient, method, parsed.Error)
	}

	return parsed.Result, nil
}

func firstCookiePair(setCookie string) string {
	for i := 0; i < len(setCookie); i++ {
		if setCookie[i] == ';' {
			return setCookie[:i]
		}
	}
	return setCookie
}
