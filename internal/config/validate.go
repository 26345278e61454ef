// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strings"
)

var (
	aKeyPattern = regexp.MustCompile(`^[a-z0-9.]{41}$`)
	bKeyPattern = regexp.MustCompile(`^[A-Za-z0-9+/]{116}$`)
)

// Validate collects every configuration problem at once and reports them
// together, rather than failing on the first one found.
func Validate(cfg *Config) map[string]string {
	errs := map[string]string{}

	if cfg.AKey == "" {
		errs["a_key"] = "is required but was not found in the configuration"
	} else if !aKeyPattern.MatchString(cfg.AKey) {
		errs["a_key"] = fmt.Sprintf("does not appear to match known API key patterns: %q", cfg.AKey)
	}

	if cfg.BKey == "" {
		errs["b_key"] = "is required but was not found in the configuration"
	} else if !bKeyPattern.MatchString(cfg.BKey) {
		errs["b_key"] = fmt.Sprintf("does not appear to match known API key patterns: %q", cfg.BKey)
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		errs["port"] = fmt.Sprintf("invalid port (%d): not between 1 and 65535", cfg.Port)
	}

	if cfg.InjectTorrents {
		validateInjectionConfig(cfg, errs)
	}

	if cfg.DelugeRPCURL != "" {
		if err := validateClientURLWithPassword("deluge_rpc_url", cfg.DelugeRPCURL); err != nil {
			errs["deluge_rpc_url"] = err.Error()
		}
	}
	if cfg.TransmissionRPCURL != "" {
		if err := validateClientURLWithPassword("transmission_rpc_url", cfg.TransmissionRPCURL); err != nil {
			errs["transmission_rpc_url"] = err.Error()
		}
	}
	if cfg.QbittorrentURL != "" {
		if err := validateClientURL("qbittorrent_url", cfg.QbittorrentURL); err != nil {
			errs["qbittorrent_url"] = err.Error()
		}
	}

	return errs
}

func validateInjectionConfig(cfg *Config, errs map[string]string) {
	if cfg.DelugeRPCURL == "" && cfg.TransmissionRPCURL == "" && cfg.QbittorrentURL == "" {
		errs["torrent_clients"] = `a torrent client URL is required if "inject_torrents" is enabled`
	}

	if cfg.InjectionLinkDirectory == "" {
		errs["injection_link_directory"] = `an injection directory path is required if "inject_torrents" is enabled`
		return
	}
	if _, err := os.Stat(cfg.InjectionLinkDirectory); err != nil {
		errs["injection_link_directory"] = fmt.Sprintf("path does not exist: %s", cfg.InjectionLinkDirectory)
	}
}

func validateClientURL(key, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid %q provided: %s", key, rawURL)
	}
	return nil
}

func validateClientURLWithPassword(key, rawURL string) error {
	if err := validateClientURL(key, rawURL); err != nil {
		return err
	}
	parsed, _ := url.Parse(rawURL)
	if _, hasPassword := parsed.User.Password(); !hasPassword {
		return fmt.Errorf("you need to define a password in the %s (e.g. http://:<password>@host:port)", key)
	}
	return nil
}

func formatValidationErrors(errs map[string]string) error {
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "- %q: %s\n", key, errs[key])
	}
	return fmt.Errorf("invalid configuration:\n%s", b.String())
}
