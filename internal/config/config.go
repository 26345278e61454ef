// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads and validates the application configuration: a JSON
// file merged with environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the fully-merged, validated configuration.
type Config struct {
	AKey string `json:"a_key" mapstructure:"a_key"`
	BKey string `json:"b_key" mapstructure:"b_key"`

	Port int `json:"port" mapstructure:"port"`

	InjectTorrents         bool   `json:"inject_torrents" mapstructure:"inject_torrents"`
	InjectionLinkDirectory string `json:"injection_link_directory" mapstructure:"injection_link_directory"`
	DelugeRPCURL           string `json:"deluge_rpc_url" mapstructure:"deluge_rpc_url"`
	QbittorrentURL         string `json:"qbittorrent_url" mapstructure:"qbittorrent_url"`
	TransmissionRPCURL     string `json:"transmission_rpc_url" mapstructure:"transmission_rpc_url"`
}

const defaultPort = 9713

// Load merges configFile (if it exists) with the environment variable
// overrides, applies defaults, and validates the result.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("port", defaultPort)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file %s: %w", configFile, err)
			}
		}
	}

	bindEnv(v, "a_key", "A_KEY")
	bindEnv(v, "b_key", "B_KEY")
	bindEnv(v, "port", "PORT")
	bindEnv(v, "inject_torrents", "INJECT_TORRENTS")
	bindEnv(v, "injection_link_directory", "INJECTION_LINK_DIRECTORY")
	bindEnv(v, "deluge_rpc_url", "DELUGE_RPC_URL")
	bindEnv(v, "qbittorrent_url", "QBITTORRENT_URL")
	bindEnv(v, "transmission_rpc_url", "TRANSMISSION_RPC_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	return &cfg, nil
}

func bindEnv(v *viper.Viper, key, envVar string) {
	_ = v.BindEnv(key, envVar)
}
