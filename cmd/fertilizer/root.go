// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/fertilizer/internal/config"
	"github.com/autobrr/fertilizer/internal/crossseed"
	"github.com/autobrr/fertilizer/internal/injector"
	"github.com/autobrr/fertilizer/internal/scanner"
	"github.com/autobrr/fertilizer/internal/trackerapi"
	"github.com/autobrr/fertilizer/internal/trackers"
	"github.com/autobrr/fertilizer/internal/webhook"
)

// exitMisuse is returned by command handlers to request the argument-misuse
// exit code.
var exitMisuse = errors.New("argument misuse")

func exitCodeFor(err error) int {
	if errors.Is(err, exitMisuse) {
		return 2
	}
	return 1
}

type rootFlags struct {
	inputDir   string
	inputFile  string
	outputDir  string
	server     bool
	verbose    bool
	configFile string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "fertilizer",
		Short:         "Cross-seed metafiles between sibling private trackers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.inputDir, "input-directory", "i", "", "directory to scan for .torrent files")
	cmd.Flags().StringVarP(&flags.inputFile, "input-file", "f", "", "single .torrent file to process")
	cmd.Flags().StringVarP(&flags.outputDir, "output-directory", "o", "", "directory new metafiles are written to (required)")
	cmd.Flags().BoolVarP(&flags.server, "server", "s", false, "run the webhook server instead of scanning once")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "path to a JSON config file")

	return cmd
}

func runRoot(ctx context.Context, flags *rootFlags) error {
	if flags.verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := validateFlags(flags); err != nil {
		return fmt.Errorf("%w: %v", exitMisuse, err)
	}

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return fmt.Errorf("%w: %v", exitMisuse, err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, inj, err := buildPipeline(ctx, cfg, flags.outputDir)
	if err != nil {
		return err
	}

	if flags.server {
		return runServer(ctx, cfg, generator, flags.inputDir)
	}

	if flags.inputFile != "" {
		return runSingleFile(ctx, generator, inj, flags)
	}
	return runScan(ctx, generator, inj, flags)
}

func validateFlags(flags *rootFlags) error {
	if flags.outputDir == "" {
		return fmt.Errorf("an output directory (-o) is required")
	}
	if flags.server && flags.inputDir == "" {
		return fmt.Errorf("server mode (-s) requires an input directory (-i)")
	}
	if flags.inputDir == "" && flags.inputFile == "" && !flags.server {
		return fmt.Errorf("one of -i, -f, or -s must be given")
	}
	if flags.inputDir != "" && flags.inputFile != "" {
		return fmt.Errorf("-i and -f are mutually exclusive")
	}
	return nil
}

func buildPipeline(ctx context.Context, cfg *config.Config, outputDir string) (*crossseed.Generator, *injector.Injector, error) {
	generator := &crossseed.Generator{
		OutputDir: outputDir,
		Clients: map[string]*trackerapi.Client{
			trackers.RED.ShortName: trackerapi.NewClient(trackers.RED, cfg.AKey, 0),
			trackers.OPS.ShortName: trackerapi.NewClient(trackers.OPS, "token "+cfg.BKey, 0),
		},
	}

	if !cfg.InjectTorrents {
		return generator, nil, nil
	}

	client, err := buildInjectorClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", exitMisuse, err)
	}
	if err := client.Setup(ctx); err != nil {
		return nil, nil, err
	}

	return generator, &injector.Injector{Client: client, StageRoot: cfg.InjectionLinkDirectory}, nil
}

func buildInjectorClient(cfg *config.Config) (injector.Client, error) {
	switch {
	case cfg.DelugeRPCURL != "":
		return injector.NewDelugeClient(cfg.DelugeRPCURL), nil
	case cfg.QbittorrentURL != "":
		return injector.NewQbittorrentClient(cfg.QbittorrentURL), nil
	case cfg.TransmissionRPCURL != "":
		return injector.NewTransmissionClient(cfg.TransmissionRPCURL), nil
	default:
		return nil, fmt.Errorf("inject_torrents is enabled but no torrent client URL is configured")
	}
}

func runServer(ctx context.Context, cfg *config.Config, generator *crossseed.Generator, inputDir string) error {
	srv := webhook.NewServer(generator, inputDir)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.Port).Msg("listening for webhook requests")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down")
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runSingleFile(ctx context.Context, generator *crossseed.Generator, inj *injector.Injector, flags *rootFlags) error {
	if err := os.MkdirAll(generator.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory %s: %w", generator.OutputDir, err)
	}
	outputHashes, err := scanner.BuildOutputCache(generator.OutputDir)
	if err != nil {
		return err
	}

	outcome, err := generator.Generate(ctx, flags.inputFile, nil, outputHashes)
	if err != nil {
		log.Error().Err(err).Str("torrent", flags.inputFile).Msg("failed to generate sibling metafile")
		return err
	}
	if outcome == nil {
		return fmt.Errorf("generate sibling metafile: no outcome returned")
	}

	log.Info().Str("output", outcome.OutputPath).Msg("generated sibling metafile")

	if inj != nil {
		if _, err := inj.Inject(ctx, flags.inputFile, outcome.OutputPath, outcome.Tracker); err != nil {
			log.Error().Err(err).Msg("failed to inject torrent into client")
			return err
		}
	}

	return nil
}

func runScan(ctx context.Context, generator *crossseed.Generator, inj *injector.Injector, flags *rootFlags) error {
	s := &scanner.Scanner{
		Generator: generator,
		Injector:  inj,
		InputDir:  flags.inputDir,
		OutputDir: flags.outputDir,
	}

	report, err := s.Scan(ctx)
	fmt.Fprintln(os.Stdout, report.String())
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
