package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/jscyril/hsm/api"
	"github.com/jscyril/hsm/internal/audio"
	"github.com/jscyril/hsm/internal/config"
	"github.com/jscyril/hsm/internal/library"
	"github.com/jscyril/hsm/internal/lifecycle"
	"github.com/jscyril/hsm/internal/logging"
	"github.com/jscyril/hsm/internal/mpris"
	"github.com/jscyril/hsm/internal/player"
	"github.com/jscyril/hsm/internal/server"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(lifecycle.ExitCode(err))
	}
}

// engine is an api.Engine with its own goroutine
type engine interface {
	api.Engine
	Start(ctx context.Context)
}

func run() error {
	flags := pflag.NewFlagSet("hsm-server", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", config.GetConfigPath(), "config file")
	socketPath := flags.StringP("socket", "s", "", "control socket path (overrides config)")
	backend := flags.String("audio", "", "audio backend: speaker or null (overrides config)")
	logLevel := flags.String("log-level", "", "log level (overrides config)")
	noMPRIS := flags.Bool("no-mpris", false, "do not register on the session bus")
	showVersion := flags.BoolP("version", "v", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Println("hsm-server", version)
		return nil
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *backend != "" {
		cfg.AudioBackend = *backend
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *noMPRIS {
		cfg.EnableMPRIS = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.Info().Str("version", version).Str("config", *configPath).Msg("starting")

	signals, stopSignals := lifecycle.Notify()
	defer stopSignals()

	eng, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	coord := player.New(eng, player.Options{
		Volume:  cfg.DefaultVolume,
		Loop:    cfg.Loop(),
		Signals: signals,
		Logger:  logger,
	})
	lib := library.NewLibrary(cfg.ScanWorkers, logger)

	sock := server.NewSocketServer(cfg.SocketPath, version, coord, lib, logger)
	if err := sock.Start(); err != nil {
		return err
	}

	var bus *mpris.Server
	if cfg.EnableMPRIS {
		bus = mpris.New(cfg.MPRISName, coord, lib, logger)
		if err := bus.Start(); err != nil {
			logger.Warn().Err(err).Msg("MPRIS unavailable, continuing without it")
			bus = nil
		} else {
			defer bus.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	eng.Start(gctx)
	g.Go(func() error {
		// The coordinator decides when the process is done
		defer cancel()
		return coord.Run(gctx)
	})
	g.Go(func() error {
		return sock.Serve(gctx)
	})
	if bus != nil {
		g.Go(func() error {
			return bus.Run(gctx)
		})
	}

	err = g.Wait()
	logger.Info().Msg("server stopped")
	return err
}

func newEngine(cfg *config.Config, logger zerolog.Logger) (engine, error) {
	if strings.EqualFold(cfg.AudioBackend, config.BackendNull) {
		return audio.NewNullEngine(cfg.PositionInterval(), logger), nil
	}
	eng, err := audio.NewSpeakerEngine(cfg.SampleRate, cfg.PositionInterval(), cfg.DefaultVolume, logger)
	if err != nil {
		return nil, err
	}
	return eng, nil
}
