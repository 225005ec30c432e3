package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/fullzer4/dusty/internal/config"
	"github.com/fullzer4/dusty/internal/engine"
	"github.com/fullzer4/dusty/internal/history"
	"github.com/fullzer4/dusty/internal/server"
)

const statsInterval = 10 * time.Minute

func main() {
	cmd := &cli.Command{
		Name:  "dusty",
		Usage: "Desktop notification daemon for the freedesktop spec",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("DUSTY_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
				Sources: cli.EnvVars("DUSTY_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "replace",
				Usage: "take over the bus name from a running daemon",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		if cmd.String("config") != "" {
			return err
		}
		// A broken config file must not keep the daemon down.
		fmt.Fprintf(os.Stderr, "config error, using defaults: %v\n", err)
		cfg = config.Default()
	}

	logger, err := setupLogger(cmd.String("log-level"), cfg.LogLevel)
	if err != nil {
		return err
	}
	log.Logger = logger

	ruleSet, ruleErrs := cfg.BuildRules()
	for _, rerr := range ruleErrs {
		logger.Warn().Err(rerr).Msg("skipping malformed rule")
	}
	logger.Info().Int("rules", ruleSet.Len()).Msg("policy loaded")

	var hist engine.History
	if cfg.History.Enabled {
		histStore, herr := history.Open(cfg.History.MaxEntries,
			logger.With().Str("component", "history").Logger())
		if herr != nil {
			logger.Warn().Err(herr).Msg("history disabled, could not open store")
		} else {
			hist = histStore
			defer histStore.Close()
		}
	}

	mgr := engine.New(engine.Options{
		History:    hist,
		Defaults:   cfg.Defaults(),
		Rules:      ruleSet,
		MaxVisible: cfg.MaxVisible,
		Logger:     logger.With().Str("component", "engine").Logger(),
	})
	mgr.SetDoNotDisturb(cfg.DoNotDisturb)

	srv, err := server.New(mgr, server.Options{
		Replace: cmd.Bool("replace"),
		Logger:  logger.With().Str("component", "dbus").Logger(),
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	logger.Info().Msg("dusty notification daemon is running")
	logger.Info().Msg("test it with: notify-send 'Test' 'This is a test notification'")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := mgr.Stats()
			logger.Info().
				Int("active", stats.Live).
				Uint32("next_id", stats.NextID).
				Msg("status")
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			return nil
		}
	}
}

func setupLogger(flagLevel, cfgLevel string) (zerolog.Logger, error) {
	level := flagLevel
	if level == "" {
		level = cfgLevel
	}
	if level == "" {
		level = "info"
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}
	return zerolog.New(out).Level(parsed).With().Timestamp().Logger(), nil
}
