// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// obsmenud keeps a connection to OBS Studio through obs-websocket,
// publishes scene, source and output menus, and serves them on a
// control socket for the obsmenu CLI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/obsmenu/lib/config"
	"github.com/bureau-foundation/obsmenu/lib/host"
	"github.com/bureau-foundation/obsmenu/lib/obs"
	"github.com/bureau-foundation/obsmenu/lib/obsws"
	"github.com/bureau-foundation/obsmenu/lib/process"
	"github.com/bureau-foundation/obsmenu/lib/service"
	"github.com/bureau-foundation/obsmenu/lib/throttle"
	"github.com/bureau-foundation/obsmenu/lib/version"
)

// envDebug forces debug logging when set to a non-empty value.
const envDebug = "OBSMENU_DEBUG"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		process.Fatal(err)
	}
}

type daemonFlags struct {
	configPath  string
	logLevel    string
	socketPath  string
	showVersion bool
}

func parseFlags(args []string) (daemonFlags, error) {
	var flags daemonFlags
	flagSet := pflag.NewFlagSet("obsmenud", pflag.ContinueOnError)
	flagSet.StringVar(&flags.configPath, "config", "", "config file (default: $"+config.EnvConfig+", else built-in defaults)")
	flagSet.StringVar(&flags.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	flagSet.StringVar(&flags.socketPath, "socket", "", "override control.socket_path")
	flagSet.BoolVar(&flags.showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(args); err != nil {
		return daemonFlags{}, err
	}
	if flagSet.NArg() > 0 {
		return daemonFlags{}, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	return flags, nil
}

// loadConfig resolves the config file (--config, then OBSMENU_CONFIG,
// then none), applies flag overrides and validates the result.
func loadConfig(flags daemonFlags) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case flags.configPath != "":
		loaded, err := config.LoadFile(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	case os.Getenv(config.EnvConfig) != "":
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	default:
		cfg = config.Default()
	}

	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if os.Getenv(envDebug) != "" {
		cfg.Log.Level = "debug"
	}
	if flags.socketPath != "" {
		cfg.Control.SocketPath = flags.socketPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the daemon logger. Auto format picks text when w is
// a terminal.
func newLogger(logConfig config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := logConfig.SlogLevel()
	if err != nil {
		return nil, err
	}
	options := &slog.HandlerOptions{Level: level}

	format := logConfig.Format
	if format == config.FormatAuto {
		format = config.FormatJSON
		if file, ok := w.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			format = config.FormatText
		}
	}
	if format == config.FormatText {
		return slog.New(slog.NewTextHandler(w, options)), nil
	}
	return slog.New(slog.NewJSONHandler(w, options)), nil
}

func clientOptions(cfg *config.Config) obs.Options {
	return obs.Options{
		URL:                cfg.OBS.URL,
		Password:           cfg.OBS.Password,
		ConnectTimeout:     cfg.OBS.ConnectTimeout.Std(),
		RetryInterval:      cfg.OBS.RetryInterval.Std(),
		ReadTimeout:        cfg.OBS.ReadTimeout.Std(),
		HandshakeTimeout:   cfg.OBS.HandshakeTimeout.Std(),
		StatusPollInterval: cfg.OBS.StatusPollInterval.Std(),
		EventSubscriptions: obsws.EventSubscription(cfg.OBS.EventSubscriptions),
		Throttle: throttle.Options{
			Interval: cfg.Notifications.ThrottleInterval.Std(),
			PerClass: cfg.Notifications.PerClass,
		},
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}
	if flags.showVersion {
		fmt.Fprintf(stdout, "obsmenud %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	daemon := host.New(host.Options{
		Logger:            logger,
		NotificationLimit: cfg.Notifications.Retain,
	})

	actor := service.NewActor(obs.ServiceName, service.ActorOptions{DisplayName: obs.DisplayName})
	client := obs.New(actor, clientOptions(cfg))
	if err := daemon.Start(ctx, actor, client); err != nil {
		return fmt.Errorf("starting %s: %w", obs.ServiceName, err)
	}

	server := service.NewSocketServer(cfg.Control.SocketPath, logger)
	daemon.RegisterHandlers(server)

	logger.Info("obsmenud starting",
		"version", version.Info(),
		"obs_url", cfg.OBS.URL,
		"socket", cfg.Control.SocketPath,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A socket that cannot listen stops the daemon.
	serveErr := make(chan error, 1)
	go func() {
		err := server.Serve(ctx)
		if err != nil {
			cancel()
		}
		serveErr <- err
	}()

	if err := daemon.Run(ctx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("control socket: %w", err)
	}
	logger.Info("obsmenud stopped")
	return nil
}
