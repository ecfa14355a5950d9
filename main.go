package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/audiohal/cmd"
	"github.com/smazurov/audiohal/internal/api"
	"github.com/smazurov/audiohal/internal/config"
	"github.com/smazurov/audiohal/internal/events"
	"github.com/smazurov/audiohal/internal/logging"
	"github.com/smazurov/audiohal/internal/metrics/collectors"
	"github.com/smazurov/audiohal/internal/metrics/exporters"
	"github.com/smazurov/audiohal/internal/pinning"
	"github.com/smazurov/audiohal/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"audiohal.toml"`

	// HAL settings
	Backend            string `help:"HAL backend (auto, coreaudio, sim)" default:"auto" toml:"hal.backend" env:"HAL_BACKEND"`
	ConvergenceTimeout string `help:"How long a reconfiguration waits for the device to confirm" default:"1s" toml:"hal.convergence_timeout" env:"HAL_CONVERGENCE_TIMEOUT"`
	PollInterval       string `help:"Receive timeout of each confirmation poll" default:"100ms" toml:"hal.poll_interval" env:"HAL_POLL_INTERVAL"`

	// Pinning settings
	Profile       string `help:"Device profile to enforce" default:"profile.toml" toml:"pin.profile" env:"PIN_PROFILE"`
	DriftInterval string `help:"How often pinned devices are checked for drift" default:"250ms" toml:"pin.drift_interval" env:"PIN_DRIFT_INTERVAL"`

	// Server settings
	Port         string `help:"API and metrics listen address, empty disables" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Metrics settings
	MetricsInterval string `help:"Device sample rate collection interval" default:"10s" toml:"metrics.interval" env:"METRICS_INTERVAL"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingOutput    string `help:"Console log destination (stderr, stdout)" default:"stderr" toml:"logging.output" env:"LOGGING_OUTPUT"`
	LoggingCoreaudio string `help:"Core Audio logging level" default:"info" toml:"logging.coreaudio" env:"LOGGING_COREAUDIO"`
	LoggingPinning   string `help:"Profile enforcer logging level" default:"info" toml:"logging.pinning" env:"LOGGING_PINNING"`
	LoggingMetrics   string `help:"Metrics logging level" default:"info" toml:"logging.metrics" env:"LOGGING_METRICS"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func parseDuration(logger *slog.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func main() {
	eventBus := events.New()
	session := cmd.NewSession(eventBus)
	var profilePath string

	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		// Initialize logging system
		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Output: opts.LoggingOutput,
			Modules: map[string]string{
				"coreaudio": opts.LoggingCoreaudio,
				"pinning":   opts.LoggingPinning,
				"metrics":   opts.LoggingMetrics,
				"api":       opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")

		session.Backend = opts.Backend
		session.ConvergenceTimeout = parseDuration(logger, "hal.convergence_timeout", opts.ConvergenceTimeout, time.Second)
		session.PollInterval = parseDuration(logger, "hal.poll_interval", opts.PollInterval, 100*time.Millisecond)
		profilePath = opts.Profile

		// Without a subcommand the profile is enforced until shutdown
		ctx, cancel := context.WithCancel(context.Background())
		stopped := make(chan struct{})

		hooks.OnStart(func() {
			defer close(stopped)
			logger.Info("Starting", "version", version.String(), "backend", session.Backend, "profile", opts.Profile)

			sys, err := session.System()
			if err != nil {
				logger.Error("Failed to open HAL", "error", err)
				os.Exit(1)
			}

			profile, err := config.LoadProfile(opts.Profile)
			if err != nil {
				logger.Warn("Failed to load profile, waiting for a valid one", "error", err)
			}

			enforcer := pinning.New(sys, profile,
				pinning.WithBus(eventBus),
				pinning.WithProfilePath(opts.Profile),
				pinning.WithDriftInterval(parseDuration(logger, "pin.drift_interval", opts.DriftInterval, pinning.DefaultDriftInterval)))

			var server *api.Server
			if opts.Port != "" {
				collector := collectors.NewDeviceCollector(sys,
					parseDuration(logger, "metrics.interval", opts.MetricsInterval, 10*time.Second))
				collector.Start(ctx)
				defer collector.Stop()

				server = api.NewServer(&api.Options{
					AuthUsername:      opts.AuthUsername,
					AuthPassword:      opts.AuthPassword,
					Backend:           session.Backend,
					System:            sys,
					Enforcer:          enforcer,
					EventBus:          eventBus,
					PrometheusHandler: exporters.HTTPHandler(),
				})
				go func() {
					if serveErr := server.Start(opts.Port); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
						logger.Error("Failed to start HTTP server", "error", serveErr)
						cancel()
					}
				}()
			}

			if runErr := enforcer.Run(ctx); runErr != nil {
				logger.Error("Profile enforcer stopped", "error", runErr)
			}

			if server != nil {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				if stopErr := server.Stop(shutdownCtx); stopErr != nil {
					logger.Error("Error stopping HTTP server", "error", stopErr)
				}
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			cancel()
			<-stopped
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Short = "Core Audio device inspection and sample rate pinning"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(
		cmd.CreateDevicesCmd(session),
		cmd.CreateFormatsCmd(session),
		cmd.CreateRatesCmd(session),
		cmd.CreateSetRateCmd(session),
		cmd.CreateSetFormatCmd(session),
		cmd.CreateWatchCmd(session),
		cmd.CreatePinCmd(session, func() string { return profilePath }),
		cmd.CreateSnapshotCmd(session),
		cmd.CreateVersionCmd(),
	)

	// Run the CLI
	cli.Run()

	if err := eventBus.Close(); err != nil {
		slog.Warn("Failed to close event bus", "error", err)
	}
}
