// trackerlink streams VR tracker poses into a focused Roblox client.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"trackerlink/internal/api"
	"trackerlink/internal/autostart"
	"trackerlink/internal/config"
	"trackerlink/internal/delivery"
	"trackerlink/internal/diagnostic"
	"trackerlink/internal/input"
	"trackerlink/internal/logging"
	"trackerlink/internal/loop"
	"trackerlink/internal/openvr"
	"trackerlink/internal/pipeline"
	"trackerlink/internal/plugin"
	"trackerlink/internal/steamvr"
	"trackerlink/internal/telemetry"
	"trackerlink/internal/tracker"
	"trackerlink/internal/transform"
	"trackerlink/internal/tray"
	"trackerlink/internal/updatecheck"
	"trackerlink/internal/window"
)

// Stamped with -ldflags "-X main.version=...".
var (
	version       = ""
	commit        = ""
	githubUser    = ""
	githubProject = ""
)

const openRetryInterval = time.Second

func main() {
	opts := newOptions()
	if err := opts.parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.showVersion {
		v := version
		if v == "" {
			v = "dev"
		}
		fmt.Printf("trackerlink version %s %s\n", v, commit)
		return
	}

	os.Exit(run(opts))
}

func run(opts *options) int {
	cfgMgr, err := config.NewManager(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize config: %v\n", err)
		return 1
	}
	if err := cfgMgr.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config %s: %v\n", cfgMgr.Path(), err)
		return 1
	}
	cfg := cfgMgr.Get()
	opts.apply(&cfg)
	if err := cfgMgr.Set(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid options: %v\n", err)
		return 1
	}
	cfg = cfgMgr.Get()

	logger := logging.New(logging.Options{Level: opts.level(), File: cfg.General.LogFile})
	defer logging.Sync(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.New()

	vr, err := openvr.WaitForSystem(ctx, clk, openRetryInterval, logger.Named("openvr"), openvr.Open)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 0
		}
		logger.Errorw("Failed to initialize OpenVR", "error", err)
		return 1
	}

	settingsPath := cfg.SteamVR.SettingsPath
	if settingsPath == "" {
		settingsPath = steamvr.DefaultPath()
	}
	settings := steamvr.NewSettings(settingsPath, cfg.ReloadInterval(), clk, logger.Named("steamvr"))

	resolver := tracker.NewResolver(vr, settings, logging.NewOnce(), logger.Named("tracker"))
	inputs := tracker.NewInputs(vr, resolver, newTransformer(cfg), telemetry.APIVersion)

	if opts.listDevices {
		if err := settings.Reload(); err != nil {
			logger.Debugw("SteamVR settings not loaded", "path", settingsPath, "error", err)
		}
		err := diagnostic.WriteDevices(os.Stdout, inputs.ListDevices(), diagnostic.Options{Masked: opts.masked})
		if err = multierr.Append(err, vr.Close()); err != nil {
			logger.Errorw("Failed to list devices", "error", err)
			return 1
		}
		return 0
	}

	settings.Start(ctx)

	svc := newService(cfg, opts, clk, inputs, logger)
	svc.start(ctx)

	logger.Info("Started trackerlink. Make sure a Roblox client or Roblox Studio window is focused.")

	if svc.tray != nil {
		go func() {
			<-ctx.Done()
			svc.tray.Stop()
		}()
		svc.tray.Run()
		stop()
	} else {
		<-ctx.Done()
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = svc.shutdown(shutdownCtx)
	err = multierr.Append(err, settings.Close())
	err = multierr.Append(err, vr.Close())
	if err != nil {
		logger.Warnw("Shutdown finished with errors", "error", err)
	}
	return 0
}

// newTransformer builds the transformer for a validated config, whose mode
// has already been normalised by config.Validate.
func newTransformer(cfg config.Config) *transform.Transformer {
	return transform.New(transform.Mode(cfg.Output.Mode))
}

// service owns the running delivery stack.
type service struct {
	cfg    config.Config
	logger *zap.SugaredLogger

	channel  *delivery.Channel
	pipeline *pipeline.Pipeline
	output   *loop.Loop
	reporter *loop.Reporter
	server   *api.Server
	tray     *tray.Tray
	statusID int
}

func newService(cfg config.Config, opts *options, clk clock.Clock, inputs *tracker.Inputs, logger *zap.SugaredLogger) *service {
	s := &service{cfg: cfg, logger: logger}

	companion := window.NewCompanion(clk, window.DefaultCompanionTimeout)
	focus := window.NewFocus(window.NewTitleSource(), companion)

	s.channel = delivery.NewChannel(
		input.NewKeyboard(),
		input.NewClipboard(),
		focus,
		clk,
		logger.Named("delivery"),
		delivery.Options{
			AlwaysResend:      cfg.Output.AlwaysResend,
			HeartbeatInterval: cfg.HeartbeatInterval(),
			OnStateChange:     s.onDeliveryState,
		},
	)

	profiler := loop.NewProfiler(clk)
	s.pipeline = pipeline.New(inputs, s.channel, cfg.Output.WireRevision, profiler)
	s.output = loop.New("RobloxOutput", cfg.TickInterval(), s.pipeline.Step, clk, profiler, logger.Named("output"))

	if cfg.Server.Enabled {
		s.server = api.NewServer(s.pipeline, companion, logger.Named("api"), api.Options{LogRequests: opts.debugHTTP})
	}
	s.reporter = loop.NewReporter(s.output, profiler, clk, logger.Named("stats"), s.onSummary)

	if cfg.General.Tray {
		s.tray = tray.New("trackerlink", nil)
		s.statusID = s.tray.AddLabel(statusText(false))
		s.tray.AddSeparator()
		s.addAutostartItem()
		s.tray.AddMenuItem("Quit", s.tray.Stop)
	}
	return s
}

func (s *service) addAutostartItem() {
	entry, err := autostart.New()
	if err != nil {
		s.logger.Debugw("Start on login is unavailable", "error", err)
		return
	}
	var id int
	id = s.tray.AddCheckbox("Start on login", entry.IsEnabled(), func() {
		enabled, err := entry.Toggle()
		if err != nil {
			s.logger.Warnw("Failed to change start on login", "error", err)
			enabled = entry.IsEnabled()
		}
		s.tray.SetItemChecked(id, enabled)
	})
}

func (s *service) start(ctx context.Context) {
	if s.server != nil {
		// Start logs its own failures.
		go func() { _ = s.server.Start(s.cfg.Server.Port) }()
	}

	if s.cfg.General.InstallPlugin {
		installer, err := plugin.NewInstaller(s.logger.Named("plugin"))
		if err == nil {
			err = installer.Install()
		}
		if err != nil {
			s.logger.Warnw("Failed to install the companion plugin", "error", err)
		}
	}

	if s.cfg.General.CheckForUpdates {
		go func() {
			client := updatecheck.NewClient(s.logger.Named("update"))
			project := updatecheck.Project{
				Version:       version,
				Commit:        commit,
				GitHubUser:    githubUser,
				GitHubProject: githubProject,
			}
			if _, err := client.Check(ctx, project); err != nil {
				s.logger.Debugw("Update check failed", "error", err)
			}
		}()
	}

	s.output.Start(ctx)
	s.reporter.Start(ctx)
}

func (s *service) shutdown(ctx context.Context) error {
	s.reporter.Stop()
	s.output.Stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *service) onDeliveryState(active bool) {
	if s.server != nil {
		s.server.PublishDelivery(active)
	}
	if s.tray != nil {
		s.tray.SetActive(active)
		s.tray.SetItemTitle(s.statusID, statusText(active))
	}
}

func (s *service) onSummary(summary loop.Summary) {
	if s.server != nil {
		s.server.PublishSummary(summary)
	}
}

func statusText(active bool) string {
	if active {
		return "Sending data to Roblox"
	}
	return "Waiting for a focused Roblox window"
}
