package main

import (
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"trackerlink/internal/config"
	"trackerlink/internal/logging"
)

// options holds the command line. Only flags that were set override the
// config document.
type options struct {
	flags *pflag.FlagSet

	debug        bool
	trace        bool
	debugHTTP    bool
	configPath   string
	mode         string
	wireRevision int
	alwaysResend bool
	noTray       bool
	listDevices  bool
	masked       bool
	showVersion  bool
}

func newOptions() *options {
	o := &options{flags: pflag.NewFlagSet("trackerlink", pflag.ContinueOnError)}
	fs := o.flags
	fs.BoolVar(&o.debug, "debug", false, "Enable debug logging")
	fs.BoolVar(&o.trace, "trace", false, "Enable trace and debug logging")
	fs.BoolVar(&o.debugHTTP, "debug-http", false, "Log every request to the local status server")
	fs.StringVar(&o.configPath, "config", "", "Path to the config file")
	fs.StringVar(&o.mode, "mode", "", "Coordinate mode: world or headset")
	fs.IntVar(&o.wireRevision, "wire-revision", 0, "Wire format revision (1, 2 or 3)")
	fs.BoolVar(&o.alwaysResend, "always-resend", false, "Paste every frame even when it did not change")
	fs.BoolVar(&o.noTray, "no-tray", false, "Run without a tray icon")
	fs.BoolVar(&o.listDevices, "list-devices", false, "List connected devices and exit")
	fs.BoolVar(&o.masked, "masked", false, "Mask identifying properties in --list-devices")
	fs.BoolVarP(&o.showVersion, "version", "v", false, "Show version")
	return o
}

func (o *options) parse(args []string) error {
	return o.flags.Parse(args)
}

// level returns the minimum log level for the selected verbosity.
func (o *options) level() zapcore.Level {
	switch {
	case o.trace:
		return logging.TraceLevel
	case o.debug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// apply overrides cfg with the flags given on the command line.
func (o *options) apply(cfg *config.Config) {
	if o.flags.Changed("mode") {
		cfg.Output.Mode = o.mode
	}
	if o.flags.Changed("wire-revision") {
		cfg.Output.WireRevision = o.wireRevision
	}
	if o.flags.Changed("always-resend") {
		cfg.Output.AlwaysResend = o.alwaysResend
	}
	if o.noTray {
		cfg.General.Tray = false
	}
}
