package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"trackerlink/internal/config"
	"trackerlink/internal/logging"
	"trackerlink/internal/transform"
)

func TestOptionsLevel(t *testing.T) {
	tests := []struct {
		args []string
		want zapcore.Level
	}{
		{nil, zapcore.InfoLevel},
		{[]string{"--debug"}, zapcore.DebugLevel},
		{[]string{"--trace"}, logging.TraceLevel},
		{[]string{"--debug", "--trace"}, logging.TraceLevel},
	}
	for _, tt := range tests {
		opts := newOptions()
		require.NoError(t, opts.parse(tt.args))
		assert.Equal(t, tt.want, opts.level(), "%v", tt.args)
	}
}

func TestOptionsApplyOnlyChangedFlags(t *testing.T) {
	opts := newOptions()
	require.NoError(t, opts.parse(nil))

	cfg := config.DefaultConfig()
	cfg.Output.Mode = "headset"
	cfg.Output.WireRevision = 3
	cfg.Output.AlwaysResend = true
	opts.apply(cfg)

	assert.Equal(t, "headset", cfg.Output.Mode)
	assert.Equal(t, 3, cfg.Output.WireRevision)
	assert.True(t, cfg.Output.AlwaysResend)
	assert.True(t, cfg.General.Tray)
}

func TestOptionsApplyOverrides(t *testing.T) {
	opts := newOptions()
	require.NoError(t, opts.parse([]string{
		"--mode", "headset",
		"--wire-revision", "1",
		"--always-resend=false",
		"--no-tray",
	}))

	cfg := config.DefaultConfig()
	cfg.Output.AlwaysResend = true
	opts.apply(cfg)

	assert.Equal(t, "headset", cfg.Output.Mode)
	assert.Equal(t, 1, cfg.Output.WireRevision)
	assert.False(t, cfg.Output.AlwaysResend)
	assert.False(t, cfg.General.Tray)
	require.NoError(t, cfg.Validate())
}

func TestOptionsListDevices(t *testing.T) {
	opts := newOptions()
	require.NoError(t, opts.parse([]string{"--list-devices", "--masked", "--config", "x.json"}))
	assert.True(t, opts.listDevices)
	assert.True(t, opts.masked)
	assert.Equal(t, "x.json", opts.configPath)
}

func TestOptionsUnknownFlag(t *testing.T) {
	opts := newOptions()
	opts.flags.SetOutput(io.Discard)
	assert.Error(t, opts.parse([]string{"--nope"}))
}

func TestNewTransformerUsesValidatedMode(t *testing.T) {
	opts := newOptions()
	require.NoError(t, opts.parse([]string{"--mode", "headset"}))

	cfg := config.DefaultConfig()
	opts.apply(cfg)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, transform.ModeHeadset, newTransformer(*cfg).Mode())

	assert.Equal(t, transform.ModeWorld, newTransformer(*config.DefaultConfig()).Mode())
}

func TestStatusText(t *testing.T) {
	assert.NotEqual(t, statusText(true), statusText(false))
}
