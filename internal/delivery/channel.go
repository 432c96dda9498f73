// Package delivery hands encoded frames to the game client by writing them to
// the clipboard and pasting them into the client's focused text field.
package delivery

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"trackerlink/internal/input"
	"trackerlink/internal/logging"
	"trackerlink/internal/protocol"
	"trackerlink/internal/telemetry"
)

// HeartbeatInterval is how often the heartbeat key is re-pressed while data
// is being sent. The client cannot reliably detect a key held down.
const HeartbeatInterval = 250 * time.Millisecond

// Keys used by the paste sequence.
const (
	HeartbeatKey = input.KeyF13
	ModifierKey  = input.KeyLControl
	SelectKey    = input.KeyA
	PasteKey     = input.KeyV
)

// FocusChecker reports whether the game client currently has input focus.
// Each call samples the foreground window again.
type FocusChecker interface {
	IsClientFocused() bool
}

// Options configures a Channel.
type Options struct {
	// AlwaysResend pastes every payload even when it equals the last one
	// delivered.
	AlwaysResend bool
	// HeartbeatInterval overrides the default heartbeat interval.
	HeartbeatInterval time.Duration
	// OnStateChange is called when data sending starts or stops.
	OnStateChange func(active bool)
}

// Channel is the clipboard and keystroke delivery state machine. It owns the
// keyboard and clipboard; nothing else should write to them.
type Channel struct {
	keyboard  input.Keyboard
	clipboard input.Clipboard
	focus     FocusChecker
	clk       clock.Clock
	logger    *zap.SugaredLogger
	opts      Options

	pushMu sync.Mutex

	mu                sync.RWMutex
	lastData          string
	lastRequestedData string
	heartbeatRunning  bool
	heartbeatStarted  time.Time
}

// NewChannel creates a delivery channel.
func NewChannel(keyboard input.Keyboard, clipboard input.Clipboard, focus FocusChecker, clk clock.Clock, logger *zap.SugaredLogger, opts Options) *Channel {
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = HeartbeatInterval
	}
	return &Channel{
		keyboard:  keyboard,
		clipboard: clipboard,
		focus:     focus,
		clk:       clk,
		logger:    logger,
		opts:      opts,
	}
}

// LastData returns the last payload that was pasted into the client.
func (c *Channel) LastData() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastData
}

// LastRequestedData returns the last payload passed to Push, delivered or not.
func (c *Channel) LastRequestedData() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastRequestedData
}

// Active reports whether the heartbeat is running.
func (c *Channel) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.heartbeatRunning
}

// PushBatch encodes batch and pushes it.
func (c *Channel) PushBatch(ctx context.Context, batch telemetry.Batch) bool {
	return c.Push(ctx, protocol.Encode(batch))
}

// Push sends data to the client. It returns true when the client has almost
// certainly received data; it is not an acknowledgement. The modifier key is
// released on every path that pressed it.
func (c *Channel) Push(ctx context.Context, data string) bool {
	c.pushMu.Lock()
	defer c.pushMu.Unlock()

	c.mu.Lock()
	if data == c.lastData && !c.opts.AlwaysResend {
		c.mu.Unlock()
		return true
	}
	c.lastRequestedData = data
	c.mu.Unlock()

	if !c.focus.IsClientFocused() {
		c.stopHeartbeat()
		return false
	}
	c.heartbeat()

	if err := c.clipboard.SetText(ctx, data); err != nil {
		c.logger.Warnw("failed to write clipboard", "error", err)
		return false
	}
	if !c.focus.IsClientFocused() {
		c.logger.Info("Stopping data sending to Roblox client.")
		return false
	}

	if err := c.keyboard.KeyDown(ModifierKey); err != nil {
		c.logger.Warnw("failed to press modifier key", "key", ModifierKey, "error", err)
		return false
	}
	defer func() {
		if err := c.keyboard.KeyUp(ModifierKey); err != nil {
			c.logger.Warnw("failed to release modifier key", "key", ModifierKey, "error", err)
		}
	}()

	if err := c.keyboard.KeyPress(SelectKey); err != nil {
		c.logger.Warnw("failed to send select key", "key", SelectKey, "error", err)
		return false
	}
	if !c.focus.IsClientFocused() {
		return false
	}
	if err := c.keyboard.KeyPress(PasteKey); err != nil {
		c.logger.Warnw("failed to send paste key", "key", PasteKey, "error", err)
		return false
	}

	c.mu.Lock()
	c.lastData = data
	c.mu.Unlock()
	return true
}

// heartbeat starts the heartbeat or re-presses the heartbeat key once the
// interval has elapsed.
func (c *Channel) heartbeat() {
	now := c.clk.Now()

	c.mu.Lock()
	started := !c.heartbeatRunning
	due := started || now.Sub(c.heartbeatStarted) >= c.opts.HeartbeatInterval
	if due {
		c.heartbeatRunning = true
		c.heartbeatStarted = now
	}
	c.mu.Unlock()

	if !due {
		return
	}
	if err := c.keyboard.KeyPress(HeartbeatKey); err != nil {
		c.logger.Debugw("failed to send heartbeat key", "key", HeartbeatKey, "error", err)
	}
	if started {
		c.logger.Info("Starting data sending to Roblox client.")
		c.notify(true)
		return
	}
	logging.Tracef(c.logger, "Performing data sending heartbeat to Roblox client.")
}

func (c *Channel) stopHeartbeat() {
	c.mu.Lock()
	wasRunning := c.heartbeatRunning
	c.heartbeatRunning = false
	c.mu.Unlock()

	if wasRunning {
		c.logger.Info("Stopping data sending to Roblox client.")
		c.notify(false)
	}
}

func (c *Channel) notify(active bool) {
	if c.opts.OnStateChange != nil {
		c.opts.OnStateChange(active)
	}
}
