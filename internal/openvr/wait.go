package openvr

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// WaitForSystem calls open until it succeeds. ErrRuntimeMissing is returned
// immediately; any other failure is retried every interval. A single warning is
// logged on the first failure.
func WaitForSystem[S any](ctx context.Context, clk clock.Clock, interval time.Duration, logger *zap.SugaredLogger, open func() (S, error)) (S, error) {
	var zero S
	waited := false
	for {
		sys, err := open()
		if err == nil {
			if waited {
				logger.Debug("headset detected")
			}
			return sys, nil
		}
		if errors.Is(err, ErrRuntimeMissing) {
			return zero, err
		}
		if !waited {
			logger.Warnw("SteamVR is not running or no headset was detected, waiting", "error", err)
			waited = true
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-clk.After(interval):
		}
	}
}
