// Package loop runs fixed-interval work without ever overlapping two cycles.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// MinInterval is the shortest interval the Windows timer resolution honours.
const MinInterval = 15 * time.Millisecond

// Step is one cycle of work. A returned error or a panic is logged and the
// cycle still counts as completed.
type Step func(ctx context.Context) error

// Stats are counters accumulated since the last ResetStats.
type Stats struct {
	TicksCompleted     uint64  `json:"ticks_completed"`
	TicksSkipped       uint64  `json:"ticks_skipped"`
	AverageCycleTimeMs float32 `json:"average_cycle_time_ms"`
}

// Loop fires Step every interval. A fire that lands while the previous cycle
// is still running is dropped and counted as skipped; fires are never queued.
type Loop struct {
	name     string
	interval time.Duration
	step     Step
	clk      clock.Clock
	profiler *Profiler
	logger   *zap.SugaredLogger

	mu          sync.Mutex
	ticking     bool
	completed   uint64
	skipped     uint64
	timedCycles uint64
	cycleTime   time.Duration

	runMu  sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a stopped loop. Intervals below MinInterval are raised to it.
// profiler may be nil.
func New(name string, interval time.Duration, step Step, clk clock.Clock, profiler *Profiler, logger *zap.SugaredLogger) *Loop {
	if interval < MinInterval {
		logger.Warnf("%s interval %s is below %s, using %s", name, interval, MinInterval, MinInterval)
		interval = MinInterval
	}
	return &Loop{
		name:     name,
		interval: interval,
		step:     step,
		clk:      clk,
		profiler: profiler,
		logger:   logger,
	}
}

// Name returns the loop name.
func (l *Loop) Name() string {
	return l.name
}

// Interval returns the effective interval.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// ProfilerStatName is the profiler stat that receives cycle durations.
func (l *Loop) ProfilerStatName() string {
	return l.name + "_TickDuration"
}

// Tick runs one cycle unless another is in progress.
func (l *Loop) Tick(ctx context.Context) {
	l.mu.Lock()
	if l.ticking {
		l.skipped++
		l.mu.Unlock()
		return
	}
	l.ticking = true
	l.mu.Unlock()

	start := l.clk.Now()
	err := l.runStep(ctx)
	elapsed := l.clk.Since(start)

	if err != nil {
		l.logger.Errorw("tick failed", "loop", l.name, "error", err)
	} else if l.profiler != nil {
		l.profiler.Add(l.ProfilerStatName(), elapsed)
	}

	l.mu.Lock()
	l.completed++
	if err == nil {
		l.timedCycles++
		l.cycleTime += elapsed
	}
	l.ticking = false
	l.mu.Unlock()
}

func (l *Loop) runStep(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return l.step(ctx)
}

// Start fires the loop every interval until ctx is cancelled or Stop is
// called. Each fire runs in its own goroutine so a slow cycle is observed as
// skipped fires rather than a drifting timer.
func (l *Loop) Start(ctx context.Context) {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.cancel != nil {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)

	ticker := l.clk.Ticker(l.interval)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.wg.Add(1)
				go func() {
					defer l.wg.Done()
					l.Tick(ctx)
				}()
			}
		}
	}()
}

// Stop stops the timer and waits for an in-flight cycle to return.
func (l *Loop) Stop() {
	l.runMu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.runMu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	l.wg.Wait()
}

// Stats returns the counters since the last reset.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := Stats{TicksCompleted: l.completed, TicksSkipped: l.skipped}
	if l.timedCycles > 0 {
		s.AverageCycleTimeMs = float32(float64(l.cycleTime) / float64(l.timedCycles) / float64(time.Millisecond))
	}
	return s
}

// ResetStats zeroes the counters without touching the timer or a running cycle.
func (l *Loop) ResetStats() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.completed = 0
	l.skipped = 0
	l.timedCycles = 0
	l.cycleTime = 0
}
