package loop

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"trackerlink/internal/logging"
)

const (
	// ReportInterval is how often a Summary is produced.
	ReportInterval = time.Second

	// SkippedWarnRatio is the share of skipped fires at which skipping is
	// reported as a warning. One skipped fire per interval is normal.
	SkippedWarnRatio = 0.4
)

// Summary is one reporting interval of delivery statistics. Averages are nil
// when the stage did not run during the interval.
type Summary struct {
	Time              time.Time `json:"time"`
	TicksCompleted    uint64    `json:"ticks_completed"`
	TicksSkipped      uint64    `json:"ticks_skipped"`
	DataSent          int       `json:"data_sent"`
	AverageTickMs     *float64  `json:"average_tick_ms,omitempty"`
	AverageGetInputMs *float64  `json:"average_get_inputs_ms,omitempty"`
	AveragePushMs     *float64  `json:"average_push_ms,omitempty"`
}

// Reporter drains a loop's stats and the shared profiler once per interval,
// logs them and hands the Summary to a single consumer.
type Reporter struct {
	target    *Loop
	profiler  *Profiler
	clk       clock.Clock
	logger    *zap.SugaredLogger
	onSummary func(Summary)

	loop *Loop
}

// NewReporter creates a Reporter for target. onSummary may be nil.
func NewReporter(target *Loop, profiler *Profiler, clk clock.Clock, logger *zap.SugaredLogger, onSummary func(Summary)) *Reporter {
	r := &Reporter{
		target:    target,
		profiler:  profiler,
		clk:       clk,
		logger:    logger,
		onSummary: onSummary,
	}
	r.loop = New("Reporter", ReportInterval, r.step, clk, nil, logger)
	return r
}

// Start begins reporting.
func (r *Reporter) Start(ctx context.Context) { r.loop.Start(ctx) }

// Stop stops reporting.
func (r *Reporter) Stop() { r.loop.Stop() }

// Report builds the current Summary, logs it, delivers it and resets the
// counters it was built from.
func (r *Reporter) Report() Summary {
	stats := r.target.Stats()
	s := Summary{
		Time:           r.clk.Now(),
		TicksCompleted: stats.TicksCompleted,
		TicksSkipped:   stats.TicksSkipped,
	}
	if sent, ok := r.profiler.Stat(StatPushDataSent); ok {
		s.DataSent = sent.TotalEvents
	}
	s.AverageTickMs = r.average(r.target.ProfilerStatName())
	s.AverageGetInputMs = r.average(StatGetInputs)
	s.AveragePushMs = r.average(StatPushData)

	r.log(s)
	if r.onSummary != nil {
		r.onSummary(s)
	}

	r.target.ResetStats()
	r.profiler.Reset()
	return s
}

func (r *Reporter) step(context.Context) error {
	r.Report()
	return nil
}

func (r *Reporter) average(name string) *float64 {
	stat, ok := r.profiler.Stat(name)
	if !ok {
		return nil
	}
	avg := stat.AverageMs
	return &avg
}

func (r *Reporter) log(s Summary) {
	if s.DataSent == 0 && s.TicksSkipped == 0 {
		return
	}
	r.logger.Debugf("client data send tick rate: %d completed, %d skipped", s.TicksCompleted, s.TicksSkipped)
	if s.TicksSkipped > 0 {
		msg := "Skipped %d ticks when sending data. This might happen when a previous data send took too long."
		if float64(s.TicksSkipped)/float64(s.TicksCompleted+s.TicksSkipped) >= SkippedWarnRatio {
			r.logger.Warnf(msg, s.TicksSkipped)
		} else {
			r.logger.Debugf(msg, s.TicksSkipped)
		}
	}

	if s.AverageTickMs != nil {
		logging.Tracef(r.logger, "Average tick duration: %.3f ms", *s.AverageTickMs)
	}
	if s.AverageGetInputMs != nil {
		logging.Tracef(r.logger, "Average OpenVR input read time: %.3f ms", *s.AverageGetInputMs)
	}
	if s.AveragePushMs != nil {
		logging.Tracef(r.logger, "Client data send duration: %.3f ms", *s.AveragePushMs)
	}
}
