package loop

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Stage names recorded by the delivery pipeline.
const (
	StatGetInputs    = "OpenVRGetInputs"
	StatPushData     = "PushTrackerData"
	StatPushDataSent = "PushTrackerDataSentTotal"
)

// Stat is a running average of one named stage.
type Stat struct {
	Name        string  `json:"name"`
	TotalEvents int     `json:"total_events"`
	AverageMs   float64 `json:"average_ms"`
}

// Profiler accumulates per-stage timings until Reset. It is shared between
// the loop being measured and the reporter that drains it.
type Profiler struct {
	mu    sync.Mutex
	clk   clock.Clock
	stats map[string]*Stat
}

// NewProfiler creates an empty profiler.
func NewProfiler(clk clock.Clock) *Profiler {
	return &Profiler{clk: clk, stats: make(map[string]*Stat)}
}

// Add folds one event of duration d into the named stat.
func (p *Profiler) Add(name string, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[name]
	if !ok {
		s = &Stat{Name: name}
		p.stats[name] = s
	}
	ms := float64(d) / float64(time.Millisecond)
	s.AverageMs = (s.AverageMs*float64(s.TotalEvents) + ms) / float64(s.TotalEvents+1)
	s.TotalEvents++
}

// Count records an event without a duration.
func (p *Profiler) Count(name string) {
	p.Add(name, 0)
}

// Measure starts timing a stage. Call the returned function when it ends.
func (p *Profiler) Measure(name string) func() {
	start := p.clk.Now()
	return func() {
		p.Add(name, p.clk.Since(start))
	}
}

// Stat returns a copy of the named stat.
func (p *Profiler) Stat(name string) (Stat, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stats[name]
	if !ok {
		return Stat{}, false
	}
	return *s, true
}

// Reset drops every stat.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = make(map[string]*Stat)
}
