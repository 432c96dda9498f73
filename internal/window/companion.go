package window

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultCompanionTimeout is how long a companion heartbeat keeps the plugin
// counted as connected.
const DefaultCompanionTimeout = time.Second

// Companion tracks heartbeats from the Studio companion plugin, which reads
// frames over HTTP instead of through the clipboard.
type Companion struct {
	clk     clock.Clock
	timeout time.Duration

	mu   sync.Mutex
	last time.Time
	seen bool
}

// NewCompanion creates a Companion that has never seen a heartbeat.
func NewCompanion(clk clock.Clock, timeout time.Duration) *Companion {
	if timeout <= 0 {
		timeout = DefaultCompanionTimeout
	}
	return &Companion{clk: clk, timeout: timeout}
}

// Heartbeat records that the plugin just polled.
func (c *Companion) Heartbeat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = c.clk.Now()
	c.seen = true
}

// Connected reports whether the last heartbeat is within the timeout.
func (c *Companion) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen && c.clk.Since(c.last) <= c.timeout
}
