// Package windowtest provides scripted foreground window titles for tests.
package windowtest

import "sync"

// Titles hands out queued titles one per call, then reports no window.
type Titles struct {
	mu    sync.Mutex
	queue []string
	calls int
}

// NewTitles returns a queue preloaded with titles.
func NewTitles(titles ...string) *Titles {
	return &Titles{queue: titles}
}

// Push appends titles to the queue.
func (t *Titles) Push(titles ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, titles...)
}

// Calls returns how many titles were requested.
func (t *Titles) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Remaining returns how many queued titles were not consumed.
func (t *Titles) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// ActiveWindowTitle implements window.TitleSource.
func (t *Titles) ActiveWindowTitle() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls++
	if len(t.queue) == 0 {
		return "", false
	}
	title := t.queue[0]
	t.queue = t.queue[1:]
	return title, true
}
