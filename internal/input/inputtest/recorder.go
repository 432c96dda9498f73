// Package inputtest provides a recording keyboard and clipboard for tests.
package inputtest

import (
	"context"
	"sync"

	"trackerlink/internal/input"
)

// Recorder implements input.Keyboard and input.Clipboard and records every
// call in order.
type Recorder struct {
	mu     sync.Mutex
	events []input.Event
	text   string

	// ClipboardErr, when set, is returned by SetText and nothing is recorded.
	ClipboardErr error
	// OnEvent, when set, runs after each recorded event.
	OnEvent func(input.Event)
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(e input.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	hook := r.OnEvent
	r.mu.Unlock()
	if hook != nil {
		hook(e)
	}
}

func (r *Recorder) KeyDown(key input.Key) error {
	r.record(input.Event{Type: input.EventKeyDown, Key: key})
	return nil
}

func (r *Recorder) KeyUp(key input.Key) error {
	r.record(input.Event{Type: input.EventKeyUp, Key: key})
	return nil
}

func (r *Recorder) KeyPress(key input.Key) error {
	r.record(input.Event{Type: input.EventKeyPress, Key: key})
	return nil
}

func (r *Recorder) SetText(ctx context.Context, text string) error {
	r.mu.Lock()
	err := r.ClipboardErr
	if err == nil {
		r.text = text
	}
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.record(input.Event{Type: input.EventClipboard, Text: text})
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []input.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]input.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Text returns the last clipboard contents.
func (r *Recorder) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.text
}

// Reset drops the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// KeyDown is shorthand for building an expected event.
func KeyDown(key input.Key) input.Event { return input.Event{Type: input.EventKeyDown, Key: key} }

// KeyUp is shorthand for building an expected event.
func KeyUp(key input.Key) input.Event { return input.Event{Type: input.EventKeyUp, Key: key} }

// KeyPress is shorthand for building an expected event.
func KeyPress(key input.Key) input.Event { return input.Event{Type: input.EventKeyPress, Key: key} }

// Clipboard is shorthand for building an expected event.
func Clipboard(text string) input.Event { return input.Event{Type: input.EventClipboard, Text: text} }
