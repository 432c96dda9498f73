// Package pipeline runs one acquire, encode and deliver cycle per tick.
package pipeline

import (
	"context"
	"sync"

	"trackerlink/internal/loop"
	"trackerlink/internal/protocol"
	"trackerlink/internal/telemetry"
)

// Source produces the tracker batch for one cycle.
type Source interface {
	GetInputs() telemetry.Batch
}

// Sink delivers an encoded frame and reports whether it reached the client.
type Sink interface {
	Push(ctx context.Context, data string) bool
}

// Pipeline wires a Source to a Sink. Its Step is meant to be driven by a
// loop.Loop, which guarantees that cycles never overlap.
type Pipeline struct {
	source   Source
	sink     Sink
	revision int
	profiler *loop.Profiler

	mu       sync.RWMutex
	current  string
	lastSent string
}

// New creates a pipeline encoding with the given wire revision.
func New(source Source, sink Sink, revision int, profiler *loop.Profiler) *Pipeline {
	return &Pipeline{
		source:   source,
		sink:     sink,
		revision: revision,
		profiler: profiler,
		current:  protocol.Encode(telemetry.Batch{APIVersion: revision}),
	}
}

// Step runs one cycle.
func (p *Pipeline) Step(ctx context.Context) error {
	done := p.profiler.Measure(loop.StatGetInputs)
	batch := p.source.GetInputs()
	done()

	batch.APIVersion = p.revision
	data := protocol.Encode(batch)

	p.mu.Lock()
	p.current = data
	p.mu.Unlock()

	done = p.profiler.Measure(loop.StatPushData)
	sent := p.sink.Push(ctx, data)
	done()

	if !sent {
		return nil
	}
	p.mu.Lock()
	changed := data != p.lastSent
	p.lastSent = data
	p.mu.Unlock()
	if changed {
		p.profiler.Count(loop.StatPushDataSent)
	}
	return nil
}

// Current returns the most recently encoded frame, delivered or not.
func (p *Pipeline) Current() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}
