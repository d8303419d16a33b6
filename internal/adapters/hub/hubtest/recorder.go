// Package hubtest provides a recording connection for tests that drive a
// hub without a network.
package hubtest

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/dkeye/pulse/internal/core"
)

var ErrClosed = errors.New("recorder closed")

// Recorder is a core.SignalConnection that keeps every frame it accepts.
type Recorder struct {
	mu     sync.Mutex
	frames []core.Envelope
	closed bool
	// Full makes TrySend refuse frames as a saturated queue would.
	Full bool
}

func (r *Recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.Full {
		return errors.New("backpressure")
	}
	var env core.Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	r.frames = append(r.frames, env)
	return nil
}

func (r *Recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *Recorder) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Frames returns a copy of everything received so far.
func (r *Recorder) Frames() []core.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.Envelope, len(r.frames))
	copy(out, r.frames)
	return out
}

// Of returns the frames of one event type, in arrival order.
func (r *Recorder) Of(event core.Event) []core.Envelope {
	var out []core.Envelope
	for _, f := range r.Frames() {
		if f.Type == event {
			out = append(out, f)
		}
	}
	return out
}

// Count reports how many frames of event arrived.
func (r *Recorder) Count(event core.Event) int {
	return len(r.Of(event))
}

// Reset forgets received frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}
