package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Sink receives committed events in sequence order. Publish must not
// block for long; it runs while the token's write lock is held.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

// Publish calls f(ev).
func (f SinkFunc) Publish(ev Event) { f(ev) }

// Multi fans events out to several sinks in order.
type Multi []Sink

// Publish forwards ev to every non-nil sink.
func (m Multi) Publish(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(ev)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish appends ev.
func (r *Recorder) Publish(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named returns the recorded events with the given name.
func (r *Recorder) Named(name string) []Event {
	var out []Event
	for _, ev := range r.Events() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// Reset clears the recorder.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// LogSink writes each event to a logger at info level.
type LogSink struct {
	Logger zerolog.Logger
}

// Publish logs ev.
func (s LogSink) Publish(ev Event) {
	e := s.Logger.Info().
		Uint64("seq", ev.Seq).
		Str("event", ev.Name)
	if ev.From != nil {
		e = e.Str("from", ev.From.String())
	}
	if ev.To != nil {
		e = e.Str("to", ev.To.String())
	}
	if ev.Name == Transfer || ev.Name == Approval {
		e = e.Uint64("amount", ev.Amount)
	}
	if ev.Account != nil {
		e = e.Str("account", ev.Account.String())
	}
	if ev.OldValue != "" || ev.NewValue != "" {
		e = e.Str("old", ev.OldValue).Str("new", ev.NewValue)
	}
	e.Msg("Event")
}
