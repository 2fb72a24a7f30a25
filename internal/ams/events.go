package ams

import "sync"

// Event names delivered to the subscriber. Payloads are strings: gate index
// for the completion events, a result description for ERROR, empty otherwise.
const (
	EventStateChanged   = "STATE_CHANGED"
	EventLoadComplete   = "LOAD_COMPLETE"
	EventUnloadComplete = "UNLOAD_COMPLETE"
	EventToolChanged    = "TOOL_CHANGED"
	EventGateChanged    = "GATE_CHANGED"
	EventError          = "ERROR"
)

// EventFunc receives backend events. At most one is registered per backend;
// re-subscribing replaces the previous one. The backend invokes it with its
// lock released, so the callback may call straight back into the backend.
type EventFunc func(event, payload string)

// Recorder collects events in memory for tests.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

// RecordedEvent is one (event, payload) pair seen by a Recorder.
type RecordedEvent struct {
	Name    string
	Payload string
}

func NewRecorder() *Recorder { return &Recorder{} }

// Record is an EventFunc.
func (r *Recorder) Record(event, payload string) {
	r.mu.Lock()
	r.events = append(r.events, RecordedEvent{Name: event, Payload: payload})
	r.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events with the given name were recorded.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
