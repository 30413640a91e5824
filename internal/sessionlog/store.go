// Package sessionlog records session lifecycle events and emitted
// stimuli outside the core: the sequencer never writes here itself, the
// CLI wiring feeds the store from display updates and transitions.
package sessionlog

import "time"

// Event kinds recorded per session.
const (
	KindStart    = "start"
	KindStimulus = "stimulus"
	KindPause    = "pause"
	KindResume   = "resume"
	KindStop     = "stop"
)

// Entry is one recorded session event.
type Entry struct {
	Timestamp time.Time
	Kind      string
	Technique string
	ElapsedMs int64
	Stimuli   uint64
}

// Store abstracts session-event persistence. SQLiteStore is the real
// implementation; NopStore is used when logging is disabled.
type Store interface {
	Log(e Entry) error
	Entries(limit int) ([]Entry, error) // newest first, 0 = all
	Clear() error
	Close() error
	Path() string
}

// NopStore discards everything.
type NopStore struct{}

func (NopStore) Log(Entry) error              { return nil }
func (NopStore) Entries(int) ([]Entry, error) { return nil, nil }
func (NopStore) Clear() error                 { return nil }
func (NopStore) Close() error                 { return nil }
func (NopStore) Path() string                 { return "" }
