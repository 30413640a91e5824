// Package params holds the externally-owned therapy parameters and their
// JSON configuration surface. The sequencer re-reads a snapshot before
// every tick, so edits here take effect on the next stimulus.
package params

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sonitus/sonitus/internal/paths"
	"github.com/sonitus/sonitus/internal/synth"
)

// Defaults for a fresh session.
const (
	DefaultFrequencyHz = 440.0
	DefaultDuration    = 2.0
	DefaultInterval    = 1.0
	DefaultVolume      = 0.8
	DefaultLowpassHz   = 8000.0
	DefaultHighpassHz  = 80.0
)

// Parameters is the value object the sequencer reads each tick. The
// highpass/lowpass relation is deliberately not enforced: an inverted
// band must still pass through both filters without error.
type Parameters struct {
	StimulusFrequencyHz float64         `json:"frequency_hz"`
	DurationSeconds     float64         `json:"duration_seconds"`
	IntervalSeconds     float64         `json:"interval_seconds"`
	Technique           synth.Technique `json:"-"`
	SpokenText          string          `json:"spoken_text,omitempty"`
	PanPosition         float64         `json:"pan"`
	MasterVolume        float64         `json:"volume"`
	LowpassCutoffHz     float64         `json:"lowpass_hz"`
	HighpassCutoffHz    float64         `json:"highpass_hz"`
}

// Defaults returns a pure-tone parameter set suitable for a first run.
func Defaults() Parameters {
	return Parameters{
		StimulusFrequencyHz: DefaultFrequencyHz,
		DurationSeconds:     DefaultDuration,
		IntervalSeconds:     DefaultInterval,
		Technique:           synth.PureTone,
		PanPosition:         0,
		MasterVolume:        DefaultVolume,
		LowpassCutoffHz:     DefaultLowpassHz,
		HighpassCutoffHz:    DefaultHighpassHz,
	}
}

// Validate rejects values the synthesizer and filters cannot work with.
// Pan and volume are not checked here: the chain clamps them.
func (p Parameters) Validate() error {
	if p.StimulusFrequencyHz <= 0 {
		return fmt.Errorf("frequency must be positive, got %g", p.StimulusFrequencyHz)
	}
	if p.DurationSeconds <= 0 {
		return fmt.Errorf("duration must be positive, got %g", p.DurationSeconds)
	}
	if p.IntervalSeconds < 0 {
		return fmt.Errorf("interval must not be negative, got %g", p.IntervalSeconds)
	}
	if p.LowpassCutoffHz <= 0 {
		return fmt.Errorf("lowpass cutoff must be positive, got %g", p.LowpassCutoffHz)
	}
	if p.HighpassCutoffHz <= 0 {
		return fmt.Errorf("highpass cutoff must be positive, got %g", p.HighpassCutoffHz)
	}
	return nil
}

// UnmarshalJSON sets defaults then decodes, so only keys present in the
// file override them. The technique travels as its config name.
func (p *Parameters) UnmarshalJSON(data []byte) error {
	*p = Defaults()
	type alias Parameters
	tmp := struct {
		*alias
		Technique string `json:"technique,omitempty"`
	}{alias: (*alias)(p), Technique: p.Technique.String()}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	technique, err := synth.ParseTechnique(tmp.Technique)
	if err != nil {
		return err
	}
	p.Technique = technique
	return nil
}

// MarshalJSON writes the technique by name.
func (p Parameters) MarshalJSON() ([]byte, error) {
	type alias Parameters
	return json.Marshal(struct {
		alias
		Technique string `json:"technique"`
	}{alias: alias(p), Technique: p.Technique.String()})
}

// Load reads parameters from a JSON file. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. ~/.config/sonitus/sonitus.json (or %APPDATA%\sonitus on Windows)
//
// A missing default file is not an error: Defaults() are returned.
func Load(explicitPath string) (Parameters, error) {
	if explicitPath != "" {
		return readFile(explicitPath)
	}
	p := filepath.Join(paths.DataDir(), paths.ConfigFileName)
	if _, err := os.Stat(p); err != nil {
		return Defaults(), nil
	}
	return readFile(p)
}

// Save writes parameters to the default config location.
func Save(p Parameters) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling parameters: %w", err)
	}
	return paths.AtomicWrite(filepath.Join(paths.DataDir(), paths.ConfigFileName), data)
}

func readFile(path string) (Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Parameters{}, fmt.Errorf("reading config: %w", err)
	}
	var p Parameters
	if err := json.Unmarshal(data, &p); err != nil {
		return Parameters{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return p, nil
}

// Live is a mutex-guarded parameter holder implementing the live
// configuration collaborator: the sequencer snapshots it each tick,
// external code may update it at any time.
type Live struct {
	mu sync.Mutex
	p  Parameters
}

func NewLive(p Parameters) *Live {
	return &Live{p: p}
}

// Snapshot returns the current parameter values.
func (l *Live) Snapshot() Parameters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.p
}

// Update replaces the parameter set.
func (l *Live) Update(p Parameters) {
	l.mu.Lock()
	l.p = p
	l.mu.Unlock()
}
