package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sonitus/sonitus/internal/synth"
)

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero frequency", func(p *Parameters) { p.StimulusFrequencyHz = 0 }},
		{"negative duration", func(p *Parameters) { p.DurationSeconds = -1 }},
		{"negative interval", func(p *Parameters) { p.IntervalSeconds = -0.5 }},
		{"zero lowpass", func(p *Parameters) { p.LowpassCutoffHz = 0 }},
		{"negative highpass", func(p *Parameters) { p.HighpassCutoffHz = -20 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Defaults()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestInvertedFilterBandAccepted(t *testing.T) {
	p := Defaults()
	p.LowpassCutoffHz = 100
	p.HighpassCutoffHz = 5000
	if err := p.Validate(); err != nil {
		t.Errorf("inverted band must not be rejected: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sonitus.json")
	content := `{"technique": "cluster", "frequency_hz": 6000, "pan": -0.5}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Technique != synth.HarmonicCluster {
		t.Errorf("technique = %v, want cluster", p.Technique)
	}
	if p.StimulusFrequencyHz != 6000 {
		t.Errorf("frequency = %g, want 6000", p.StimulusFrequencyHz)
	}
	if p.PanPosition != -0.5 {
		t.Errorf("pan = %g, want -0.5", p.PanPosition)
	}
	// Keys absent from the file keep their defaults.
	if p.DurationSeconds != DefaultDuration {
		t.Errorf("duration = %g, want default %g", p.DurationSeconds, DefaultDuration)
	}
	if p.MasterVolume != DefaultVolume {
		t.Errorf("volume = %g, want default %g", p.MasterVolume, DefaultVolume)
	}
}

func TestLoadUnknownTechnique(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sonitus.json")
	if err := os.WriteFile(path, []byte(`{"technique": "theremin"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown technique")
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	p := Defaults()
	p.Technique = synth.NoiseBurst
	p.SpokenText = "unused"

	data, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Parameters
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != p {
		t.Errorf("round-trip mismatch:\n got %+v\nwant %+v", got, p)
	}
}

func TestLiveSnapshotUpdate(t *testing.T) {
	live := NewLive(Defaults())
	p := live.Snapshot()
	p.StimulusFrequencyHz = 8000
	live.Update(p)
	if got := live.Snapshot().StimulusFrequencyHz; got != 8000 {
		t.Errorf("frequency after update = %g, want 8000", got)
	}
}
