package synth

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestHarmonicClusterLayout(t *testing.T) {
	ev, err := Generate(HarmonicCluster, 500, 2*time.Second, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ev.SubEvents) != 4 {
		t.Fatalf("sub-events = %d, want 4", len(ev.SubEvents))
	}

	wantFreq := []float64{500 * 0.77, 500 * 0.90, 500 * 1.10, 500 * 1.23}
	wantOffset := []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}
	for i, sub := range ev.SubEvents {
		if sub.Kind != KindTone {
			t.Errorf("sub %d kind = %v, want tone", i, sub.Kind)
		}
		if math.Abs(sub.FrequencyHz-wantFreq[i]) > 1e-9 {
			t.Errorf("sub %d frequency = %g, want %g", i, sub.FrequencyHz, wantFreq[i])
		}
		if sub.StartOffset != wantOffset[i] {
			t.Errorf("sub %d offset = %v, want %v", i, sub.StartOffset, wantOffset[i])
		}
		if sub.Duration != 2*time.Second {
			t.Errorf("sub %d duration = %v, want 2s", i, sub.Duration)
		}
	}
}

func TestPureToneSingleSubEvent(t *testing.T) {
	ev, err := Generate(PureTone, 440, time.Second, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ev.SubEvents) != 1 {
		t.Fatalf("sub-events = %d, want 1", len(ev.SubEvents))
	}
	sub := ev.SubEvents[0]
	if sub.FrequencyHz != 440 || sub.StartOffset != 0 || sub.Kind != KindTone {
		t.Errorf("unexpected sub-event %+v", sub)
	}
}

func TestEnvelopeRamp(t *testing.T) {
	// 1 s tone at 44100: ramp is 441 samples (10 ms).
	n := SampleRate
	ramp := SampleRate / 100

	if got := envelope(0, n, ramp); got != 0 {
		t.Errorf("envelope at start = %g, want 0", got)
	}
	if got := envelope(n, n, ramp); got != 0 {
		t.Errorf("envelope at end = %g, want 0", got)
	}
	if got := envelope(n/2, n, ramp); got != 1 {
		t.Errorf("envelope at midpoint = %g, want 1", got)
	}
	if got := envelope(ramp, n, ramp); got != 1 {
		t.Errorf("envelope at end of attack = %g, want 1", got)
	}
	if got := envelope(ramp/2, n, ramp); math.Abs(got-0.5) > 0.01 {
		t.Errorf("envelope mid-attack = %g, want ~0.5", got)
	}
}

func TestEnvelopeShortDurationOverlap(t *testing.T) {
	// Duration shorter than two ramps: fades overlap, gain stays in [0,1).
	n := 100
	ramp := 80
	for i := 0; i <= n; i++ {
		g := envelope(i, n, ramp)
		if g < 0 || g > 1 {
			t.Fatalf("envelope(%d) = %g out of range", i, g)
		}
	}
}

func TestNoiseBurstSamples(t *testing.T) {
	ev, err := Generate(NoiseBurst, 0, 500*time.Millisecond, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ev.SubEvents) != 1 {
		t.Fatalf("sub-events = %d, want 1", len(ev.SubEvents))
	}
	samples := ev.SubEvents[0].Samples
	wantLen := SampleRate / 2
	if len(samples) != wantLen {
		t.Fatalf("len(samples) = %d, want %d", len(samples), wantLen)
	}

	var sum float64
	for i, s := range samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %g outside [-1,1]", i, s)
		}
		sum += s
	}
	mean := sum / float64(len(samples))
	if math.Abs(mean) > 0.05 {
		t.Errorf("sample mean = %g, want ~0", mean)
	}
}

func TestSpokenPhraseCarriesText(t *testing.T) {
	ev, err := Generate(SpokenPhrase, 0, 0, "rest and breathe")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ev.Audible() {
		t.Error("speech event should not be audible")
	}
	if ev.Text != "rest and breathe" {
		t.Errorf("text = %q", ev.Text)
	}
	if got := Render(ev, SampleRate); got != nil {
		t.Errorf("Render(speech) = %d samples, want none", len(got))
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name      string
		technique Technique
		freq      float64
		duration  time.Duration
		want      error
	}{
		{"unknown technique", Technique(42), 440, time.Second, ErrInvalidTechnique},
		{"zero frequency tone", PureTone, 0, time.Second, ErrInvalidParameter},
		{"negative frequency cluster", HarmonicCluster, -100, time.Second, ErrInvalidParameter},
		{"zero duration tone", PureTone, 440, 0, ErrInvalidParameter},
		{"negative duration noise", NoiseBurst, 0, -time.Second, ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.technique, tt.freq, tt.duration, "")
			if !errors.Is(err, tt.want) {
				t.Errorf("Generate error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRenderLength(t *testing.T) {
	ev, err := Generate(HarmonicCluster, 440, time.Second, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	buf := Render(ev, SampleRate)
	// Last partial starts at 300 ms and lasts 1 s.
	want := int(1.3 * SampleRate)
	if len(buf) != want {
		t.Errorf("len(buf) = %d, want %d", len(buf), want)
	}
}

func TestRenderToneStartsAndEndsSilent(t *testing.T) {
	ev, err := Generate(PureTone, 440, time.Second, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	buf := Render(ev, SampleRate)
	if buf[0] != 0 {
		t.Errorf("first sample = %g, want 0", buf[0])
	}
	// Somewhere in the held region the envelope is fully open.
	peak := 0.0
	for _, s := range buf {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak < 0.95 {
		t.Errorf("peak = %g, want near 1", peak)
	}
}

func TestParseTechnique(t *testing.T) {
	for _, name := range []string{"cluster", "tone", "noise", "speech"} {
		technique, err := ParseTechnique(name)
		if err != nil {
			t.Errorf("ParseTechnique(%q): %v", name, err)
		}
		if technique.String() != name {
			t.Errorf("round-trip %q -> %q", name, technique.String())
		}
	}
	if _, err := ParseTechnique("reverb"); !errors.Is(err, ErrInvalidTechnique) {
		t.Errorf("ParseTechnique(reverb) error = %v, want ErrInvalidTechnique", err)
	}
}
