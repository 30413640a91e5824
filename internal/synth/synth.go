package synth

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// SampleRate is the output sample rate in Hz shared by the whole pipeline.
const SampleRate = 44100

var (
	// ErrInvalidParameter reports a non-positive frequency or duration.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrInvalidTechnique reports an unknown stimulus technique.
	ErrInvalidTechnique = errors.New("invalid technique")
)

// Technique selects the stimulus-generation strategy for a session.
type Technique int

const (
	HarmonicCluster Technique = iota
	PureTone
	NoiseBurst
	SpokenPhrase
)

var techniqueNames = map[Technique]string{
	HarmonicCluster: "cluster",
	PureTone:        "tone",
	NoiseBurst:      "noise",
	SpokenPhrase:    "speech",
}

func (t Technique) String() string {
	if name, ok := techniqueNames[t]; ok {
		return name
	}
	return fmt.Sprintf("technique(%d)", int(t))
}

// ParseTechnique maps a config/CLI name to a Technique.
func ParseTechnique(name string) (Technique, error) {
	for t, n := range techniqueNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidTechnique, name)
}

// Kind distinguishes the source type of a sub-event.
type Kind int

const (
	KindTone Kind = iota
	KindNoise
	KindSpeech
)

// SubEvent is one schedulable sound source within a stimulus event.
// Noise sub-events carry their backing samples; tone sub-events are
// described by frequency alone and rendered on demand.
type SubEvent struct {
	Kind        Kind
	FrequencyHz float64
	StartOffset time.Duration
	Duration    time.Duration
	Samples     []float64
}

// Event is the unit of output produced for a single tick. It is created
// fresh per tick, consumed immediately, and never retained.
type Event struct {
	Technique Technique
	SubEvents []SubEvent
	Text      string
}

// Audible reports whether the event carries sample-producing sub-events
// (as opposed to a fire-and-forget speech request).
func (e Event) Audible() bool {
	return len(e.SubEvents) > 0
}

// Harmonic cluster layout: four detuned partials around the base
// frequency, staggered by a fixed onset spacing.
var clusterRatios = [4]float64{0.77, 0.90, 1.10, 1.23}

const clusterSpacing = 100 * time.Millisecond

// Envelope ramp lengths. Noise needs a softer edge than tones.
const (
	toneRamp  = 10 * time.Millisecond
	noiseRamp = 100 * time.Millisecond
)

// Generate produces the stimulus event for one tick. freqHz is ignored
// for NoiseBurst and SpokenPhrase; text is meaningful only for
// SpokenPhrase. Blank speech text is not an error here: the sequencer
// decides whether to invoke the speech collaborator.
func Generate(technique Technique, freqHz float64, duration time.Duration, text string) (Event, error) {
	switch technique {
	case HarmonicCluster:
		if err := checkTone(freqHz, duration); err != nil {
			return Event{}, err
		}
		ev := Event{Technique: technique}
		for i, ratio := range clusterRatios {
			ev.SubEvents = append(ev.SubEvents, SubEvent{
				Kind:        KindTone,
				FrequencyHz: freqHz * ratio,
				StartOffset: time.Duration(i) * clusterSpacing,
				Duration:    duration,
			})
		}
		return ev, nil

	case PureTone:
		if err := checkTone(freqHz, duration); err != nil {
			return Event{}, err
		}
		return Event{
			Technique: technique,
			SubEvents: []SubEvent{{
				Kind:        KindTone,
				FrequencyHz: freqHz,
				Duration:    duration,
			}},
		}, nil

	case NoiseBurst:
		if duration <= 0 {
			return Event{}, fmt.Errorf("%w: duration %v", ErrInvalidParameter, duration)
		}
		n := int(duration.Seconds() * SampleRate)
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = rand.Float64()*2 - 1
		}
		return Event{
			Technique: technique,
			SubEvents: []SubEvent{{
				Kind:     KindNoise,
				Duration: duration,
				Samples:  samples,
			}},
		}, nil

	case SpokenPhrase:
		return Event{Technique: technique, Text: text}, nil

	default:
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidTechnique, technique)
	}
}

func checkTone(freqHz float64, duration time.Duration) error {
	if freqHz <= 0 {
		return fmt.Errorf("%w: frequency %g Hz", ErrInvalidParameter, freqHz)
	}
	if duration <= 0 {
		return fmt.Errorf("%w: duration %v", ErrInvalidParameter, duration)
	}
	return nil
}

// Render mixes all audible sub-events into a single mono buffer at the
// given sample rate, honoring each sub-event's start offset and
// amplitude envelope. Speech events render to an empty buffer.
func Render(ev Event, sampleRate int) []float64 {
	var total int
	for _, sub := range ev.SubEvents {
		end := int((sub.StartOffset + sub.Duration).Seconds() * float64(sampleRate))
		if end > total {
			total = end
		}
	}
	if total == 0 {
		return nil
	}

	buf := make([]float64, total)
	for _, sub := range ev.SubEvents {
		renderSub(buf, sub, sampleRate)
	}
	return buf
}

func renderSub(buf []float64, sub SubEvent, sampleRate int) {
	start := int(sub.StartOffset.Seconds() * float64(sampleRate))
	n := int(sub.Duration.Seconds() * float64(sampleRate))

	ramp := toneRamp
	if sub.Kind == KindNoise {
		ramp = noiseRamp
	}
	rampSamples := int(ramp.Seconds() * float64(sampleRate))

	for i := 0; i < n && start+i < len(buf); i++ {
		var val float64
		switch sub.Kind {
		case KindTone:
			t := float64(i) / float64(sampleRate)
			val = math.Sin(2 * math.Pi * sub.FrequencyHz * t)
		case KindNoise:
			if i < len(sub.Samples) {
				val = sub.Samples[i]
			}
		default:
			continue
		}
		buf[start+i] += val * envelope(i, n, rampSamples)
	}
}

// envelope returns the linear fade gain for sample i of n. When the
// duration is shorter than two ramps the fades overlap; the smaller
// gain wins, which keeps the edges click-free without special casing.
func envelope(i, n, rampSamples int) float64 {
	if rampSamples <= 0 {
		return 1
	}
	gain := 1.0
	if in := float64(i) / float64(rampSamples); in < gain {
		gain = in
	}
	if out := float64(n-i) / float64(rampSamples); out < gain {
		gain = out
	}
	if gain < 0 {
		return 0
	}
	return gain
}
