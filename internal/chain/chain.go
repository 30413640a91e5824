// Package chain implements the fixed signal-processing graph every
// audible stimulus passes through: stereo pan, lowpass filter, highpass
// filter, master gain, then the output device. Stage parameters are
// live-updatable and take effect on the next event processed.
package chain

import (
	"fmt"
	"math"
	"sync"

	"github.com/sonitus/sonitus/internal/device"
	"github.com/sonitus/sonitus/internal/synth"
)

// filterQ is the Butterworth quality factor used for both filters.
const filterQ = math.Sqrt2 / 2

// Chain owns the four processing stages and the output sink. One chain
// belongs to exactly one sequencer; setters may be called at any time.
type Chain struct {
	out        device.Output
	sampleRate int

	mu         sync.Mutex
	pan        float64
	volume     float64
	lowpassHz  float64
	highpassHz float64
}

// New wires a chain to its output device. Stage parameters start at
// neutral values: centered pan, full volume, wide-open filter band.
func New(out device.Output, sampleRate int) *Chain {
	return &Chain{
		out:        out,
		sampleRate: sampleRate,
		pan:        0,
		volume:     1,
		lowpassHz:  20000,
		highpassHz: 20,
	}
}

// SetPan positions the stimulus in the stereo field. Out-of-range
// values are clamped, not rejected.
func (c *Chain) SetPan(v float64) {
	c.mu.Lock()
	c.pan = clamp(v, -1, 1)
	c.mu.Unlock()
}

// SetVolume sets the master gain. Out-of-range values are clamped.
func (c *Chain) SetVolume(v float64) {
	c.mu.Lock()
	c.volume = clamp(v, 0, 1)
	c.mu.Unlock()
}

// SetLowpass updates the lowpass cutoff. Non-positive cutoffs are
// rejected; a cutoff below the highpass is accepted as configured.
func (c *Chain) SetLowpass(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("%w: lowpass cutoff %g Hz", synth.ErrInvalidParameter, hz)
	}
	c.mu.Lock()
	c.lowpassHz = hz
	c.mu.Unlock()
	return nil
}

// SetHighpass updates the highpass cutoff. Non-positive cutoffs are
// rejected.
func (c *Chain) SetHighpass(hz float64) error {
	if hz <= 0 {
		return fmt.Errorf("%w: highpass cutoff %g Hz", synth.ErrInvalidParameter, hz)
	}
	c.mu.Lock()
	c.highpassHz = hz
	c.mu.Unlock()
	return nil
}

// Route renders an event and pushes it through the chain to the output
// device. Each event is routed exactly once; speech events carry no
// samples and route to nothing.
func (c *Chain) Route(ev synth.Event) error {
	mono := synth.Render(ev, c.sampleRate)
	if len(mono) == 0 {
		return nil
	}
	return c.out.Play(c.Process(mono))
}

// Process applies pan, both filters, and master gain to a mono buffer
// and returns interleaved stereo 16-bit signed LE PCM. The stage
// parameters are snapshotted once at entry, so a concurrent setter
// affects the next buffer, never the current one.
func (c *Chain) Process(mono []float64) []byte {
	c.mu.Lock()
	pan, volume := c.pan, c.volume
	lowpassHz, highpassHz := c.lowpassHz, c.highpassHz
	c.mu.Unlock()

	leftGain, rightGain := panGains(pan)
	left := make([]float64, len(mono))
	right := make([]float64, len(mono))
	for i, s := range mono {
		left[i] = s * leftGain
		right[i] = s * rightGain
	}

	rate := float64(c.sampleRate)
	// Biquads lose stability at Nyquist; cap the design frequency just
	// below it. The configured value itself stays untouched.
	if limit := 0.49 * rate; lowpassHz > limit {
		lowpassHz = limit
	}
	if limit := 0.49 * rate; highpassHz > limit {
		highpassHz = limit
	}
	for _, ch := range [][]float64{left, right} {
		var lp, hp biquad
		lp.setLowpass(rate, lowpassHz, filterQ)
		hp.setHighpass(rate, highpassHz, filterQ)
		lp.process(ch)
		hp.process(ch)
	}

	pcm := make([]byte, 0, len(mono)*4)
	for i := range mono {
		pcm = appendSample(pcm, left[i]*volume)
		pcm = appendSample(pcm, right[i]*volume)
	}
	return pcm
}

// panGains implements the constant-power law: equal loudness as the
// stimulus sweeps across the field. pan -1 is hard left, +1 hard right.
func panGains(pan float64) (left, right float64) {
	angle := (pan + 1) * math.Pi / 4
	return math.Cos(angle), math.Sin(angle)
}

func appendSample(pcm []byte, v float64) []byte {
	s := int16(clamp(v, -1, 1) * 32767)
	return append(pcm, byte(s), byte(s>>8))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
