package chain

import "math"

// biquad is a second-order IIR filter section, Direct Form I. Each
// rendered event gets fresh filter state, so the state lives in the
// struct and is simply reallocated per Process call.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// setLowpass configures RBJ lowpass coefficients.
func (f *biquad) setLowpass(sampleRate, frequency, q float64) {
	omega := 2 * math.Pi * frequency / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2 * q)

	b0 := (1 - cosOmega) / 2
	b1 := 1 - cosOmega
	b2 := (1 - cosOmega) / 2
	a0 := 1 + alpha
	a1 := -2 * cosOmega
	a2 := 1 - alpha

	f.normalize(b0, b1, b2, a0, a1, a2)
}

// setHighpass configures RBJ highpass coefficients.
func (f *biquad) setHighpass(sampleRate, frequency, q float64) {
	omega := 2 * math.Pi * frequency / sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2 * q)

	b0 := (1 + cosOmega) / 2
	b1 := -(1 + cosOmega)
	b2 := (1 + cosOmega) / 2
	a0 := 1 + alpha
	a1 := -2 * cosOmega
	a2 := 1 - alpha

	f.normalize(b0, b1, b2, a0, a1, a2)
}

func (f *biquad) normalize(b0, b1, b2, a0, a1, a2 float64) {
	invA0 := 1 / a0
	f.b0 = b0 * invA0
	f.b1 = b1 * invA0
	f.b2 = b2 * invA0
	f.a1 = a1 * invA0
	f.a2 = a2 * invA0
}

// process filters the buffer in place.
func (f *biquad) process(buf []float64) {
	x1, x2 := f.x1, f.x2
	y1, y2 := f.y1, f.y2

	for i, x0 := range buf {
		y0 := f.b0*x0 + f.b1*x1 + f.b2*x2 - f.a1*y1 - f.a2*y2
		x2, x1 = x1, x0
		y2, y1 = y1, y0
		buf[i] = y0
	}

	f.x1, f.x2 = x1, x2
	f.y1, f.y2 = y1, y2
}
