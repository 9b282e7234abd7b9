package deck

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-deck/internal/ramp"
)

// Band identifies one isolator band.
type Band int

const (
	// BandLow is everything below 300 Hz.
	BandLow Band = iota
	// BandMid covers 300 Hz – 3 kHz.
	BandMid
	// BandHigh is everything above 3 kHz.
	BandHigh

	bandCount = 3
)

// String returns the control-surface name of the band.
func (b Band) String() string {
	switch b {
	case BandLow:
		return "low"
	case BandMid:
		return "mid"
	case BandHigh:
		return "high"
	default:
		return fmt.Sprintf("band(%d)", int(b))
	}
}

// ParseBand maps a control-surface band name to a Band.
func ParseBand(name string) (Band, error) {
	switch name {
	case "low":
		return BandLow, nil
	case "mid":
		return BandMid, nil
	case "high":
		return BandHigh, nil
	default:
		return 0, fmt.Errorf("isolator: unknown band %q", name)
	}
}

const (
	isolatorLowFreq  = 300.0
	isolatorHighFreq = 3000.0
	isolatorQ        = 0.707

	// Band gain moves ∈ [0, 2]: 0 kills the band, 1 is flat, 2 boosts.
	isolatorMaxGain = 2.0

	// Gain changes ramp over ~50 ms so kills don't click.
	isolatorSmoothingSec = 0.05
)

// Isolator is a DJ-style 3-band kill EQ. The three bands are fed in
// parallel from the same pre-gain point and summed after independent
// smoothed linear gains:
//
//	low:  lowpass 300 Hz
//	mid:  highpass 300 Hz → lowpass 3 kHz
//	high: highpass 3 kHz
//
// All filters are second order with Q ≈ 0.707.
type Isolator struct {
	sampleRate float64

	low  *biquad.Section
	mid  *biquad.Chain
	high *biquad.Section

	gains [bandCount]*ramp.Value

	lowBuf  []float64
	midBuf  []float64
	highBuf []float64
}

// NewIsolator creates a flat isolator (all band gains 1.0).
func NewIsolator(sampleRate float64) *Isolator {
	iso := &Isolator{
		sampleRate: sampleRate,
		low:        biquad.NewSection(design.Lowpass(isolatorLowFreq, isolatorQ, sampleRate)),
		mid: biquad.NewChain([]biquad.Coefficients{
			design.Highpass(isolatorLowFreq, isolatorQ, sampleRate),
			design.Lowpass(isolatorHighFreq, isolatorQ, sampleRate),
		}),
		high: biquad.NewSection(design.Highpass(isolatorHighFreq, isolatorQ, sampleRate)),
	}
	for i := range iso.gains {
		iso.gains[i] = ramp.New(1, isolatorSmoothingSec, sampleRate)
	}

	return iso
}

// SetGain sets a band's linear gain target, clamped to [0, 2]. The
// change ramps over ~50 ms.
func (iso *Isolator) SetGain(band Band, gain float64) error {
	if band < 0 || band >= bandCount {
		return fmt.Errorf("isolator: invalid band %d", int(band))
	}

	iso.gains[band].SetTarget(math.Min(isolatorMaxGain, math.Max(0, gain)))

	return nil
}

// Gain returns the band's target linear gain.
func (iso *Isolator) Gain(band Band) float64 {
	if band < 0 || band >= bandCount {
		return 0
	}

	return iso.gains[band].Target()
}

// ProcessBlock splits buf into the three bands, applies the smoothed
// band gains and sums the result back in place.
func (iso *Isolator) ProcessBlock(buf []float64) {
	n := len(buf)
	if n == 0 {
		return
	}

	if cap(iso.lowBuf) < n {
		iso.lowBuf = make([]float64, n)
		iso.midBuf = make([]float64, n)
		iso.highBuf = make([]float64, n)
	}
	low := iso.lowBuf[:n]
	mid := iso.midBuf[:n]
	high := iso.highBuf[:n]

	copy(low, buf)
	copy(mid, buf)
	copy(high, buf)
	iso.low.ProcessBlock(low)
	iso.mid.ProcessBlock(mid)
	iso.high.ProcessBlock(high)

	gl, gm, gh := iso.gains[BandLow], iso.gains[BandMid], iso.gains[BandHigh]
	for i := 0; i < n; i++ {
		buf[i] = low[i]*gl.Next() + mid[i]*gm.Next() + high[i]*gh.Next()
	}
}

// Response returns the complex frequency response at freqHz with the
// band gains at their targets (ramps settled).
func (iso *Isolator) Response(freqHz float64) complex128 {
	h := complex(iso.gains[BandLow].Target(), 0) * iso.low.Coefficients.Response(freqHz, iso.sampleRate)
	h += complex(iso.gains[BandMid].Target(), 0) * iso.mid.Response(freqHz, iso.sampleRate)
	h += complex(iso.gains[BandHigh].Target(), 0) * iso.high.Coefficients.Response(freqHz, iso.sampleRate)

	return h
}

// MagnitudeDB returns the settled magnitude response at freqHz in dB.
func (iso *Isolator) MagnitudeDB(freqHz float64) float64 {
	return 20 * math.Log10(math.Max(1e-12, cmplx.Abs(iso.Response(freqHz))))
}

// Reset clears all filter states without touching the gains.
func (iso *Isolator) Reset() {
	iso.low.Reset()
	iso.mid.Reset()
	iso.high.Reset()
}
