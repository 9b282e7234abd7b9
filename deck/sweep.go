package deck

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-deck/internal/ramp"
)

// SweepMode identifies the active configuration of a sweep filter.
type SweepMode int

const (
	// SweepBypass is the neutral center position (zero-gain peaking).
	SweepBypass SweepMode = iota
	// SweepLowpass is the left half of the control range.
	SweepLowpass
	// SweepHighpass is the right half of the control range.
	SweepHighpass
)

const (
	sweepDeadLow    = 0.45
	sweepDeadHigh   = 0.55
	sweepMinFreq    = 20.0
	sweepBypassFreq = 1000.0
	sweepQ          = 1.0

	// Frequency changes ramp with a ~100 ms time constant so filter
	// sweeps never step audibly.
	sweepSmoothingSec = 0.1
)

// MapSweep translates a normalized control value in [0, 1] into a
// sweep-filter mode and target frequency:
//
//	(0.45, 0.55)  bypass at 1 kHz
//	value ≤ 0.45  lowpass,  freq = 20 · 1000^(value/0.45)
//	value ≥ 0.55  highpass, freq = 20 · 1000^((value-0.55)/0.45)
//
// Both halves sweep logarithmically over 20 Hz – 20 kHz.
func MapSweep(value float64) (SweepMode, float64) {
	value = math.Min(1, math.Max(0, value))

	switch {
	case value > sweepDeadLow && value < sweepDeadHigh:
		return SweepBypass, sweepBypassFreq
	case value <= sweepDeadLow:
		return SweepLowpass, sweepMinFreq * math.Pow(1000, value/sweepDeadLow)
	default:
		return SweepHighpass, sweepMinFreq * math.Pow(1000, (value-sweepDeadHigh)/sweepDeadLow)
	}
}

// SweepFilter is the single reused DJ filter: one biquad swept between
// lowpass and highpass through a bypass dead zone. Retunes are smoothed
// in the log-frequency domain; the section state is kept across
// retunes so the sweep stays continuous.
type SweepFilter struct {
	sampleRate float64
	mode       SweepMode
	logFreq    *ramp.Value
	section    *biquad.Section
}

// NewSweepFilter creates a bypassed sweep filter at 1 kHz.
func NewSweepFilter(sampleRate float64) *SweepFilter {
	f := &SweepFilter{
		sampleRate: sampleRate,
		mode:       SweepBypass,
		logFreq:    ramp.New(math.Log2(sweepBypassFreq), sweepSmoothingSec, sampleRate),
		section:    biquad.NewSection(design.Peak(sweepBypassFreq, 0, sweepQ, sampleRate)),
	}

	return f
}

// SetValue applies the control mapping for a normalized value in [0, 1].
func (f *SweepFilter) SetValue(value float64) {
	mode, freq := MapSweep(value)
	f.mode = mode
	f.logFreq.SetTarget(math.Log2(freq))
}

// Mode returns the active sweep mode.
func (f *SweepFilter) Mode() SweepMode { return f.mode }

// Frequency returns the present (smoothed) corner frequency in Hz.
func (f *SweepFilter) Frequency() float64 {
	return math.Exp2(f.logFreq.Current())
}

// ProcessBlock filters buf in place, advancing the frequency ramp by
// one block and retuning the section at block rate.
func (f *SweepFilter) ProcessBlock(buf []float64) {
	if len(buf) == 0 {
		return
	}

	f.logFreq.Advance(len(buf))
	f.retune()
	f.section.ProcessBlock(buf)
}

// retune swaps the section coefficients for the current mode and
// smoothed frequency, keeping the filter state.
func (f *SweepFilter) retune() {
	freq := math.Min(f.Frequency(), f.sampleRate*0.49)

	switch f.mode {
	case SweepLowpass:
		f.section.Coefficients = design.Lowpass(freq, sweepQ, f.sampleRate)
	case SweepHighpass:
		f.section.Coefficients = design.Highpass(freq, sweepQ, f.sampleRate)
	default:
		f.section.Coefficients = design.Peak(sweepBypassFreq, 0, sweepQ, f.sampleRate)
	}
}

// MagnitudeDB returns the settled-target magnitude response at freqHz,
// for inspection and tests.
func (f *SweepFilter) MagnitudeDB(freqHz float64) float64 {
	return f.section.Coefficients.MagnitudeDB(freqHz, f.sampleRate)
}

// Reset clears the filter state without touching the tuning.
func (f *SweepFilter) Reset() {
	f.section.Reset()
}
