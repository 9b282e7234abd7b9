package master

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"
)

const (
	shaperK         = 400.0
	shaperTableSize = 2048
)

// Shaper is the distortion send's waveshaper. The transfer function
//
//	f(x) = (3 + k) · x · (π/9) / (π + k·|x|)    k = 400
//
// is sampled once over x ∈ [-1, 1] into a lookup table; processing
// reads it with Hermite interpolation. Inputs beyond ±1 saturate at
// the table edges.
type Shaper struct {
	table []float64
}

// ShaperCurve evaluates the raw transfer function at x.
func ShaperCurve(x float64) float64 {
	return (3 + shaperK) * x * (math.Pi / 9) / (math.Pi + shaperK*math.Abs(x))
}

// NewShaper samples the transfer curve into a lookup table.
func NewShaper() *Shaper {
	table := make([]float64, shaperTableSize)
	for i := range table {
		x := 2*float64(i)/float64(shaperTableSize-1) - 1
		table[i] = ShaperCurve(x)
	}

	return &Shaper{table: table}
}

// Process shapes a single sample.
func (s *Shaper) Process(x float64) float64 {
	if x <= -1 {
		return s.table[0]
	}
	if x >= 1 {
		return s.table[len(s.table)-1]
	}

	idx := (x + 1) * 0.5 * float64(len(s.table)-1)
	i := int(idx)
	frac := idx - float64(i)

	return interp.Hermite4(frac, s.at(i-1), s.at(i), s.at(i+1), s.at(i+2))
}

// ProcessBlock shapes buf in place.
func (s *Shaper) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = s.Process(x)
	}
}

func (s *Shaper) at(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(s.table) {
		i = len(s.table) - 1
	}

	return s.table[i]
}
