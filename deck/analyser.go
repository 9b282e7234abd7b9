package deck

import (
	"fmt"
	"math"
	"sync/atomic"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
	vecmath "github.com/cwbudde/algo-vecmath"
)

const (
	analyserFFTSize   = 2048
	analyserSmoothing = 0.8

	// Byte bins map this dB range onto 0..255 for external rendering.
	analyserMinDB = -100.0
	analyserMaxDB = -30.0
)

// Analyser is the read-only frequency-magnitude tap at the end of a
// deck chain. The render thread pushes post-fader samples into a ring
// buffer; every half-FFT hop a windowed frame is transformed and
// published as byte-scale (0–255) magnitude bins. Readers never block
// the render thread: finished frames are handed over with an atomic
// pointer swap.
type Analyser struct {
	sampleRate float64

	plan       *algofft.Plan[complex128]
	win        []float64
	windowGain float64

	ring        []float64
	write       int
	filled      int
	samplesToGo int
	hop         int

	frame  []float64 // linearized windowed input
	input  []complex128
	output []complex128
	re     []float64
	im     []float64
	mags   []float64
	db     []float64
	ready  bool

	published atomic.Pointer[[]byte]
}

// NewAnalyser creates a 2048-point analyser tap.
func NewAnalyser(sampleRate float64) (*Analyser, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("analyser: sample rate must be > 0: %f", sampleRate)
	}

	plan, err := algofft.NewPlan64(analyserFFTSize)
	if err != nil {
		return nil, fmt.Errorf("analyser: init fft plan: %w", err)
	}

	win := window.Generate(window.TypeBlackmanHarris4Term, analyserFFTSize, window.WithPeriodic())
	sum := 0.0
	for _, w := range win {
		sum += w
	}

	bins := analyserFFTSize/2 + 1
	a := &Analyser{
		sampleRate: sampleRate,
		plan:       plan,
		win:        win,
		windowGain: sum / analyserFFTSize,
		ring:       make([]float64, analyserFFTSize),
		hop:        analyserFFTSize / 2,
		frame:      make([]float64, analyserFFTSize),
		input:      make([]complex128, analyserFFTSize),
		output:     make([]complex128, analyserFFTSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mags:       make([]float64, bins),
		db:         make([]float64, bins),
	}
	for i := range a.db {
		a.db[i] = analyserMinDB
	}

	return a, nil
}

// BinCount returns the number of frequency bins per frame.
func (a *Analyser) BinCount() int { return len(a.db) }

// BinFrequency returns the center frequency of bin i in Hz.
func (a *Analyser) BinFrequency(i int) float64 {
	return float64(i) * a.sampleRate / analyserFFTSize
}

// Push feeds one post-fader sample from the render thread.
func (a *Analyser) Push(x float64) {
	a.ring[a.write] = x
	a.write++
	if a.write >= len(a.ring) {
		a.write = 0
	}

	if a.filled < len(a.ring) {
		a.filled++
	}

	a.samplesToGo++
	if a.filled < len(a.ring) || a.samplesToGo < a.hop {
		return
	}

	a.samplesToGo = 0
	a.publishFrame()
}

// PushBlock feeds a block of samples.
func (a *Analyser) PushBlock(buf []float64) {
	for _, x := range buf {
		a.Push(x)
	}
}

// Bytes copies the latest published frame into dst and returns the
// number of bins written, or 0 when no frame has been published yet.
// Values are 0–255 spanning −100 dBFS to −30 dBFS.
func (a *Analyser) Bytes(dst []byte) int {
	p := a.published.Load()
	if p == nil {
		return 0
	}

	return copy(dst, *p)
}

func (a *Analyser) publishFrame() {
	const eps = 1e-12

	// Linearize the ring, apply the window.
	read := a.write
	n := len(a.ring)
	for i := 0; i < n; i++ {
		a.frame[i] = a.ring[read]
		read++
		if read >= n {
			read = 0
		}
	}
	vecmath.MulBlockInPlace(a.frame, a.win)

	for i, s := range a.frame {
		a.input[i] = complex(s, 0)
	}
	if err := a.plan.Forward(a.output, a.input); err != nil {
		return
	}

	norm := float64(n) * math.Max(a.windowGain, eps)
	for k := range a.re {
		a.re[k] = real(a.output[k])
		a.im[k] = imag(a.output[k])
	}
	vecmath.Magnitude(a.mags, a.re, a.im)

	last := len(a.db) - 1
	for k := range a.db {
		mag := a.mags[k] / norm
		if k > 0 && k < last {
			mag *= 2
		}

		valDB := 20 * math.Log10(math.Max(eps, mag))
		if valDB < analyserMinDB {
			valDB = analyserMinDB
		}

		if a.ready {
			a.db[k] = analyserSmoothing*a.db[k] + (1-analyserSmoothing)*valDB
		} else {
			a.db[k] = valDB
		}
	}
	a.ready = true

	// Fresh frame per publish; readers may hold the previous one.
	frame := make([]byte, len(a.db))
	scale := 255 / (analyserMaxDB - analyserMinDB)
	for k, db := range a.db {
		v := (db - analyserMinDB) * scale
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		frame[k] = byte(v)
	}
	a.published.Store(&frame)
}
