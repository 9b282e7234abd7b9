package master

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/internal/ramp"
)

const (
	// Reverb latency: 2^8 = 256 samples of partitioned-convolution
	// delay, inaudible at DJ-booth block sizes.
	reverbMinBlockOrder = 8

	// Master-bus parameters all ramp with a ~100 ms time constant.
	busSmoothingSec = 0.1
)

// Bus is the single shared master bus:
//
//	input sum → master gain → sweep filter → {dry, reverb, distortion} → out
//
// The input sum is an append-only mixing point: both decks and the
// sampler add their blocks into it each render cycle. The bus is built
// once at engine construction and lives for the engine's lifetime.
type Bus struct {
	sampleRate float64

	masterGain *ramp.Value
	sweep      *deck.SweepFilter

	reverb     *reverb.ConvolutionReverb
	reverbSend *ramp.Value

	shaper   *Shaper
	distSend *ramp.Value

	input   []float64
	revBuf  []float64
	distBuf []float64
}

// NewBus constructs the master bus, generating the reverb impulse and
// sampling the distortion curve.
func NewBus(sampleRate float64) (*Bus, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("master: sample rate must be > 0: %f", sampleRate)
	}

	conv, err := reverb.NewConvolutionReverb(Impulse(sampleRate), reverbMinBlockOrder)
	if err != nil {
		return nil, fmt.Errorf("master: build reverb send: %w", err)
	}
	// Send topology: the send level is applied before the convolver,
	// so the bus only needs the wet path here.
	conv.SetWetDry(1, 0)

	return &Bus{
		sampleRate: sampleRate,
		masterGain: ramp.New(1, busSmoothingSec, sampleRate),
		sweep:      deck.NewSweepFilter(sampleRate),
		reverb:     conv,
		reverbSend: ramp.New(0, busSmoothingSec, sampleRate),
		shaper:     NewShaper(),
		distSend:   ramp.New(0, busSmoothingSec, sampleRate),
	}, nil
}

// Input returns the zeroed input sum buffer for an n-sample block.
// Callers mix into the returned slice before Render runs.
func (b *Bus) Input(n int) []float64 {
	if cap(b.input) < n {
		b.input = make([]float64, n)
		b.revBuf = make([]float64, n)
		b.distBuf = make([]float64, n)
	}
	b.input = b.input[:n]
	for i := range b.input {
		b.input[i] = 0
	}

	return b.input
}

// SetMasterGain sets the master gain target (linear, clamped [0, 2]).
func (b *Bus) SetMasterGain(gain float64) {
	b.masterGain.SetTarget(math.Min(2, math.Max(0, gain)))
}

// SetEffect applies the 2D master effect position. X drives the sweep
// filter through the shared dead-zone mapping; Y drives the exclusive
// reverb/distortion send split.
func (b *Bus) SetEffect(x, y float64) {
	b.sweep.SetValue(x)

	rev, dist := EffectMap(y)
	b.reverbSend.SetTarget(rev)
	b.distSend.SetTarget(dist)
}

// Sweep exposes the master sweep filter.
func (b *Bus) Sweep() *deck.SweepFilter { return b.sweep }

// SendLevels returns the current reverb and distortion send targets.
func (b *Bus) SendLevels() (reverbAmt, distAmt float64) {
	return b.reverbSend.Target(), b.distSend.Target()
}

// Render processes the accumulated input block into dst. dst must be
// the same length as the block handed out by Input.
func (b *Bus) Render(dst []float64) {
	n := len(dst)
	if n == 0 {
		return
	}

	in := b.input[:n]
	for i := range in {
		in[i] *= b.masterGain.Next()
	}
	b.sweep.ProcessBlock(in)

	rev := b.revBuf[:n]
	dist := b.distBuf[:n]
	for i := range in {
		rev[i] = in[i] * b.reverbSend.Next()
		dist[i] = in[i]
	}

	// The reverb engine always runs so its tail survives send dips.
	if err := b.reverb.ProcessInPlace(rev); err != nil {
		for i := range rev {
			rev[i] = 0
		}
	}

	b.shaper.ProcessBlock(dist)

	for i := range dst {
		dst[i] = in[i] + rev[i] + dist[i]*b.distSend.Next()
	}
}

// Reset silences the bus completely: filter state, the convolution
// tail and both effect sends are cleared.
func (b *Bus) Reset() {
	b.sweep.Reset()
	b.reverb.Reset()
	b.reverbSend.Jump(0)
	b.distSend.Jump(0)
	for i := range b.input {
		b.input[i] = 0
	}
}
