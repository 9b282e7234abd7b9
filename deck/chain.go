package deck

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/cwbudde/algo-deck/internal/ramp"
)

// Node lifetimes are two-tier: the Chain (isolator, sweep filter,
// fader, analyser, per-stem gain ramps) persists for the life of the
// deck, while voices are created per Play and die on Stop, replay or
// natural end of buffer.

const (
	// Stem/fader gain changes ramp over ~50 ms.
	chainGainSmoothingSec = 0.05
)

// StemPlayback describes one stem to start a voice for.
type StemPlayback struct {
	Name       string
	Data       []float64 // mono samples
	SampleRate float64
	Gain       float64 // 0 when muted
}

// voice is an ephemeral playback node reading one stem buffer through
// a Hermite-interpolated fractional playhead.
type voice struct {
	name string
	data []float64

	pos  float64 // fractional index into data
	step float64 // buffer samples per output sample at rate 1
	rate float64

	gain *ramp.Value

	looping   bool
	loopStart float64 // buffer samples
	loopEnd   float64

	done bool
}

func (v *voice) sampleAt(i int) float64 {
	if i < 0 {
		i = 0
	}
	if i >= len(v.data) {
		i = len(v.data) - 1
	}

	return v.data[i]
}

// next produces one interpolated output sample and advances the
// playhead, wrapping inside the loop region when looping.
func (v *voice) next() float64 {
	if v.done {
		return 0
	}

	i := int(v.pos)
	frac := v.pos - float64(i)
	out := interp.Hermite4(frac, v.sampleAt(i-1), v.sampleAt(i), v.sampleAt(i+1), v.sampleAt(i+2)) * v.gain.Next()

	v.pos += v.step * v.rate
	if v.looping && v.loopEnd > v.loopStart {
		for v.pos >= v.loopEnd {
			v.pos -= v.loopEnd - v.loopStart
		}
	}
	if v.pos >= float64(len(v.data)-1) {
		v.done = true
	}

	return out
}

// Chain is the persistent per-deck processing path:
//
//	voices → stem gains → isolator → sweep filter → fader → analyser
//
// Render output feeds the master bus input sum. All methods run on the
// render thread; the engine delivers control changes as commands
// absorbed at block boundaries.
type Chain struct {
	sampleRate float64

	isolator *Isolator
	sweep    *SweepFilter
	fader    *ramp.Value
	analyser *Analyser

	voices []*voice
}

// NewChain builds the persistent processing chain for one deck.
func NewChain(sampleRate float64) (*Chain, error) {
	analyser, err := NewAnalyser(sampleRate)
	if err != nil {
		return nil, err
	}

	return &Chain{
		sampleRate: sampleRate,
		isolator:   NewIsolator(sampleRate),
		sweep:      NewSweepFilter(sampleRate),
		fader:      ramp.New(1, chainGainSmoothingSec, sampleRate),
		analyser:   analyser,
	}, nil
}

// Isolator exposes the 3-band isolator.
func (c *Chain) Isolator() *Isolator { return c.isolator }

// Sweep exposes the sweep filter.
func (c *Chain) Sweep() *SweepFilter { return c.sweep }

// Analyser exposes the spectrum tap.
func (c *Chain) Analyser() *Analyser { return c.analyser }

// SetFader sets the deck volume target (linear, clamped to [0, 2]).
func (c *Chain) SetFader(gain float64) {
	c.fader.SetTarget(math.Min(2, math.Max(0, gain)))
}

// StartVoices replaces all voices with one per stem, started
// synchronized at offset seconds with the given playback rate.
// Stems whose buffer is missing or empty are skipped.
func (c *Chain) StartVoices(stems []StemPlayback, rate, offsetSec float64) {
	c.voices = c.voices[:0]
	for _, s := range stems {
		if v := c.newVoice(s, rate, offsetSec); v != nil {
			c.voices = append(c.voices, v)
		}
	}
}

// AddVoice hot-adds a single stem voice at offset seconds, used when a
// stem buffer arrives while the deck is already playing.
func (c *Chain) AddVoice(s StemPlayback, rate, offsetSec float64) {
	if v := c.newVoice(s, rate, offsetSec); v != nil {
		c.voices = append(c.voices, v)
	}
}

func (c *Chain) newVoice(s StemPlayback, rate, offsetSec float64) *voice {
	if len(s.Data) == 0 || s.SampleRate <= 0 || rate <= 0 {
		return nil
	}

	pos := offsetSec * s.SampleRate
	if pos < 0 || pos >= float64(len(s.Data)-1) {
		return nil
	}

	return &voice{
		name: s.Name,
		data: s.Data,
		pos:  pos,
		step: s.SampleRate / c.sampleRate,
		rate: rate,
		gain: ramp.New(s.Gain, chainGainSmoothingSec, c.sampleRate),
	}
}

// RemoveVoice drops the voices playing the named stem, used when a
// stem buffer is replaced or evicted while the deck keeps playing.
func (c *Chain) RemoveVoice(name string) {
	live := c.voices[:0]
	for _, v := range c.voices {
		if v.name != name {
			live = append(live, v)
		}
	}
	c.voices = live
}

// StopVoices drops all voices. The chain itself persists.
func (c *Chain) StopVoices() {
	c.voices = c.voices[:0]
}

// Active reports whether any voice is still producing audio.
func (c *Chain) Active() bool {
	for _, v := range c.voices {
		if !v.done {
			return true
		}
	}

	return false
}

// SetRate pushes a new playback rate to all in-flight voices without
// restarting them.
func (c *Chain) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	for _, v := range c.voices {
		v.rate = rate
	}
}

// SetStemGain retargets one stem's gain ramp on all matching voices.
// Used for live mute/unmute.
func (c *Chain) SetStemGain(name string, gain float64) {
	for _, v := range c.voices {
		if v.name == name {
			v.gain.SetTarget(gain)
		}
	}
}

// SetLoop marks all voices to wrap between start and end (seconds).
func (c *Chain) SetLoop(startSec, endSec float64) {
	for _, v := range c.voices {
		rate := v.step * c.sampleRate // buffer sample rate
		v.loopStart = startSec * rate
		v.loopEnd = endSec * rate
		v.looping = v.loopEnd > v.loopStart
	}
}

// ClearLoop disables looping on all voices; the playhead continues
// linearly from wherever it is inside the former loop.
func (c *Chain) ClearLoop() {
	for _, v := range c.voices {
		v.looping = false
	}
}

// Render mixes all voices and runs the persistent chain, overwriting
// dst with the deck's output block. Finished voices are pruned.
func (c *Chain) Render(dst []float64) {
	for i := range dst {
		dst[i] = 0
	}

	live := c.voices[:0]
	for _, v := range c.voices {
		for i := range dst {
			dst[i] += v.next()
		}
		if !v.done {
			live = append(live, v)
		}
	}
	c.voices = live

	c.isolator.ProcessBlock(dst)
	c.sweep.ProcessBlock(dst)
	for i := range dst {
		dst[i] *= c.fader.Next()
	}
	c.analyser.PushBlock(dst)
}

// Reset drops voices and clears all filter state.
func (c *Chain) Reset() {
	c.StopVoices()
	c.isolator.Reset()
	c.sweep.Reset()
}
