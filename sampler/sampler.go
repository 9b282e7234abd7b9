// Package sampler provides one-shot synthesized events (airhorn,
// siren) injected straight into the master bus input. Voices are
// self-terminating and overlap freely; they never touch deck state.
package sampler

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Kind names one of the predefined one-shot effects.
type Kind string

const (
	// KindAirhorn is four detuned saws with a fast exponential decay.
	KindAirhorn Kind = "airhorn"
	// KindSiren is a slowly frequency-modulated, lowpassed square.
	KindSiren Kind = "siren"
)

// ParseKind maps a control-surface name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindAirhorn:
		return KindAirhorn, nil
	case KindSiren:
		return KindSiren, nil
	default:
		return "", fmt.Errorf("sampler: unknown kind %q", name)
	}
}

const (
	maxVoices = 64

	airhornSeconds  = 0.8
	airhornBaseFreq = 400.0
	airhornLevel    = 0.22

	sirenSeconds     = 1.0
	sirenSustainFrac = 0.7
	sirenCarrierFreq = 600.0
	sirenLFOFreq     = 3.0
	sirenFMDepth     = 220.0
	sirenCutoff      = 1200.0
	sirenLevel       = 0.2
)

// airhorn detune ratios, slightly spread for the classic beating sound.
var airhornDetune = [4]float64{1.0, 1.006, 0.994, 1.012}

type voice struct {
	kind       Kind
	sampleRate float64
	age        int
	length     int

	phases [4]float64
	steps  [4]float64

	lfoPhase float64
	lfoStep  float64
	lp       *biquad.Section
}

// Sampler owns the live one-shot voices for the engine.
type Sampler struct {
	sampleRate float64
	voices     []*voice
}

// New creates an idle sampler.
func New(sampleRate float64) *Sampler {
	return &Sampler{sampleRate: sampleRate}
}

// Trigger starts a new independent voice of the given kind. Voices
// past the cap evict the oldest, like any polyphony-limited synth.
func (s *Sampler) Trigger(kind Kind) error {
	v := &voice{kind: kind, sampleRate: s.sampleRate}

	switch kind {
	case KindAirhorn:
		v.length = int(airhornSeconds * s.sampleRate)
		for i, d := range airhornDetune {
			v.steps[i] = 2 * math.Pi * airhornBaseFreq * d / s.sampleRate
		}
	case KindSiren:
		v.length = int(sirenSeconds * s.sampleRate)
		v.steps[0] = 2 * math.Pi * sirenCarrierFreq / s.sampleRate
		v.lfoStep = 2 * math.Pi * sirenLFOFreq / s.sampleRate
		v.lp = biquad.NewSection(design.Lowpass(sirenCutoff, 0.707, s.sampleRate))
	default:
		return fmt.Errorf("sampler: unknown kind %q", kind)
	}

	if len(s.voices) >= maxVoices {
		copy(s.voices, s.voices[1:])
		s.voices = s.voices[:maxVoices-1]
	}
	s.voices = append(s.voices, v)

	return nil
}

// Active reports whether any voice is still sounding.
func (s *Sampler) Active() bool { return len(s.voices) > 0 }

// Stop silences all voices immediately.
func (s *Sampler) Stop() { s.voices = s.voices[:0] }

// RenderAdd mixes all live voices into dst and prunes finished ones.
func (s *Sampler) RenderAdd(dst []float64) {
	if len(s.voices) == 0 {
		return
	}

	live := s.voices[:0]
	for _, v := range s.voices {
		for i := range dst {
			dst[i] += v.next()
		}
		if v.age < v.length {
			live = append(live, v)
		}
	}
	s.voices = live
}

func (v *voice) next() float64 {
	if v.age >= v.length {
		return 0
	}

	t := float64(v.age) / float64(v.length)
	var out float64

	switch v.kind {
	case KindAirhorn:
		for i := range v.steps {
			out += v.phases[i] / math.Pi // saw in [-1, 1)
			v.phases[i] += v.steps[i]
			if v.phases[i] > math.Pi {
				v.phases[i] -= 2 * math.Pi
			}
		}
		out *= 0.25 * airhornLevel * math.Exp(-5*t)
	case KindSiren:
		mod := sirenFMDepth * math.Sin(v.lfoPhase)
		v.lfoPhase += v.lfoStep

		step := v.steps[0] + 2*math.Pi*mod/v.sampleRate
		v.phases[0] += step
		if v.phases[0] > math.Pi {
			v.phases[0] -= 2 * math.Pi
		}

		sq := 1.0
		if math.Sin(v.phases[0]) < 0 {
			sq = -1
		}

		env := 1.0
		if t > sirenSustainFrac {
			env = 1 - (t-sirenSustainFrac)/(1-sirenSustainFrac)
		}
		out = v.lp.ProcessSample(sq) * sirenLevel * env
	}

	v.age++

	return out
}
