package master

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

const (
	impulseSeconds = 3.0
	impulseDecay   = 2.0

	// First 1% of the burst stays at full amplitude before the decay
	// sets in, which keeps some early-reflection density.
	impulseAttackFraction = 0.01

	impulseSeed = 0x5eed
)

// Impulse generates the reverb impulse response: a 3-second noise
// burst whose tail decays as (1 - i/n)^2. The noise is deterministic
// so the bus sounds identical across runs.
func Impulse(sampleRate float64) []float64 {
	n := int(impulseSeconds * sampleRate)
	if n < 1 {
		n = 1
	}

	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(sampleRate)},
		signal.WithSeed(impulseSeed),
	)
	noise, err := gen.WhiteNoise(1, n)
	if err != nil {
		return []float64{1}
	}

	attack := int(float64(n) * impulseAttackFraction)
	for i := attack; i < n; i++ {
		noise[i] *= math.Pow(1-float64(i)/float64(n), impulseDecay)
	}

	return noise
}
