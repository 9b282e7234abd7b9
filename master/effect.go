package master

import "math"

const (
	effectReverbScale = 3.0
	effectDistScale   = 2.0
	effectDistTrim    = 0.8
)

// EffectMap translates the Y axis of the master XY pad into the two
// send levels. The split is exclusive around center:
//
//	y ≥ 0.5  reverb     = (y − 0.5) · 3    (may exceed unity)
//	y < 0.5  distortion = (0.5 − y) · 2 · 0.8
//
// At exactly y = 0.5 both sends are zero (full dry). The X axis is
// handled by the shared sweep-filter mapping in package deck.
func EffectMap(y float64) (reverbAmt, distAmt float64) {
	y = math.Min(1, math.Max(0, y))

	if y >= 0.5 {
		return (y - 0.5) * effectReverbScale, 0
	}

	return 0, (0.5 - y) * effectDistScale * effectDistTrim
}
