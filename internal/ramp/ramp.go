// Package ramp provides one-pole smoothed parameters.
//
// Every audible parameter in the engine (band gains, send levels,
// sweep-filter frequency) moves through a Value instead of jumping, so
// control-path changes never produce clicks in the render path.
package ramp

import "math"

// Value is a scalar parameter that approaches its target exponentially.
// The zero value is unusable; construct with New.
type Value struct {
	current float64
	target  float64
	coeff   float64
}

// New creates a smoothed value at initial, reaching targets with the
// given time constant in seconds at the given sample rate.
func New(initial, timeConstantSec, sampleRate float64) *Value {
	v := &Value{current: initial, target: initial}
	v.SetTimeConstant(timeConstantSec, sampleRate)

	return v
}

// SetTimeConstant updates the smoothing time constant.
func (v *Value) SetTimeConstant(timeConstantSec, sampleRate float64) {
	if timeConstantSec <= 0 || sampleRate <= 0 {
		v.coeff = 1
		return
	}

	v.coeff = 1 - math.Exp(-1/(timeConstantSec*sampleRate))
}

// SetTarget sets the value the parameter ramps toward.
func (v *Value) SetTarget(target float64) { v.target = target }

// Target returns the current ramp target.
func (v *Value) Target() float64 { return v.target }

// Current returns the present smoothed value without advancing it.
func (v *Value) Current() float64 { return v.current }

// Jump moves the value and target immediately, skipping the ramp.
func (v *Value) Jump(value float64) {
	v.current = value
	v.target = value
}

// Next advances the ramp by one sample and returns the new value.
func (v *Value) Next() float64 {
	v.current += (v.target - v.current) * v.coeff

	return v.current
}

// Advance advances the ramp by n samples in one step and returns the
// new value. Used for block-rate parameters such as filter frequency.
func (v *Value) Advance(n int) float64 {
	if n <= 0 {
		return v.current
	}

	remain := math.Pow(1-v.coeff, float64(n))
	v.current = v.target + (v.current-v.target)*remain

	return v.current
}

// Settled reports whether the value is within tol of its target.
func (v *Value) Settled(tol float64) bool {
	return math.Abs(v.current-v.target) <= tol
}
