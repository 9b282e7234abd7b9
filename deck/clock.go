package deck

import "fmt"

// Clock tracks the virtual buffer position of one deck under a
// variable playback rate.
//
// Instead of accumulating small increments, the clock stores an anchor
// pair (anchorTime, pauseOffset) and derives the position as
//
//	position(now) = pauseOffset + (now - anchorTime) · rate
//
// which is immune to drift and composes trivially with rate changes:
// any operation that would bend the position line simply re-anchors
// first. All times are engine-clock seconds (samples rendered divided
// by sample rate), not wall time.
type Clock struct {
	anchorTime  float64
	pauseOffset float64
	rate        float64
	playing     bool
}

// NewClock returns a stopped clock at offset 0 with unity rate.
func NewClock() *Clock {
	return &Clock{rate: 1}
}

// Position returns the virtual buffer position at the given engine
// time. While stopped it returns the stored pause offset.
func (c *Clock) Position(now float64) float64 {
	if !c.playing {
		return c.pauseOffset
	}

	return c.pauseOffset + (now-c.anchorTime)*c.rate
}

// Start anchors the clock at offset and marks it playing.
func (c *Clock) Start(now, offset float64) {
	c.pauseOffset = offset
	c.anchorTime = now
	c.playing = true
}

// Stop marks the clock stopped. The anchor and pause offset are left
// untouched: only seeks, rate changes and loop exits move them.
func (c *Clock) Stop() {
	c.playing = false
}

// SetRate changes the playback rate. While playing, the clock
// re-anchors at the current position first so the position line stays
// continuous across the rate change. Non-positive rates are rejected.
func (c *Clock) SetRate(now, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("clock: rate must be > 0: %f", rate)
	}

	if c.playing {
		c.ReAnchor(now, c.Position(now))
	}
	c.rate = rate

	return nil
}

// Seek moves the stored pause offset. The caller is responsible for
// restarting playback voices; the clock itself just re-anchors.
func (c *Clock) Seek(now, offset float64) {
	c.ReAnchor(now, offset)
}

// ReAnchor pins the position line to pass through (now, position) at
// the current rate. Loop exits use this to collapse the unwrapped
// linear position back into the loop interval.
func (c *Clock) ReAnchor(now, position float64) {
	c.pauseOffset = position
	c.anchorTime = now
}

// Rate returns the current playback rate.
func (c *Clock) Rate() float64 { return c.rate }

// Playing reports whether the clock is running.
func (c *Clock) Playing() bool { return c.playing }

// PauseOffset returns the stored offset playback resumes from.
func (c *Clock) PauseOffset() float64 { return c.pauseOffset }
