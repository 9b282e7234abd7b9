package deck

import "math"

// LoopState enumerates the loop capture cycle.
type LoopState int

const (
	// LoopInactive means no loop points are held.
	LoopInactive LoopState = iota
	// LoopIn means the loop start has been captured.
	LoopIn
	// LoopActive means both points are set and playback wraps.
	LoopActive
)

// Loop is the per-deck beat-quantized loop state machine:
//
//	inactive → in → active → inactive
//
// Positions are buffer seconds. The machine never talks to playback
// voices itself; the engine reads Start/End after each transition and
// pushes the region to the audio thread.
type Loop struct {
	state LoopState
	start float64
	end   float64
}

// NewLoop returns an inactive loop.
func NewLoop() *Loop {
	return &Loop{}
}

// State returns the current machine state.
func (l *Loop) State() LoopState { return l.state }

// Active reports whether playback should wrap between Start and End.
func (l *Loop) Active() bool { return l.state == LoopActive }

// Start returns the loop start in buffer seconds.
func (l *Loop) Start() float64 { return l.start }

// End returns the loop end in buffer seconds.
func (l *Loop) End() float64 { return l.end }

// QuantizeBeat snaps a position to the nearest multiple of the beat
// duration. A non-positive beat duration disables quantization.
func QuantizeBeat(position, beatDuration float64) float64 {
	if beatDuration <= 0 {
		return position
	}

	return math.Round(position/beatDuration) * beatDuration
}

// MarkIn captures the loop start from the current position, quantized
// to the nearest beat. Only valid from the inactive state; otherwise a
// no-op returning false.
func (l *Loop) MarkIn(position, beatDuration float64) bool {
	if l.state != LoopInactive {
		return false
	}

	l.start = QuantizeBeat(position, beatDuration)
	l.state = LoopIn

	return true
}

// MarkOut captures the loop end from the current position and arms the
// loop. A degenerate interval (end ≤ start after quantization) is
// corrected to one beat. Both points are clamped to the buffer; if the
// clamped interval is empty the call is rejected without mutating
// state and the machine stays in the "in" state.
func (l *Loop) MarkOut(position, beatDuration, bufferDuration float64) bool {
	if l.state != LoopIn {
		return false
	}

	end := QuantizeBeat(position, beatDuration)
	if end <= l.start {
		end = l.start + beatDuration
	}

	start := math.Max(0, math.Min(l.start, bufferDuration))
	end = math.Max(0, math.Min(end, bufferDuration))
	if end <= start {
		return false
	}

	l.start = start
	l.end = end
	l.state = LoopActive

	return true
}

// Exit disarms an active loop and returns the actual position inside
// the loop interval for the given unwrapped linear position, so the
// caller can re-anchor its clock there. Returns false when the loop is
// not active.
func (l *Loop) Exit(linearPosition float64) (float64, bool) {
	if l.state != LoopActive {
		return 0, false
	}

	length := l.end - l.start
	inside := math.Mod(linearPosition-l.start, length)
	if inside < 0 {
		inside += length
	}
	actual := l.start + inside

	l.state = LoopInactive
	l.start = 0
	l.end = 0

	return actual, true
}

// Reset clears all loop state unconditionally.
func (l *Loop) Reset() {
	l.state = LoopInactive
	l.start = 0
	l.end = 0
}
