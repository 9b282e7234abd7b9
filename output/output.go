// Package output bridges the engine's block renderer to the system
// audio device. The engine renders mono; the device stream duplicates
// it to both channels.
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/cwbudde/algo-deck/engine"
)

// ErrDevice marks audio-device failures, which are fatal to playback
// while every in-engine error stays a per-operation warning.
var ErrDevice = errors.New("output: audio device failure")

// Streamer adapts the engine render loop to the beep streaming
// interface. The device callback drives it; it never returns ok=false,
// so the stream runs until the speaker is closed.
type Streamer struct {
	eng *engine.Engine
	buf []float64
}

// NewStreamer wraps an engine for device playback.
func NewStreamer(eng *engine.Engine) *Streamer {
	return &Streamer{eng: eng}
}

// Stream renders the next block and duplicates it to both channels.
func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	n := len(samples)
	if cap(s.buf) < n {
		s.buf = make([]float64, n)
	}
	buf := s.buf[:n]

	s.eng.Render(buf)
	for i, v := range buf {
		samples[i][0] = v
		samples[i][1] = v
	}

	return n, true
}

// Err implements beep.Streamer; the engine itself never fails a block.
func (s *Streamer) Err() error { return nil }

// Start opens the audio device at the engine sample rate and begins
// pulling blocks from it. bufferDur controls device latency.
func Start(eng *engine.Engine, bufferDur time.Duration) (*Streamer, error) {
	sr := beep.SampleRate(int(eng.SampleRate()))
	if err := speaker.Init(sr, sr.N(bufferDur)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	s := NewStreamer(eng)
	speaker.Play(s)

	return s, nil
}

// Stop closes the audio device.
func Stop() {
	speaker.Close()
}
