package deck

import "fmt"

// Buffer holds decoded audio for one stem: channels × samples at a
// known sample rate. Buffers arrive from the analysis/separation
// service already decoded; the engine never parses container formats.
type Buffer struct {
	// Data[ch] is one channel of samples in [-1, 1].
	Data       [][]float64
	SampleRate float64
}

// NewBuffer validates and wraps decoded channel data.
func NewBuffer(data [][]float64, sampleRate float64) (*Buffer, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("buffer: no sample data")
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("buffer: sample rate must be > 0: %f", sampleRate)
	}
	for ch := 1; ch < len(data); ch++ {
		if len(data[ch]) != len(data[0]) {
			return nil, fmt.Errorf("buffer: channel %d length %d != %d", ch, len(data[ch]), len(data[0]))
		}
	}

	return &Buffer{Data: data, SampleRate: sampleRate}, nil
}

// Len returns the number of samples per channel.
func (b *Buffer) Len() int {
	if len(b.Data) == 0 {
		return 0
	}

	return len(b.Data[0])
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}

	return float64(b.Len()) / b.SampleRate
}

// Mono returns the buffer folded down to a single channel. A mono
// buffer is returned as-is; multichannel data is averaged with equal
// weights so the fold-down cannot clip beyond the channel peak.
func (b *Buffer) Mono() []float64 {
	if len(b.Data) == 1 {
		return b.Data[0]
	}

	n := b.Len()
	out := make([]float64, n)
	scale := 1.0 / float64(len(b.Data))
	for _, ch := range b.Data {
		for i := 0; i < n; i++ {
			out[i] += ch[i] * scale
		}
	}

	return out
}

// TrackInfo is the per-track metadata delivered by the analysis
// service alongside the stem buffers.
type TrackInfo struct {
	BPM        float64
	Key        string
	Duration   float64
	SampleRate float64
}

// BeatDuration returns the length of one beat in seconds, or 0 when
// the BPM is unknown.
func (t TrackInfo) BeatDuration() float64 {
	if t.BPM <= 0 {
		return 0
	}

	return 60 / t.BPM
}
