package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/cwbudde/algo-deck/deck"
)

// LoadFile decodes an audio file into an engine buffer. The format is
// picked by extension; WAV and MP3 are supported.
func LoadFile(path string) (*deck.Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return loadWAV(path)
	case ".mp3":
		return loadMP3(path)
	default:
		return nil, fmt.Errorf("decode %s: unsupported format", path)
	}
}

func loadWAV(path string) (*deck.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav %s: %w", path, err)
	}

	return pcmToBuffer(pcm)
}

// pcmToBuffer deinterleaves integer PCM into per-channel float data
// normalized by the source bit depth.
func pcmToBuffer(pcm *goaudio.IntBuffer) (*deck.Buffer, error) {
	channels := pcm.Format.NumChannels
	if channels <= 0 {
		return nil, fmt.Errorf("decode: no channels")
	}

	bits := pcm.SourceBitDepth
	if bits <= 0 {
		bits = 16
	}
	scale := 1.0 / float64(int64(1)<<(bits-1))

	frames := len(pcm.Data) / channels
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			data[ch][i] = float64(pcm.Data[i*channels+ch]) * scale
		}
	}

	return deck.NewBuffer(data, float64(pcm.Format.SampleRate))
}

func loadMP3(path string) (*deck.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", path, err)
	}

	// The decoder emits 16-bit little-endian stereo PCM.
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3 %s: %w", path, err)
	}

	frames := len(raw) / 4
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		l := int16(uint16(raw[4*i]) | uint16(raw[4*i+1])<<8)
		r := int16(uint16(raw[4*i+2]) | uint16(raw[4*i+3])<<8)
		left[i] = float64(l) / 32768
		right[i] = float64(r) / 32768
	}

	return deck.NewBuffer([][]float64{left, right}, float64(dec.SampleRate()))
}
