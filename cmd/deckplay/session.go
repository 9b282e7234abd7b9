package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Session is the TOML session file: which files load onto which deck,
// plus the per-track analysis metadata the engine cannot derive itself.
//
//	sample_rate = 48000
//
//	[deck.A]
//	track = "mix.wav"
//	bpm = 128.0
//	key = "8A"
//
//	[deck.B]
//	bpm = 124.0
//
//	[deck.B.stems]
//	drums = "drums.wav"
//	bass = "bass.mp3"
type Session struct {
	SampleRate float64               `toml:"sample_rate"`
	Decks      map[string]DeckConfig `toml:"deck"`
}

// DeckConfig describes one deck's material. Track is a full premix;
// Stems are individual parts. Stems win when both are given.
type DeckConfig struct {
	Track string            `toml:"track"`
	BPM   float64           `toml:"bpm"`
	Key   string            `toml:"key"`
	Stems map[string]string `toml:"stems"`
}

// LoadSession reads and validates a session file.
func LoadSession(path string) (*Session, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	var s Session
	if err := toml.Unmarshal(contents, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	for id, dc := range s.Decks {
		if dc.Track == "" && len(dc.Stems) == 0 {
			return nil, fmt.Errorf("session: deck %s has neither track nor stems", id)
		}
		if dc.BPM < 0 {
			return nil, fmt.Errorf("session: deck %s: bpm must be >= 0", id)
		}
	}

	return &s, nil
}
