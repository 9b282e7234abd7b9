package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSession(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write session: %v", err)
	}
	return path
}

func TestLoadSession(t *testing.T) {
	path := writeSession(t, `
sample_rate = 44100

[deck.A]
track = "mix.wav"
bpm = 128.0
key = "8A"

[deck.B]
bpm = 124.0

[deck.B.stems]
drums = "drums.wav"
bass = "bass.mp3"
`)

	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	if s.SampleRate != 44100 {
		t.Errorf("sample rate = %v, want 44100", s.SampleRate)
	}
	a, ok := s.Decks["A"]
	if !ok {
		t.Fatal("deck A missing")
	}
	if a.Track != "mix.wav" || a.BPM != 128 || a.Key != "8A" {
		t.Errorf("deck A = %+v", a)
	}
	b, ok := s.Decks["B"]
	if !ok {
		t.Fatal("deck B missing")
	}
	if len(b.Stems) != 2 || b.Stems["bass"] != "bass.mp3" {
		t.Errorf("deck B stems = %v", b.Stems)
	}
}

func TestLoadSessionRejectsEmptyDeck(t *testing.T) {
	path := writeSession(t, `
[deck.A]
bpm = 120.0
`)
	if _, err := LoadSession(path); err == nil {
		t.Fatal("deck with no material accepted")
	}
}

func TestLoadSessionRejectsBadTOML(t *testing.T) {
	path := writeSession(t, `[deck.A`)
	if _, err := LoadSession(path); err == nil {
		t.Fatal("malformed file accepted")
	}
}

func TestLoadSessionMissingFile(t *testing.T) {
	if _, err := LoadSession(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file accepted")
	}
}
