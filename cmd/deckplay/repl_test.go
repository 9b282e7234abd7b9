package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/engine"
)

func newReplEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(engine.WithSampleRate(48000))
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}

	data := make([]float64, 48000)
	for i := range data {
		data[i] = 0.25
	}
	buf, err := deck.NewBuffer([][]float64{data}, 48000)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	if err := eng.LoadTrack("A", deck.TrackInfo{BPM: 120, Duration: 1}, buf); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	return eng
}

func TestDispatch(t *testing.T) {
	cases := []struct {
		line   string
		wantOK bool
	}{
		{"play A", true},
		{"stop A", true},
		{"seek A 0.5", true},
		{"rate A 1.25", true},
		{"rate A 0", false},
		{"rate A fast", false},
		{"filter A 0.3", true},
		{"eq A low 0", true},
		{"eq A sub 0", false},
		{"eq A low loud", false},
		{"mute A mix", true},
		{"unmute A mix", true},
		{"volume A 0.8", true},
		{"fx 0.5 0.5", true},
		{"fx 0.5", false},
		{"master 1.2", true},
		{"sampler airhorn", true},
		{"sampler vuvuzela", false},
		{"pos", true},
		{"help", true},
		{"scratch A", false},
		{"play", false},
	}

	eng := newReplEngine(t)
	var out bytes.Buffer
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			err := dispatch(eng, &out, strings.Fields(tc.line), []string{"A"})
			if tc.wantOK != (err == nil) {
				t.Fatalf("dispatch(%q) err = %v, want ok=%v", tc.line, err, tc.wantOK)
			}
		})
	}
}

func TestReplQuitsOnEOF(t *testing.T) {
	eng := newReplEngine(t)
	var out bytes.Buffer

	in := strings.NewReader("play A\npos\nquit\n")
	repl(eng, in, &out, []string{"A"})

	if !strings.Contains(out.String(), "deck A:") {
		t.Fatalf("pos output missing:\n%s", out.String())
	}
}
