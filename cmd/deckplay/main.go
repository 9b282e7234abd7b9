// Command deckplay runs the two-deck mixing engine against the system
// audio device, driven by a TOML session file and an interactive
// command prompt.
//
// Usage:
//
//	deckplay -session session.toml
//	deckplay -session session.toml -latency 50ms -v
//
// The session file names the audio files to load per deck; see the
// Session type for the format. Once running, type "help" for the
// available transport, EQ, loop and effect commands.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/engine"
	"github.com/cwbudde/algo-deck/output"
)

func main() {
	sessionPath := flag.String("session", "", "TOML session file (required)")
	latency := flag.Duration("latency", 100*time.Millisecond, "audio device buffer duration")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deckplay [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs the mixing engine with an interactive command prompt.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *sessionPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(*sessionPath, *latency, logger); err != nil {
		logger.Error("deckplay failed", "err", err)
		os.Exit(1)
	}
}

func run(sessionPath string, latency time.Duration, logger *slog.Logger) error {
	session, err := LoadSession(sessionPath)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithLogger(logger)}
	if session.SampleRate > 0 {
		opts = append(opts, engine.WithSampleRate(session.SampleRate))
	}
	eng, err := engine.New(opts...)
	if err != nil {
		return err
	}

	deckIDs := make([]string, 0, len(session.Decks))
	for id := range session.Decks {
		deckIDs = append(deckIDs, id)
	}
	sort.Strings(deckIDs)

	for _, id := range deckIDs {
		if err := loadDeck(eng, id, session.Decks[id], logger); err != nil {
			return err
		}
	}

	if _, err := output.Start(eng, latency); err != nil {
		return err
	}
	defer output.Stop()
	logger.Info("audio device running",
		"sample_rate", eng.SampleRate(), "latency", latency)

	repl(eng, os.Stdin, os.Stdout, deckIDs)
	eng.Cleanup()

	return nil
}

// loadDeck decodes and loads one deck's material. A stem that fails to
// decode is skipped with a warning; a failing premix track is fatal
// since the deck would be empty.
func loadDeck(eng *engine.Engine, id string, dc DeckConfig, logger *slog.Logger) error {
	info := deck.TrackInfo{BPM: dc.BPM, Key: dc.Key}

	if dc.Track != "" {
		buf, err := LoadFile(dc.Track)
		if err != nil {
			return fmt.Errorf("deck %s: %w", id, err)
		}
		info.Duration = buf.Duration()
		info.SampleRate = buf.SampleRate
		if err := eng.LoadTrack(id, info, buf); err != nil {
			return err
		}
		logger.Info("loaded track", "deck", id, "file", dc.Track,
			"duration", buf.Duration(), "bpm", dc.BPM)
	} else {
		eng.SetTrackInfo(id, info)
	}

	names := make([]string, 0, len(dc.Stems))
	for name := range dc.Stems {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := dc.Stems[name]
		buf, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping stem", "deck", id, "stem", name, "err", err)
			continue
		}
		if err := eng.LoadStem(id, name, buf); err != nil {
			logger.Warn("skipping stem", "deck", id, "stem", name, "err", err)
			continue
		}
		logger.Info("loaded stem", "deck", id, "stem", name, "file", path)
	}

	return nil
}
