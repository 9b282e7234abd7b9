package engine

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/sampler"
)

// MixStem is the stem name a full premixed track loads under. The
// first named stem to arrive evicts it: a deck plays either the premix
// or individual stems, never both.
const MixStem = "mix"

// LoadTrack resets the deck and loads a full premixed track under the
// MixStem name. The deck ends up stopped at position 0.
func (e *Engine) LoadTrack(deckID string, info deck.TrackInfo, buf *deck.Buffer) error {
	if buf == nil {
		return fmt.Errorf("engine: load track on deck %s: nil buffer", deckID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ds := e.ensureDeck(deckID)
	if err := e.ensureChain(ds); err != nil {
		return err
	}

	ds.info = info
	ds.stems = map[string]*stem{
		MixStem: {buf: buf, mono: buf.Mono(), gain: 1},
	}
	ds.clock.Stop()
	ds.clock.Seek(e.Now(), 0)
	ds.loop.Reset()

	chain := ds.chain
	e.push(func() {
		chain.StopVoices()
		chain.ClearLoop()
	})

	return nil
}

// LoadStem loads or replaces one named stem buffer. The first named
// stem evicts a loaded premix. If the deck is playing, the stem joins
// at the current position without interrupting the others.
func (e *Engine) LoadStem(deckID, name string, buf *deck.Buffer) error {
	if name == "" {
		return fmt.Errorf("engine: load stem on deck %s: empty name", deckID)
	}
	if buf == nil {
		return fmt.Errorf("engine: load stem %s on deck %s: nil buffer", name, deckID)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ds := e.ensureDeck(deckID)
	if err := e.ensureChain(ds); err != nil {
		return err
	}

	chain := ds.chain
	now := e.Now()
	playing := ds.clock.Playing()

	if name != MixStem {
		if _, ok := ds.stems[MixStem]; ok {
			delete(ds.stems, MixStem)
			if playing {
				e.push(func() { chain.RemoveVoice(MixStem) })
			}
		}
	}

	s := &stem{buf: buf, mono: buf.Mono(), gain: 1}
	if prev, ok := ds.stems[name]; ok {
		s.gain = prev.gain
		s.muted = prev.muted
		if playing {
			e.push(func() { chain.RemoveVoice(name) })
		}
	}
	ds.stems[name] = s

	if playing {
		gain := s.gain
		if s.muted {
			gain = 0
		}
		pb := deck.StemPlayback{Name: name, Data: s.mono, SampleRate: buf.SampleRate, Gain: gain}
		rate := ds.clock.Rate()
		offset := ds.clock.Position(now)
		loopActive := ds.loop.Active()
		loopStart, loopEnd := ds.loop.Start(), ds.loop.End()
		e.push(func() {
			chain.AddVoice(pb, rate, offset)
			if loopActive {
				chain.SetLoop(loopStart, loopEnd)
			}
		})
	}

	return nil
}

// SetTrackInfo sets the analysis metadata (BPM, key, duration) a deck
// uses for beat quantization. LoadTrack sets it implicitly; stem-only
// decks set it here.
func (e *Engine) SetTrackInfo(deckID string, info deck.TrackInfo) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.ensureDeck(deckID).info = info
}

// Play starts the deck from its stored pause offset. A deck already
// playing restarts from that offset: StartVoices replaces the prior
// voices, so sources never overlap. A deck with nothing loaded is
// skipped with a warning.
func (e *Engine) Play(deckID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || len(ds.stems) == 0 {
		e.log.Warn("engine: play on empty deck, skipping", "deck", deckID)
		return
	}

	now := e.Now()
	offset := ds.clock.PauseOffset()
	if dur := ds.duration(); offset < 0 || offset >= dur {
		offset = 0
	}
	ds.clock.Start(now, offset)

	chain := ds.chain
	set := ds.playbackSet()
	rate := ds.clock.Rate()
	loopActive := ds.loop.Active()
	loopStart, loopEnd := ds.loop.Start(), ds.loop.End()
	e.push(func() {
		chain.StartVoices(set, rate, offset)
		if loopActive {
			chain.SetLoop(loopStart, loopEnd)
		}
	})
}

// Stop halts the deck's voices. The clock keeps its anchor and pause
// offset: Play resumes from where the last start, seek or rate change
// anchored it.
func (e *Engine) Stop(deckID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok {
		e.log.Warn("engine: stop on unknown deck, skipping", "deck", deckID)
		return
	}
	if !ds.clock.Playing() {
		return
	}

	ds.clock.Stop()
	chain := ds.chain
	e.push(func() { chain.StopVoices() })
}

// Seek jumps to a fraction of the track length in [0, 1]. A playing
// deck restarts its voices at the target without stopping.
func (e *Engine) Seek(deckID string, fraction float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || len(ds.stems) == 0 {
		e.log.Warn("engine: seek on empty deck, skipping", "deck", deckID)
		return
	}

	dur := ds.duration()
	if dur <= 0 {
		return
	}
	fraction = math.Min(1, math.Max(0, fraction))
	offset := fraction * dur

	now := e.Now()
	ds.clock.Seek(now, offset)
	if !ds.clock.Playing() {
		return
	}

	chain := ds.chain
	set := ds.playbackSet()
	rate := ds.clock.Rate()
	loopActive := ds.loop.Active()
	loopStart, loopEnd := ds.loop.Start(), ds.loop.End()
	e.push(func() {
		chain.StartVoices(set, rate, offset)
		if loopActive {
			chain.SetLoop(loopStart, loopEnd)
		}
	})
}

// SetPlaybackRate changes the deck tempo. The clock re-anchors so the
// position stays continuous; in-flight voices pick up the new rate at
// the next block boundary. Non-positive rates are rejected.
func (e *Engine) SetPlaybackRate(deckID string, rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok {
		e.log.Warn("engine: set rate on unknown deck, skipping", "deck", deckID)
		return nil
	}

	if err := ds.clock.SetRate(e.Now(), rate); err != nil {
		return fmt.Errorf("engine: deck %s: %w", deckID, err)
	}

	chain := ds.chain
	if chain != nil {
		e.push(func() { chain.SetRate(rate) })
	}

	return nil
}

// SetFilter moves the deck's sweep filter control in [0, 1]; the
// center dead zone bypasses it.
func (e *Engine) SetFilter(deckID string, value float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || ds.chain == nil {
		e.log.Warn("engine: set filter on unknown deck, skipping", "deck", deckID)
		return
	}

	chain := ds.chain
	e.push(func() { chain.Sweep().SetValue(value) })
}

// SetEQ sets one isolator band gain ("low", "mid", "high") in [0, 2].
func (e *Engine) SetEQ(deckID, band string, gain float64) error {
	b, err := deck.ParseBand(band)
	if err != nil {
		return fmt.Errorf("engine: deck %s: %w", deckID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || ds.chain == nil {
		e.log.Warn("engine: set eq on unknown deck, skipping", "deck", deckID)
		return nil
	}

	chain := ds.chain
	e.push(func() { _ = chain.Isolator().SetGain(b, gain) })

	return nil
}

// MuteStem mutes or unmutes one stem. The state persists across
// play/stop; a playing voice ramps to silence instead of clicking.
func (e *Engine) MuteStem(deckID, name string, muted bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok {
		e.log.Warn("engine: mute on unknown deck, skipping", "deck", deckID)
		return
	}
	s, ok := ds.stems[name]
	if !ok {
		e.log.Warn("engine: mute unknown stem, skipping", "deck", deckID, "stem", name)
		return
	}

	s.muted = muted
	gain := s.gain
	if muted {
		gain = 0
	}
	chain := ds.chain
	e.push(func() { chain.SetStemGain(name, gain) })
}

// SetVolume sets the deck fader gain, clamped to [0, 2].
func (e *Engine) SetVolume(deckID string, gain float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || ds.chain == nil {
		e.log.Warn("engine: set volume on unknown deck, skipping", "deck", deckID)
		return
	}

	chain := ds.chain
	e.push(func() { chain.SetFader(gain) })
}

// LoopIn captures the loop start at the current position, quantized to
// the nearest beat. Ignored while the deck is stopped.
func (e *Engine) LoopIn(deckID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || !ds.clock.Playing() {
		e.log.Warn("engine: loop in on stopped deck, skipping", "deck", deckID)
		return
	}

	pos := ds.clock.Position(e.Now())
	ds.loop.MarkIn(pos, ds.info.BeatDuration())
}

// LoopOut captures the loop end and arms the loop. A degenerate
// interval becomes one beat. Ignored while the deck is stopped or
// before LoopIn.
func (e *Engine) LoopOut(deckID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || !ds.clock.Playing() {
		e.log.Warn("engine: loop out on stopped deck, skipping", "deck", deckID)
		return
	}

	pos := ds.clock.Position(e.Now())
	if !ds.loop.MarkOut(pos, ds.info.BeatDuration(), ds.duration()) {
		return
	}

	chain := ds.chain
	start, end := ds.loop.Start(), ds.loop.End()
	e.push(func() { chain.SetLoop(start, end) })
}

// LoopExit disarms an active loop. The clock re-anchors at the actual
// position inside the loop interval, so playback continues linearly
// from where the listener hears it.
func (e *Engine) LoopExit(deckID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || !ds.clock.Playing() {
		e.log.Warn("engine: loop exit on stopped deck, skipping", "deck", deckID)
		return
	}

	now := e.Now()
	actual, ok := ds.loop.Exit(ds.clock.Position(now))
	if !ok {
		return
	}

	ds.clock.ReAnchor(now, actual)
	chain := ds.chain
	e.push(func() { chain.ClearLoop() })
}

// SetMasterEffect moves the XY effect pad: x sweeps the master filter,
// y crossfades between distortion (low) and reverb (high) with a full
// dry center.
func (e *Engine) SetMasterEffect(x, y float64) {
	e.push(func() { e.bus.SetEffect(x, y) })
}

// SetMasterVolume sets the master output gain, clamped to [0, 2].
func (e *Engine) SetMasterVolume(gain float64) {
	e.push(func() { e.bus.SetMasterGain(gain) })
}

// PlaySampler fires a one-shot sampler voice ("airhorn" or "siren").
func (e *Engine) PlaySampler(name string) error {
	kind, err := sampler.ParseKind(name)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	e.push(func() { _ = e.smp.Trigger(kind) })

	return nil
}

// IsPlaying reports whether the deck's transport is running.
func (e *Engine) IsPlaying(deckID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]

	return ok && ds.clock.Playing()
}

// Position returns the deck's playback position in buffer seconds.
// While a loop is active the unwrapped transport position is folded
// into the loop interval, matching what is audible.
func (e *Engine) Position(deckID string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok {
		return 0
	}

	pos := ds.clock.Position(e.Now())
	if ds.loop.Active() {
		start, end := ds.loop.Start(), ds.loop.End()
		if length := end - start; pos >= end && length > 0 {
			pos = start + math.Mod(pos-start, length)
		}
	}

	return pos
}

// Analyser returns the deck's spectrum tap, or nil before the first
// load creates the chain.
func (e *Engine) Analyser(deckID string) *deck.Analyser {
	e.mu.Lock()
	defer e.mu.Unlock()

	ds, ok := e.decks[deckID]
	if !ok || ds.chain == nil {
		return nil
	}

	return ds.chain.Analyser()
}

// Cleanup tears down all decks, voices and master state. Idempotent;
// the engine keeps rendering silence and accepts new loads afterwards.
func (e *Engine) Cleanup() {
	e.mu.Lock()
	for _, ds := range e.decks {
		ds.clock.Stop()
		ds.loop.Reset()
	}
	e.decks = map[string]*deckState{}
	e.mu.Unlock()

	e.push(func() {
		for _, chain := range e.renderChains {
			chain.Reset()
		}
		e.renderChains = nil
		e.smp.Stop()
		e.bus.Reset()
	})
}
