package engine

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-deck/deck"
)

const (
	testRate  = 48000.0
	testBlock = 480 // 10 ms, so whole seconds are whole block counts
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(WithSampleRate(testRate))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func dcBuffer(t *testing.T, seconds, level float64) *deck.Buffer {
	t.Helper()
	data := make([]float64, int(seconds*testRate))
	for i := range data {
		data[i] = level
	}
	buf, err := deck.NewBuffer([][]float64{data}, testRate)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	return buf
}

// renderSeconds advances the engine clock by rendering whole blocks.
func renderSeconds(e *Engine, seconds float64) {
	dst := make([]float64, testBlock)
	blocks := int(seconds * testRate / testBlock)
	for i := 0; i < blocks; i++ {
		e.Render(dst)
	}
}

func TestPlayProducesAudio(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2, SampleRate: testRate}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.5)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Play(DeckA)
	if !e.IsPlaying(DeckA) {
		t.Fatal("deck not playing after Play")
	}

	dst := make([]float64, testBlock)
	energy := 0.0
	for i := 0; i < 10; i++ {
		e.Render(dst)
		for _, v := range dst {
			energy += v * v
		}
	}
	if energy == 0 {
		t.Fatal("no audio while playing")
	}

	e.Stop(DeckA)
	if e.IsPlaying(DeckA) {
		t.Fatal("deck still playing after Stop")
	}
}

func TestPlayWhilePlayingRestartsFromPauseOffset(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 10, SampleRate: testRate}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 10, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Play(DeckA)
	renderSeconds(e, 2)
	if got := e.Position(DeckA); math.Abs(got-2) > 1e-9 {
		t.Fatalf("position before replay = %v, want 2.0", got)
	}

	// A second Play replaces the running voices and restarts from the
	// stored pause offset instead of overlapping or being ignored.
	e.Play(DeckA)
	if got := e.Position(DeckA); math.Abs(got) > 1e-9 {
		t.Fatalf("position after replay = %v, want 0 (pause offset)", got)
	}
	if !e.IsPlaying(DeckA) {
		t.Fatal("deck stopped by replay")
	}

	dst := make([]float64, testBlock)
	blocks := int(testRate) / testBlock
	for i := 0; i < blocks; i++ {
		e.Render(dst)
	}
	if got := e.Position(DeckA); math.Abs(got-1) > 1e-9 {
		t.Fatalf("position 1 s after replay = %v, want 1.0", got)
	}
	// One voice's worth of DC, not two stacked source sets.
	if got := dst[len(dst)-1]; got > 0.15 {
		t.Fatalf("output level after replay = %v, want single-voice ~0.1", got)
	}
}

func TestPlayOnEmptyDeckIsNoOp(t *testing.T) {
	e := newTestEngine(t)
	e.Play(DeckB)
	if e.IsPlaying(DeckB) {
		t.Fatal("empty deck reported playing")
	}
}

func TestNamedStemEvictsPremix(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.5)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := e.LoadStem(DeckA, "drums", dcBuffer(t, 2, 0.3)); err != nil {
		t.Fatalf("LoadStem: %v", err)
	}

	e.mu.Lock()
	_, hasMix := e.decks[DeckA].stems[MixStem]
	_, hasDrums := e.decks[DeckA].stems["drums"]
	e.mu.Unlock()

	if hasMix {
		t.Fatal("premix stem survived first named stem")
	}
	if !hasDrums {
		t.Fatal("named stem missing after load")
	}
}

func TestRateChangeKeepsPositionContinuous(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 10, SampleRate: testRate}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 10, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Play(DeckA)
	renderSeconds(e, 4)

	if err := e.SetPlaybackRate(DeckA, 1.5); err != nil {
		t.Fatalf("SetPlaybackRate: %v", err)
	}
	if got := e.Position(DeckA); math.Abs(got-4) > 1e-9 {
		t.Fatalf("position after rate change = %v, want 4.0", got)
	}

	renderSeconds(e, 2)
	if got := e.Position(DeckA); math.Abs(got-7) > 1e-9 {
		t.Fatalf("position 2 s after rate change = %v, want 7.0", got)
	}
}

func TestRepeatedRateChangeIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 10}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 10, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Play(DeckA)
	renderSeconds(e, 1)

	e.SetPlaybackRate(DeckA, 1.5)
	want := e.Position(DeckA)
	e.SetPlaybackRate(DeckA, 1.5)
	if got := e.Position(DeckA); math.Abs(got-want) > 1e-9 {
		t.Fatalf("second identical rate change moved position: %v -> %v", want, got)
	}
}

func TestSetPlaybackRateRejectsNonPositive(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := e.SetPlaybackRate(DeckA, 0); err == nil {
		t.Fatal("rate 0 accepted")
	}
	if err := e.SetPlaybackRate(DeckA, -1); err == nil {
		t.Fatal("negative rate accepted")
	}
}

func TestSeekRoundTrip(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 10, SampleRate: testRate}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 10, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Seek(DeckA, 0.25)
	if got := e.Position(DeckA); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("position after seek = %v, want 2.5", got)
	}

	// Seeking while playing must land at the same target.
	e.Play(DeckA)
	renderSeconds(e, 1)
	e.Seek(DeckA, 0.25)
	if got := e.Position(DeckA); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("playing seek position = %v, want 2.5", got)
	}
}

func TestLoopQuantizesAndFoldsPosition(t *testing.T) {
	e := newTestEngine(t)
	// 120 BPM: one beat is 0.5 s.
	info := deck.TrackInfo{BPM: 120, Duration: 20, SampleRate: testRate}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 20, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.Seek(DeckA, 10.02/20)
	e.Play(DeckA)

	// One block in: position ~10.03, which quantizes down to 10.0.
	renderSeconds(e, 0.01)
	e.LoopIn(DeckA)

	// Position ~11.71 quantizes to the nearest beat, 11.5.
	renderSeconds(e, 1.68)
	e.LoopOut(DeckA)

	e.mu.Lock()
	loop := e.decks[DeckA].loop
	start, end, active := loop.Start(), loop.End(), loop.Active()
	e.mu.Unlock()

	if !active {
		t.Fatal("loop not active after LoopOut")
	}
	if math.Abs(start-10.0) > 1e-9 || math.Abs(end-11.5) > 1e-9 {
		t.Fatalf("loop = [%v, %v], want [10.0, 11.5]", start, end)
	}

	// Let the transport run well past the loop end; the reported
	// position must stay folded inside the interval.
	renderSeconds(e, 3)
	folded := e.Position(DeckA)
	if folded < start || folded >= end {
		t.Fatalf("looping position %v outside [%v, %v)", folded, start, end)
	}

	// Exit re-anchors the clock at the audible position.
	e.LoopExit(DeckA)
	got := e.Position(DeckA)
	if got < start || got >= end {
		t.Fatalf("post-exit position %v outside [%v, %v)", got, start, end)
	}
	if math.Abs(got-folded) > 1e-9 {
		t.Fatalf("exit moved position: %v -> %v", folded, got)
	}
}

func TestLoopOpsIgnoredWhileStopped(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}

	e.LoopIn(DeckA)
	e.LoopOut(DeckA)

	e.mu.Lock()
	state := e.decks[DeckA].loop.State()
	e.mu.Unlock()
	if state != deck.LoopInactive {
		t.Fatalf("loop state = %v after ops on stopped deck, want inactive", state)
	}
}

func TestSetEQRejectsUnknownBand(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if err := e.SetEQ(DeckA, "sub", 1.5); err == nil {
		t.Fatal("unknown band accepted")
	}
	if err := e.SetEQ(DeckA, "low", 1.5); err != nil {
		t.Fatalf("valid band rejected: %v", err)
	}
}

func TestPlaySamplerRejectsUnknownKind(t *testing.T) {
	e := newTestEngine(t)
	if err := e.PlaySampler("vuvuzela"); err == nil {
		t.Fatal("unknown sampler kind accepted")
	}
	if err := e.PlaySampler("airhorn"); err != nil {
		t.Fatalf("airhorn rejected: %v", err)
	}

	dst := make([]float64, testBlock)
	e.Render(dst)
	energy := 0.0
	for _, v := range dst {
		energy += v * v
	}
	if energy == 0 {
		t.Fatal("no sampler output after trigger")
	}
}

func TestAnalyserNilBeforeLoad(t *testing.T) {
	e := newTestEngine(t)
	if e.Analyser(DeckA) != nil {
		t.Fatal("analyser exists before any load")
	}

	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.1)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	if e.Analyser(DeckA) == nil {
		t.Fatal("analyser missing after load")
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	info := deck.TrackInfo{BPM: 120, Duration: 2}
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.5)); err != nil {
		t.Fatalf("LoadTrack: %v", err)
	}
	e.Play(DeckA)
	renderSeconds(e, 0.1)

	e.Cleanup()
	e.Cleanup()

	dst := make([]float64, testBlock)
	for i := 0; i < 5; i++ {
		e.Render(dst)
	}
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("output not silent after cleanup at %d: %v", i, v)
		}
	}

	// The engine accepts fresh loads after teardown.
	if err := e.LoadTrack(DeckA, info, dcBuffer(t, 2, 0.5)); err != nil {
		t.Fatalf("LoadTrack after cleanup: %v", err)
	}
	e.Play(DeckA)
	if !e.IsPlaying(DeckA) {
		t.Fatal("deck not playing after reload")
	}
}
