// Package engine ties the decks, master bus and sampler into one
// control surface. Control calls return immediately: every graph
// mutation is pushed onto a command queue the render thread absorbs at
// the next block boundary, and every audible parameter change lands in
// a smoothed ramp. The render thread never blocks and never logs.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-deck/deck"
	"github.com/cwbudde/algo-deck/master"
	"github.com/cwbudde/algo-deck/sampler"
)

const (
	defaultSampleRate = 48000.0
	commandQueueSize  = 256
)

// DeckA and DeckB are the conventional two-deck identities. Any other
// id works; decks are created on first load.
const (
	DeckA = "A"
	DeckB = "B"
)

type config struct {
	sampleRate float64
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*config)

// WithSampleRate sets the engine sample rate (default 48 kHz).
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) {
		if sampleRate > 0 {
			cfg.sampleRate = sampleRate
		}
	}
}

// WithLogger sets the logger for control-path warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// stem is the control-side record of one loaded stem buffer.
type stem struct {
	buf   *deck.Buffer
	mono  []float64
	gain  float64
	muted bool
}

// deckState is the control-side state of one deck. The chain pointer
// is shared with the render thread but only mutated through commands.
type deckState struct {
	id    string
	info  deck.TrackInfo
	stems map[string]*stem
	clock *deck.Clock
	loop  *deck.Loop
	chain *deck.Chain
}

// duration returns the playable length: the longest loaded buffer,
// falling back to the analysis metadata.
func (ds *deckState) duration() float64 {
	d := 0.0
	for _, s := range ds.stems {
		if bd := s.buf.Duration(); bd > d {
			d = bd
		}
	}
	if d == 0 {
		d = ds.info.Duration
	}

	return d
}

// playbackSet snapshots the stems as playback descriptors, applying
// the persisted mute state at voice-creation time.
func (ds *deckState) playbackSet() []deck.StemPlayback {
	set := make([]deck.StemPlayback, 0, len(ds.stems))
	for name, s := range ds.stems {
		gain := s.gain
		if s.muted {
			gain = 0
		}
		set = append(set, deck.StemPlayback{
			Name:       name,
			Data:       s.mono,
			SampleRate: s.buf.SampleRate,
			Gain:       gain,
		})
	}

	return set
}

// Engine is the two-deck mixing engine.
type Engine struct {
	sampleRate float64
	log        *slog.Logger

	mu    sync.Mutex
	decks map[string]*deckState

	commands chan func()

	// Render-side state, touched only by the render thread (and by
	// commands, which run on it).
	bus          *master.Bus
	smp          *sampler.Sampler
	renderChains []*deck.Chain
	deckBuf      []float64

	samplePos atomic.Int64
}

// New constructs an engine. The master bus is built eagerly: deck
// chains connect to it, so it must exist before any chain does.
func New(opts ...Option) (*Engine, error) {
	cfg := config{sampleRate: defaultSampleRate, logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	bus, err := master.NewBus(cfg.sampleRate)
	if err != nil {
		return nil, fmt.Errorf("engine: build master bus: %w", err)
	}

	return &Engine{
		sampleRate: cfg.sampleRate,
		log:        cfg.logger,
		decks:      map[string]*deckState{},
		commands:   make(chan func(), commandQueueSize),
		bus:        bus,
		smp:        sampler.New(cfg.sampleRate),
	}, nil
}

// SampleRate returns the engine processing rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// Now returns the engine clock in seconds: samples rendered so far
// divided by the sample rate.
func (e *Engine) Now() float64 {
	return float64(e.samplePos.Load()) / e.sampleRate
}

// push schedules a command for the next block boundary. The control
// path never blocks: when the queue is full the command is dropped
// with a warning, which only happens if nothing is rendering.
func (e *Engine) push(cmd func()) {
	select {
	case e.commands <- cmd:
	default:
		e.log.Warn("engine: command queue full, dropping command")
	}
}

// ensureDeck returns the deck state for id, creating it on first use.
// Callers must hold e.mu.
func (e *Engine) ensureDeck(id string) *deckState {
	ds, ok := e.decks[id]
	if !ok {
		ds = &deckState{
			id:    id,
			stems: map[string]*stem{},
			clock: deck.NewClock(),
			loop:  deck.NewLoop(),
		}
		e.decks[id] = ds
	}

	return ds
}

// ensureChain builds the deck's persistent chain once and registers it
// with the render thread. Idempotent. Callers must hold e.mu.
func (e *Engine) ensureChain(ds *deckState) error {
	if ds.chain != nil {
		return nil
	}

	chain, err := deck.NewChain(e.sampleRate)
	if err != nil {
		return fmt.Errorf("engine: build chain for deck %s: %w", ds.id, err)
	}
	ds.chain = chain

	e.push(func() { e.renderChains = append(e.renderChains, chain) })

	return nil
}
