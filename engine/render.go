package engine

// Render produces one mono output block. It is the only method meant
// for the audio callback: it drains the command queue, renders every
// deck chain into the master bus input, adds the sampler voices and
// runs the master bus. It never blocks, allocates only to grow its
// scratch buffer, and advances the engine clock by len(dst) samples.
func (e *Engine) Render(dst []float64) {
	e.drainCommands()

	n := len(dst)
	if n == 0 {
		return
	}
	if cap(e.deckBuf) < n {
		e.deckBuf = make([]float64, n)
	}
	buf := e.deckBuf[:n]

	in := e.bus.Input(n)
	for _, chain := range e.renderChains {
		chain.Render(buf)
		for i := range in {
			in[i] += buf[i]
		}
	}
	e.smp.RenderAdd(in)

	e.bus.Render(dst)
	e.samplePos.Add(int64(n))
}

// drainCommands absorbs all queued control commands. Runs once per
// block, so every command takes effect at a block boundary.
func (e *Engine) drainCommands() {
	for {
		select {
		case cmd := <-e.commands:
			cmd()
		default:
			return
		}
	}
}
