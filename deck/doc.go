// Package deck implements the per-deck half of the mixing engine: stem
// buffers, the persistent processing chain (isolator, sweep filter,
// spectrum analyser), the transport clock and the beat-quantized loop
// state machine.
//
// Everything in this package is driven by the engine's sample clock.
// Types here are not safe for concurrent use; the engine serializes
// access by absorbing control commands at block boundaries.
package deck
