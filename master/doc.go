// Package master implements the shared master bus: the append-only
// input sum both decks and the sampler feed, the master gain and sweep
// filter, and the XY-pad-driven reverb and distortion sends.
package master
