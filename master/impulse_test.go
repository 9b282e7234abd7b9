package master

import (
	"math"
	"testing"
)

func TestImpulseLengthAndRange(t *testing.T) {
	const sampleRate = 48000.0
	ir := Impulse(sampleRate)

	if got, want := len(ir), int(3*sampleRate); got != want {
		t.Fatalf("impulse length = %d, want %d", got, want)
	}
	for i, v := range ir {
		if math.Abs(v) > 1 {
			t.Fatalf("sample %d = %v outside [-1, 1]", i, v)
		}
	}
}

func TestImpulseEnvelopeDecays(t *testing.T) {
	ir := Impulse(48000)
	n := len(ir)

	peakIn := func(lo, hi int) float64 {
		peak := 0.0
		for i := lo; i < hi; i++ {
			if a := math.Abs(ir[i]); a > peak {
				peak = a
			}
		}
		return peak
	}

	attack := peakIn(0, n/100)
	middle := peakIn(n/2, n/2+n/100)
	tail := peakIn(n-n/100, n)

	if attack < 0.9 {
		t.Fatalf("attack peak = %v, want full-amplitude noise", attack)
	}
	// (1 - 0.5)^2 = 0.25 halfway through.
	if middle > 0.3 || middle < 0.15 {
		t.Fatalf("midpoint peak = %v, want ~0.25", middle)
	}
	if tail > 0.01 {
		t.Fatalf("tail peak = %v, want near silence", tail)
	}
}

func TestImpulseIsDeterministic(t *testing.T) {
	a := Impulse(44100)
	b := Impulse(44100)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("impulse differs at sample %d", i)
		}
	}
}
