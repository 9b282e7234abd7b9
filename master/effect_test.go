package master

import (
	"math"
	"testing"
)

func TestEffectMapExclusiveSends(t *testing.T) {
	for y := 0.0; y <= 1.0+1e-12; y += 0.01 {
		rev, dist := EffectMap(y)
		if math.Abs(y-0.5) < 1e-12 {
			continue
		}
		if (rev != 0) == (dist != 0) {
			t.Fatalf("y=%v: reverb=%v dist=%v, want exactly one non-zero", y, rev, dist)
		}
	}
}

func TestEffectMapCenterIsDry(t *testing.T) {
	rev, dist := EffectMap(0.5)
	if rev != 0 || dist != 0 {
		t.Fatalf("EffectMap(0.5) = (%v, %v), want (0, 0)", rev, dist)
	}
}

func TestEffectMapLinearScaling(t *testing.T) {
	cases := []struct {
		y        float64
		wantRev  float64
		wantDist float64
	}{
		{1.0, 1.5, 0},
		{0.75, 0.75, 0},
		{0.5, 0, 0},
		{0.25, 0, 0.4},
		{0.0, 0, 0.8},
	}
	for _, tc := range cases {
		rev, dist := EffectMap(tc.y)
		if math.Abs(rev-tc.wantRev) > 1e-12 || math.Abs(dist-tc.wantDist) > 1e-12 {
			t.Errorf("EffectMap(%v) = (%v, %v), want (%v, %v)", tc.y, rev, dist, tc.wantRev, tc.wantDist)
		}
	}
}

func TestEffectMapClampsInput(t *testing.T) {
	rev, _ := EffectMap(2)
	if math.Abs(rev-1.5) > 1e-12 {
		t.Errorf("EffectMap(2) reverb = %v, want clamp to 1.5", rev)
	}
	_, dist := EffectMap(-1)
	if math.Abs(dist-0.8) > 1e-12 {
		t.Errorf("EffectMap(-1) dist = %v, want clamp to 0.8", dist)
	}
}
