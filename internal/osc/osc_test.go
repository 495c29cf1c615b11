package osc

import (
	"math"
	"testing"
)

func TestCosineExactMatchesMathCos(t *testing.T) {
	c := &Cosine{}
	c.SetFreqExact(0.01)
	for i := 0; i < 50; i++ {
		got := c.Next() - 0.5
		want := 0.5 * math.Cos(2*math.Pi*0.01*float64(i+1))
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("sample %d: got %f want %f", i, got, want)
		}
	}
}

func TestSegmentEnvelopeARHoldsAndReleases(t *testing.T) {
	e := NewAR(0.01, 0.01, false)
	e.Trigger()
	sr := 1000.0
	for i := 0; i < 20; i++ {
		e.Next(sr)
	}
	if e.value < 0.99 {
		t.Fatalf("expected envelope near 1 after attack, got %f", e.value)
	}
	e.Release()
	for i := 0; i < 20; i++ {
		e.Next(sr)
	}
	if e.Active() {
		t.Fatalf("expected envelope idle after release decay")
	}
}

func TestPolyBLEPZeroAwayFromEdges(t *testing.T) {
	if v := PolyBLEP(0.5, 0.01); v != 0 {
		t.Fatalf("expected 0 away from discontinuity, got %f", v)
	}
}
