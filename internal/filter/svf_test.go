package filter

import (
	"math"
	"testing"
)

func TestSVFHInvariant(t *testing.T) {
	f := NewSVF()
	for _, freq := range []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.497} {
		for _, q := range []float64{0.5, 1, 2, 10} {
			f.SetFQ(freq, q)
			got := f.H() * (1 + f.R()*f.G() + f.G()*f.G())
			if math.Abs(got-1) > 1e-9 {
				t.Fatalf("h*(1+rg+g^2) = %f, want 1 (freq=%f q=%f)", got, freq, q)
			}
		}
	}
}

func TestSVFClampsNearNyquist(t *testing.T) {
	f := NewSVF()
	f.SetFQ(0.6, 1)
	clamped := f.G()
	f2 := NewSVF()
	f2.SetFQ(0.497, 1)
	if clamped != f2.G() {
		t.Fatalf("frequencies above 0.497 should clamp to 0.497")
	}
}

func TestSVFStableOverManySamples(t *testing.T) {
	f := NewSVF()
	f.SetFQ(0.1, 5)
	for i := 0; i < 100000; i++ {
		x := 0.0
		if i%3 == 0 {
			x = 1
		}
		out := f.Process(x, LP)
		if math.IsNaN(out) || math.IsInf(out, 0) || math.Abs(out) > 100 {
			t.Fatalf("SVF became unstable at sample %d: %f", i, out)
		}
	}
}
