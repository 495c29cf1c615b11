package clouds

import "testing"

func TestCaptureThenReadGrainSeedReturnsWrittenSample(t *testing.T) {
	b := New(1024)
	for i := 0; i < 10; i++ {
		b.Capture(float32(i), float32(-i))
	}
	l, r := b.ReadGrainSeed(1)
	if l <= 0 || r >= 0 {
		t.Fatalf("expected nonzero capture content, got l=%v r=%v", l, r)
	}
}

func TestFrozenBufferIgnoresFurtherCapture(t *testing.T) {
	b := New(64)
	b.SetParams(Params{Frozen: true})
	b.Capture(1, 1)
	if b.Params().Frozen != true {
		t.Fatalf("expected frozen flag to stick")
	}
	if l, r := b.ReadGrainSeed(1); l != 0 || r != 0 {
		t.Fatalf("expected capture into a frozen buffer to be ignored, got l=%v r=%v", l, r)
	}
}
