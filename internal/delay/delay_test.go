package delay

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	// writeRead(s, d) immediately followed by readInt(d) returns s (spec §8).
	for d := 0; d < 16; d++ {
		ln := New(16)
		for i := 0; i <= d; i++ {
			if i == 0 {
				ln.Write(42)
			} else {
				ln.Write(0)
			}
		}
		got := ln.ReadInt(d)
		if got != 42 {
			t.Fatalf("d=%d: readInt got %f want 42", d, got)
		}
	}
}

func TestReadFloatLinearInterp(t *testing.T) {
	l := New(8)
	vals := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	for _, v := range vals {
		l.Write(v)
	}
	// after writing 8 values, readInt(0) is the last written (8).
	got := l.ReadFloat(0.5)
	want := (l.ReadInt(0) + l.ReadInt(1)) / 2
	if got != want {
		t.Fatalf("readFloat(0.5) = %f, want %f", got, want)
	}
}

func TestAllpassPreservesMagnitudeRoughly(t *testing.T) {
	l := New(16)
	var maxOut float32
	for i := 0; i < 1000; i++ {
		in := float32(0)
		if i%7 == 0 {
			in = 1
		}
		out := l.Allpass(in, 0.5, 4)
		if out > maxOut {
			maxOut = out
		}
	}
	if maxOut > 3 {
		t.Fatalf("allpass output grew unexpectedly large: %f", maxOut)
	}
}

func TestClearZeroesBuffer(t *testing.T) {
	l := New(8)
	for i := 0; i < 8; i++ {
		l.Write(float32(i + 1))
	}
	l.Clear()
	for d := 0; d < 8; d++ {
		if l.ReadInt(d) != 0 {
			t.Fatalf("expected zero after Clear, got %f at d=%d", l.ReadInt(d), d)
		}
	}
}
