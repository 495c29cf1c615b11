package resonator

import (
	"math"
	"testing"
)

func TestModalConfigureBlockProducesActiveModes(t *testing.T) {
	m := NewModal()
	m.ConfigureBlock(0.5, 0.5, 0.5, 0.5, 110.0/48000.0)
	if m.active == 0 {
		t.Fatal("expected at least one active mode")
	}
	if m.active > maxModes {
		t.Fatalf("active modes %d exceeds bank size %d", m.active, maxModes)
	}
}

func TestModalProcessStaysFinite(t *testing.T) {
	m := NewModal()
	m.ConfigureBlock(0.3, 0.6, 0.4, 0.2, 220.0/48000.0)
	for i := 0; i < 2000; i++ {
		x := 0.0
		if i == 0 {
			x = 1.0
		}
		out := m.Process(x)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("non-finite output at sample %d: %v", i, out)
		}
	}
}

func TestStringTickRingsDownAfterImpulse(t *testing.T) {
	s := NewString()
	delaySamples := 100.0
	var peak, tail float64
	for i := 0; i < 20000; i++ {
		x := 0.0
		if i == 0 {
			x = 1.0
		}
		out, _ := s.Tick(x, delaySamples, 0.5, 0.3, 0.0, 0.5)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("non-finite output at sample %d", i)
		}
		if math.Abs(out) > peak {
			peak = math.Abs(out)
		}
		if i >= 19000 {
			tail += math.Abs(out)
		}
	}
	if peak == 0 {
		t.Fatal("expected nonzero response to impulse")
	}
	if tail/1000 > peak*0.1 {
		t.Fatalf("string did not decay: tail avg %v vs peak %v", tail/1000, peak)
	}
}

func TestStringDispersionStaysStable(t *testing.T) {
	s := NewString()
	for i := 0; i < 5000; i++ {
		x := 0.0
		if i == 0 {
			x = 1.0
		}
		out, aux := s.Tick(x, 80.0, 0.8, 0.5, 0.7, 0.3)
		if math.IsNaN(out) || math.IsInf(out, 0) || math.IsNaN(aux) || math.IsInf(aux, 0) {
			t.Fatalf("non-finite output with dispersion at sample %d", i)
		}
	}
}

func TestQuantizeRatioSnapsToTable(t *testing.T) {
	r := QuantizeRatio(1.0)
	if math.Abs(r-1.0) > 0.05 {
		t.Fatalf("expected ratio near 1.0, got %v", r)
	}
}

func TestFMVoiceProcessStaysBounded(t *testing.T) {
	v := NewFMVoice()
	v.Configure(2.0, 0.3, 48000)
	for i := 0; i < 4800; i++ {
		out, aux := v.Process(220, 48000, 0.5, 1.0)
		if math.IsNaN(out) || math.IsInf(out, 0) {
			t.Fatalf("non-finite carrier output at sample %d", i)
		}
		if math.IsNaN(aux) || math.IsInf(aux, 0) {
			t.Fatalf("non-finite aux output at sample %d", i)
		}
		if math.Abs(out) > 4 {
			t.Fatalf("output exceeds sane bound: %v", out)
		}
	}
}

func TestPluckerDecaysToInactive(t *testing.T) {
	p := NewPlucker()
	p.Trigger(200, 0.5)
	if !p.Active() {
		t.Fatal("expected plucker active right after trigger")
	}
	for i := 0; i < 100000 && p.Active(); i++ {
		p.Next()
	}
	if p.Active() {
		t.Fatal("expected plucker to become inactive after decay")
	}
}

func TestPluckerSilentBeforeTrigger(t *testing.T) {
	p := NewPlucker()
	if p.Next() != 0 {
		t.Fatal("expected silence before first trigger")
	}
}
