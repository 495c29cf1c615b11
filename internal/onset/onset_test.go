package onset

import "testing"

func TestDetectorDeclaresOnsetOnImpulse(t *testing.T) {
	d := NewDetector(200, 2000, 48000, 48000.0/64)
	declared := false
	for i := 0; i < 2000; i++ {
		x := 0.0
		if i == 100 {
			x = 1.0
		}
		if d.Process(x) {
			declared = true
		}
	}
	if !declared {
		t.Fatal("expected an onset to be declared after an impulse")
	}
}

func TestDetectorInhibitsRapidRetrigger(t *testing.T) {
	d := NewDetector(200, 2000, 48000, 48000.0/64)
	d.SetIOISeconds(1.0)
	count := 0
	for i := 0; i < 48000; i++ {
		x := 0.0
		if i%500 == 0 {
			x = 1.0
		}
		if d.Process(x) {
			count++
		}
	}
	if count > 3 {
		t.Fatalf("expected inhibition to suppress most rapid retriggers, got %d onsets", count)
	}
}

func TestStrummerExternalExciterFollowsOnset(t *testing.T) {
	s := NewStrummer(true)
	if s.Update(true, 0, false) != true {
		t.Fatal("expected strum true when onset true with external exciter")
	}
	if s.Update(false, 0, false) != false {
		t.Fatal("expected strum false when onset false with external exciter")
	}
}

func TestStrummerNoteCVDetectsChange(t *testing.T) {
	s := NewStrummer(false)
	if s.Update(false, 60, true) != true {
		t.Fatal("expected strum true on first note")
	}
	if s.Update(false, 60, true) != false {
		t.Fatal("expected strum false on repeated note")
	}
	if s.Update(false, 62, true) != true {
		t.Fatal("expected strum true on note change")
	}
}
