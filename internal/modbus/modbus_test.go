package modbus

import (
	"math"
	"testing"
)

func TestLFOSourceAppliesWithinRange(t *testing.T) {
	b := NewBus()
	var got float64
	p := &Param{
		ID: "cutoff", Min: 0, Max: 1, Depth: 0.5,
		Source: SourceLFO,
		LFO:    LFOConfig{RateHz: 2, Waveform: WaveSine},
		Apply:  func(id string, v float64) { got = v },
	}
	b.Register(p, 0.5)
	for i := 0; i < 100; i++ {
		b.Tick(1.0/30, false, false, false, nil)
		if got < 0 || got > 1 {
			t.Fatalf("value out of declared range: %v", got)
		}
	}
}

func TestSeqSourceSteppedThroughPattern(t *testing.T) {
	b := NewBus()
	var got []float64
	p := &Param{
		ID: "x", Min: -1, Max: 1, Depth: 1,
		Source: SourceSeq,
		Seq:    SeqConfig{Pattern: []float64{0, 1, 0.5}, RateHz: 30},
		Apply:  func(id string, v float64) { got = append(got, v) },
	}
	b.Register(p, 0)
	for i := 0; i < 3; i++ {
		b.Tick(1.0/30, false, false, false, nil)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(got))
	}
}

func TestEnvSourceTriggersOnNoteOn(t *testing.T) {
	b := NewBus()
	var got float64
	p := &Param{
		ID: "env", Min: -1, Max: 1, Depth: 1,
		Source: SourceEnv,
		Env:    EnvConfig{Trigger: EnvOnNoteOn, AttackMs: 10, ReleaseMs: 100},
		Apply:  func(id string, v float64) { got = v },
	}
	b.Register(p, 0)
	b.Tick(1.0/30, false, false, true, nil)
	if got <= -1 {
		t.Fatalf("expected envelope to begin rising on note-on, got %v", got)
	}
}

func TestTMSourceProducesFixedPointValue(t *testing.T) {
	b := NewBus()
	var got float64
	p := &Param{
		ID: "tm", Min: -1, Max: 1, Depth: 1,
		Source: SourceTM,
		TM:     TMConfig{Length: 8, Probability: 0.5},
		Apply:  func(id string, v float64) { got = v },
	}
	b.Register(p, 0)
	for i := 0; i < 16; i++ {
		b.Tick(1.0/30, true, false, false, nil)
	}
	if math.IsNaN(got) {
		t.Fatal("TM source produced NaN")
	}
}

func TestEFSourceFollowsExternalInput(t *testing.T) {
	b := NewBus()
	var got float64
	p := &Param{
		ID: "ef", Min: -1, Max: 1, Depth: 1,
		Source: SourceEF,
		EF:     EFConfig{AttackMs: 5, ReleaseMs: 50},
		Apply:  func(id string, v float64) { got = v },
	}
	b.Register(p, 0)
	for i := 0; i < 1000; i++ {
		b.Tick(1.0/30, false, false, false, func(string) float64 { return 1.0 })
	}
	if got < 0.5 {
		t.Fatalf("expected envelope follower to rise toward input, got %v", got)
	}
}
