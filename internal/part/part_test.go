package part

import (
	"math"
	"testing"
)

func TestRenderBlockProducesFiniteOutput(t *testing.T) {
	p := New(48000, 2, ModelModal)
	outL := make([]float32, 24)
	outR := make([]float32, 24)
	input := make([]float32, 24)
	input[0] = 1.0
	patch := Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5}

	for block := 0; block < 100; block++ {
		p.RenderBlock(outL, outR, input, 60, block == 0, patch, 0)
		for i := range outL {
			if math.IsNaN(float64(outL[i])) || math.IsInf(float64(outL[i]), 0) {
				t.Fatalf("non-finite left output at block %d sample %d", block, i)
			}
			if math.IsNaN(float64(outR[i])) || math.IsInf(float64(outR[i]), 0) {
				t.Fatalf("non-finite right output at block %d sample %d", block, i)
			}
		}
		input[0] = 0
	}
}

func TestMonoPolyphonyMixesToBothChannelsEqually(t *testing.T) {
	p := New(48000, 1, ModelModal)
	outL := make([]float32, 24)
	outR := make([]float32, 24)
	input := make([]float32, 24)
	input[0] = 1.0
	patch := Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5}
	p.RenderBlock(outL, outR, input, 60, true, patch, 0)
	for i := range outL {
		if outL[i] != outR[i] {
			t.Fatalf("expected mono polyphony to sum identically to L/R at %d: %v vs %v", i, outL[i], outR[i])
		}
	}
}

func TestNoteFilterMedianSmoothsJitter(t *testing.T) {
	f := NewNoteFilter()
	var last float64
	for i := 0; i < 20; i++ {
		note := 60.0
		if i%2 == 0 {
			note = 61.0 // simulate jitter
		}
		last, _ = f.Process(note, false)
	}
	if last < 59 || last > 62 {
		t.Fatalf("expected smoothed note near 60-61, got %v", last)
	}
}

func TestChordFrequenciesStringAndReverbUsesChordTable(t *testing.T) {
	p := New(48000, 3, ModelStringAndReverb)
	freqs := p.chordFrequencies(220, 0.9, 1)
	if len(freqs) != 3 {
		t.Fatalf("expected 3 frequencies, got %d", len(freqs))
	}
	for i, f := range freqs {
		if f <= 0 {
			t.Fatalf("frequency %d not positive: %v", i, f)
		}
	}
}

func TestStrumTriggersPluckerOnStringModels(t *testing.T) {
	p := New(48000, 1, ModelPluckedString)
	outL := make([]float32, 24)
	outR := make([]float32, 24)
	patch := Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5}
	p.RenderBlock(outL, outR, nil, 60, true, patch, 0)
	if !p.voices[0].Plucker.Active() {
		t.Fatal("expected strum to trigger the Plucker excitation")
	}
}

func TestFMVoiceEnergyScalesModulationAmount(t *testing.T) {
	p := New(48000, 1, ModelFMVoice)
	outL := make([]float32, 24)
	outR := make([]float32, 24)
	input := make([]float32, 24)
	for i := range input {
		input[i] = 1.0
	}
	patch := Patch{Structure: 0.5, Brightness: 1.0, Damping: 0.5, Position: 0.5}
	p.RenderBlock(outL, outR, input, 60, true, patch, 0)
	for i := range outL {
		if math.IsNaN(float64(outL[i])) || math.IsInf(float64(outL[i]), 0) {
			t.Fatalf("non-finite FM output at %d", i)
		}
	}
}

func TestAdvanceActiveVoiceStaysInRange(t *testing.T) {
	p := New(48000, 3, ModelModal)
	for i := 0; i < 20; i++ {
		p.advanceActiveVoice()
		if p.activeVoice < 0 || p.activeVoice >= p.polyphony {
			t.Fatalf("activeVoice out of range: %d", p.activeVoice)
		}
	}
}

func TestSetPitchPlanArmsPortamentoRampOnNextStrum(t *testing.T) {
	p := New(48000, 1, ModelModal)
	p.SetPitchPlan(PitchPlan{Kind: PitchPortamento, StartRatio: 0.5, RampSeconds: 0.1})

	outL := make([]float32, 24)
	outR := make([]float32, 24)
	input := make([]float32, 24)
	patch := Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5}

	p.RenderBlock(outL, outR, input, 60, true, patch, 0)
	if p.pitchPlan.Kind != PitchPortamento {
		t.Fatalf("expected strum to apply the armed portamento plan, got kind %v", p.pitchPlan.Kind)
	}
	if p.pitchRatio <= 0.5 || p.pitchRatio >= 1.0 {
		t.Fatalf("expected ratio to have ramped partway from 0.5 toward 1.0, got %v", p.pitchRatio)
	}

	for block := 0; block < 200; block++ {
		p.RenderBlock(outL, outR, input, 60, false, patch, 0)
	}
	if math.Abs(p.pitchRatio-1.0) > 1e-3 {
		t.Fatalf("expected ratio to have settled near 1.0 after the ramp, got %v", p.pitchRatio)
	}
}

func TestSetPitchPlanTrillAlternatesBetweenBaseAndTarget(t *testing.T) {
	p := New(48000, 1, ModelModal)
	p.SetPitchPlan(PitchPlan{
		Kind:          PitchTrill,
		TrillSegments: 2,
		TrillBase:     1.0,
		TrillTarget:   1.5,
		StepDuration:  0.1,
	})

	outL := make([]float32, 24)
	outR := make([]float32, 24)
	input := make([]float32, 24)
	patch := Patch{Structure: 0.5, Brightness: 0.5, Damping: 0.5, Position: 0.5}
	p.RenderBlock(outL, outR, input, 60, true, patch, 0)

	sawBase, sawTarget := false, false
	for block := 0; block < 400; block++ {
		p.RenderBlock(outL, outR, input, 60, false, patch, 0)
		if p.pitchRatio == 1.0 {
			sawBase = true
		}
		if p.pitchRatio == 1.5 {
			sawTarget = true
		}
	}
	if !sawBase || !sawTarget {
		t.Fatalf("expected trill to alternate between base (1.0) and target (1.5) ratios, got base=%v target=%v", sawBase, sawTarget)
	}
}
