package ringforge

import (
	"math"
	"testing"

	"ringforge/internal/message"
)

func TestProcessProducesFiniteAudio(t *testing.T) {
	e := New(48000, WithPolyphony(2), WithModel(0))
	outL := make([]float32, 480)
	outR := make([]float32, 480)
	e.Submit(message.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0))

	if err := e.Process(outL, outR, nil); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	for i := range outL {
		if math.IsNaN(float64(outL[i])) || math.IsInf(float64(outL[i]), 0) {
			t.Fatalf("non-finite left sample at %d", i)
		}
		if math.IsNaN(float64(outR[i])) || math.IsInf(float64(outR[i]), 0) {
			t.Fatalf("non-finite right sample at %d", i)
		}
	}
}

func TestProcessRejectsMismatchedLengths(t *testing.T) {
	e := New(48000)
	if err := e.Process(make([]float32, 10), make([]float32, 5), nil); err == nil {
		t.Fatal("expected error on mismatched output lengths")
	}
}

func TestWatchReceivesTriggerEvent(t *testing.T) {
	e := New(48000)
	ch := e.Watch()
	e.Submit(message.TriggerNote(5, 64, 1.0, false, false, false, 0, 0, 0, 0))
	outL := make([]float32, 24)
	outR := make([]float32, 24)
	e.Process(outL, outR, nil)

	select {
	case ev := <-ch:
		if ev.Kind != EventVoiceTriggered || ev.VoiceID != 5 {
			t.Fatalf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("expected a voice-triggered event")
	}
}

func TestReadGrainSeedReflectsRenderedAudio(t *testing.T) {
	e := New(48000, WithPolyphony(1))
	outL := make([]float32, 480)
	outR := make([]float32, 480)
	e.Submit(message.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0))
	e.Process(outL, outR, nil)

	l, r := e.ReadGrainSeed(1)
	if math.IsNaN(float64(l)) || math.IsNaN(float64(r)) {
		t.Fatalf("expected finite grain seed, got l=%v r=%v", l, r)
	}
}

func TestModBusMovesRegisteredStructureParam(t *testing.T) {
	e := New(48000)
	initial := e.patch.Structure
	outL := make([]float32, 480)
	outR := make([]float32, 480)

	moved := false
	for block := 0; block < 50; block++ {
		if err := e.Process(outL, outR, nil); err != nil {
			t.Fatalf("Process returned error: %v", err)
		}
		e.mu.Lock()
		cur := e.patch.Structure
		e.mu.Unlock()
		if cur != initial {
			moved = true
			break
		}
	}
	if !moved {
		t.Fatal("expected the registered patch.structure modbus param to move e.patch.Structure over time")
	}
}

func TestAdvanceClockFiresOnGatedStep(t *testing.T) {
	e := New(48000)
	gate := []bool{false, true, false, true}
	accent := []bool{false, false, false, false}
	slide := []bool{false, false, false, false}
	trill := []bool{false, false, false, false}
	e.AdvanceClock(0, gate, accent, slide, trill, 100, 50)
	// queue should now contain at least a trigger message
	if e.queue.Len() == 0 {
		t.Fatal("expected AdvanceClock to enqueue at least one message")
	}
}
