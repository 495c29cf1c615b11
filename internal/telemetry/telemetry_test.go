package telemetry

import (
	"io"
	"testing"
)

func TestRingPushPopOrder(t *testing.T) {
	r := NewRing(4)
	r.Push(Event{Kind: EventVoiceStolen, VoiceID: 1})
	r.Push(Event{Kind: EventQueueOverflow, VoiceID: 2})

	e, ok := r.pop()
	if !ok || e.VoiceID != 1 {
		t.Fatalf("expected first event voiceID 1, got %+v", e)
	}
	e, ok = r.pop()
	if !ok || e.VoiceID != 2 {
		t.Fatalf("expected second event voiceID 2, got %+v", e)
	}
}

func TestRingDropsWhenFull(t *testing.T) {
	r := NewRing(2)
	for i := 0; i < 5; i++ {
		r.Push(Event{Kind: EventOnsetDetected, Value: float64(i)})
	}
	count := 0
	for {
		if _, ok := r.pop(); !ok {
			break
		}
		count++
	}
	if count > 2 {
		t.Fatalf("expected ring capacity to cap stored events at 2, got %d", count)
	}
}

func TestReporterDrainConsumesAllEvents(t *testing.T) {
	r := NewRing(8)
	r.Push(Event{Kind: EventVoiceStolen})
	r.Push(Event{Kind: EventReverbFault})
	rep := NewReporter(r, io.Discard)
	rep.Drain()
	if _, ok := r.pop(); ok {
		t.Fatal("expected ring drained after Drain()")
	}
}

func TestNewReporterAssignsDistinctInstanceIDs(t *testing.T) {
	a := NewReporter(NewRing(1), io.Discard)
	b := NewReporter(NewRing(1), io.Discard)
	if a.InstanceID() == b.InstanceID() {
		t.Fatal("expected distinct instance IDs across reporters")
	}
}
