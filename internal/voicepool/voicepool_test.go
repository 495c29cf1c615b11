package voicepool

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTriggerNotePolyAllocatesDistinctSlots(t *testing.T) {
	p := NewPool(ModePoly)
	i1 := p.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0.125)
	i2 := p.TriggerNote(2, 64, 1.0, false, false, false, 0, 1, 0, 0.125)
	assert.NotEqual(t, i1, i2)
}

func TestTriggerNoteMonoAlwaysSlotZero(t *testing.T) {
	p := NewPool(ModeMono)
	i1 := p.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0.125)
	i2 := p.TriggerNote(2, 64, 1.0, false, false, false, 0, 1, 0, 0.125)
	assert.Equal(t, 0, i1)
	assert.Equal(t, 0, i2)
}

func TestVoiceStealingPicksHighestScore(t *testing.T) {
	p := NewPool(ModePoly)
	for i := 0; i < 8; i++ {
		p.TriggerNote(uint64(i+1), 60+i, 1.0, false, false, false, 0, i, 0, 0.125)
	}
	p.Advance(1.0)
	// every slot has the same age, velocity and register, so all eight tie
	// on the highest steal score and the first of them, slot 0, is stolen
	// for a 9th note.
	idx := p.TriggerNote(100, 72, 1.0, false, false, false, 1.0, 8, 0, 0.125)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Less(t, idx, 8)
	assert.Equal(t, 0, idx)
}

func TestReleaseVoiceTransitionsToReleasing(t *testing.T) {
	p := NewPool(ModePoly)
	idx := p.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0.125)
	p.ReleaseVoice(1, 0, 0.2)
	assert.Equal(t, StateReleasing, p.slots[idx].State)
}

func TestCheckReleasedPromotesToInactiveAfterDeadline(t *testing.T) {
	p := NewPool(ModePoly)
	idx := p.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0.125)
	p.ReleaseVoice(1, 0, 0.2)
	p.CheckReleased(10.0)
	assert.Equal(t, StateInactive, p.slots[idx].State)
}

func TestReleaseAllVoicesResetsEverySlot(t *testing.T) {
	p := NewPool(ModePoly)
	p.TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0.125)
	p.TriggerNote(2, 62, 1.0, false, false, false, 0, 1, 0, 0.125)
	p.ReleaseAllVoices()
	for i, s := range p.slots {
		assert.Equalf(t, StateInactive, s.State, "slot %d", i)
	}
}

func TestAccentedVelocityScalingUnchangedNonAccentedHalved(t *testing.T) {
	p := NewPool(ModePoly)
	i1 := p.TriggerNote(1, 60, 1.0, true, false, false, 0, 0, 0, 0.125)
	i2 := p.TriggerNote(2, 62, 1.0, false, false, false, 0, 1, 0, 0.125)
	assert.Equal(t, 1.0, p.slots[i1].Velocity)
	assert.Equal(t, 0.5, p.slots[i2].Velocity)
}

func TestTrillPlanSegmentsAlternateByStepParity(t *testing.T) {
	p := NewPool(ModePoly)
	i1 := p.TriggerNote(1, 60, 1.0, false, false, true, 0, 0, 2, 0.125)
	i2 := p.TriggerNote(2, 62, 1.0, false, false, true, 0, 1, 2, 0.125)
	assert.Equal(t, 3, p.slots[i1].Pitch.TrillSegments)
	assert.Equal(t, 2, p.slots[i2].Pitch.TrillSegments)
}

func TestTrillTargetUsesScaleRelativeSemitoneOffset(t *testing.T) {
	p := NewPool(ModePoly)
	// C3 (60) trilling a major second (2 semitones) to D3, per spec §8
	// scenario 6, not a fixed interval like a hardcoded perfect fifth.
	idx := p.TriggerNote(1, 60, 1.0, false, false, true, 0, 0, 2, 0.125)
	want := ratioForSemitones(2)
	assert.InDelta(t, want, p.slots[idx].Pitch.TrillTarget, 1e-6)
	assert.NotEqual(t, math.Round(ratioForSemitones(7)*1e6), math.Round(p.slots[idx].Pitch.TrillTarget*1e6))
}
