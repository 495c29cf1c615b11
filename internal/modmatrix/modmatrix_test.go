package modmatrix

import (
	"math"
	"testing"
)

func TestValueStaysBipolarBounded(t *testing.T) {
	m := New(2, WaveSine)
	for i := 0; i < 1000; i++ {
		m.Advance(1.0 / 1000)
		v := m.Value()
		if v < -1.0001 || v > 1.0001 {
			t.Fatalf("value out of [-1,1]: %v", v)
		}
	}
}

func TestApplyScalesByDepthAndPolarity(t *testing.T) {
	m := New(1, WaveRamp)
	m.SetRoutes([]Route{
		{Destination: DestPitch, Depth: 2, Bipolar: true},
		{Destination: DestPWM, Depth: 1, Bipolar: false},
	})
	out := m.Apply()
	if math.Abs(out[DestPitch]) > 2.0001 {
		t.Fatalf("bipolar route exceeded depth scaling: %v", out[DestPitch])
	}
	if out[DestPWM] < 0 || out[DestPWM] > 1.0001 {
		t.Fatalf("unipolar route not folded into [0,1]: %v", out[DestPWM])
	}
}

func TestSampleHoldChangesOnlyAtPhaseWrap(t *testing.T) {
	m := New(1, WaveSampleHold)
	first := m.Value()
	m.Advance(0.1)
	second := m.Value()
	if first != second {
		t.Fatalf("sample-and-hold changed mid-cycle: %v -> %v", first, second)
	}
}
