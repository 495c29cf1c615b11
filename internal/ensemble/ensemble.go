// Package ensemble implements the Chorus/Ensemble multi-tap modulated delay
// (spec §2 row 7), built on internal/fx the same way Reverb is, grounded on
// the teacher's internal/effects.Chorus modulated-delay-read technique.
package ensemble

import (
	"math"

	"ringforge/internal/fx"
)

const arenaSize = 8192

// Ensemble runs three LFO-modulated taps at slightly detuned rates into a
// shared delay segment, the "multi-tap" texture named in spec §2 row 7.
type Ensemble struct {
	engine *fx.Engine
	seg    fx.Segment
	depth  float64 // modulation depth in samples
	wet    float64
	phase  [3]float64
	rate   [3]float64
}

func New(sampleRate float64, rateHz, depthSamples, wet float64) *Ensemble {
	e := &Ensemble{
		engine: fx.New(arenaSize, sampleRate, [2]float64{0.5, 0.3}),
		seg:    fx.Segment{Base: 0, Length: arenaSize - 4},
		depth:  depthSamples,
		wet:    wet,
	}
	ratios := [3]float64{1.0, 1.07, 0.93}
	for i, ratio := range ratios {
		e.rate[i] = rateHz * ratio / sampleRate
	}
	return e
}

func (e *Ensemble) Process(l, r float32) (float32, float32) {
	if e.wet == 0 {
		return l, r
	}
	ctx := e.engine.Start()
	ctx.Load(float64(l+r) * 0.5)
	ctx.Write(e.seg, 0, 1.0)

	var wetSum float64
	for i := range e.phase {
		e.phase[i] += e.rate[i]
		if e.phase[i] >= 1 {
			e.phase[i] -= 1
		}
		mod := sine(e.phase[i]) * e.depth
		off := float64(e.seg.Length)/2 + mod
		ctx2 := ctx
		ctx2.Interpolate(e.seg, off, 1.0)
		wetSum += ctx2.P
	}
	wet := wetSum / float64(len(e.phase))
	outL := float64(l)*(1-e.wet) + wet*e.wet
	outR := float64(r)*(1-e.wet) + wet*e.wet
	return float32(outL), float32(outR)
}

func sine(phase float64) float64 {
	return math.Sin(phase * 2 * math.Pi)
}

func (e *Ensemble) Reset() {
	e.engine.Clear()
	e.phase = [3]float64{}
}
