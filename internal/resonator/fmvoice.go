package resonator

import (
	"math"

	"ringforge/internal/dsptables"
)

// ratioLUT is the 129-entry quantized carrier/modulator ratio table (spec
// §4.7), spanning musically useful FM ratios from 0.5 to 12.
var ratioLUT [129]float64

func init() {
	base := []float64{0.5, 0.71, 0.78, 0.87, 1, 1.41, 1.57, 2, 2.41, 3, 3.14, 4, 4.41, 5, 5.41, 6, 7, 8, 9, 10, 11, 12}
	for i := range ratioLUT {
		t := float64(i) / float64(len(ratioLUT)-1)
		idx := t * float64(len(base)-1)
		lo := int(idx)
		if lo >= len(base)-1 {
			ratioLUT[i] = base[len(base)-1]
			continue
		}
		f := idx - float64(lo)
		ratioLUT[i] = base[lo] + f*(base[lo+1]-base[lo])
	}
}

// QuantizeRatio snaps a ratio to the nearest entry in ratioLUT.
func QuantizeRatio(ratio float64) float64 {
	best := ratioLUT[0]
	bestDist := math.Abs(ratio - best)
	for _, r := range ratioLUT {
		d := math.Abs(ratio - r)
		if d < bestDist {
			bestDist = d
			best = r
		}
	}
	return best
}

// Follower is a 3-band envelope follower (centroid + total energy) used to
// derive the FM voice's amplitude/brightness envelopes (spec §4.7).
type Follower struct {
	lowEnv, midEnv, highEnv float64
	lowPrev, highPrev       float64
}

func (f *Follower) Process(x float64) (energy, centroid float64) {
	const aLow, aHigh = 0.01, 0.2
	low := f.lowPrev + aLow*(x-f.lowPrev)
	f.lowPrev = low
	high := x - low
	f.highPrev += aHigh * (high - f.highPrev)
	mid := x - low - f.highPrev

	absLow, absMid, absHigh := math.Abs(low), math.Abs(mid), math.Abs(f.highPrev)
	f.lowEnv += 0.05 * (absLow - f.lowEnv)
	f.midEnv += 0.05 * (absMid - f.midEnv)
	f.highEnv += 0.05 * (absHigh - f.highEnv)

	energy = f.lowEnv + f.midEnv + f.highEnv
	if energy < 1e-9 {
		return 0, 0
	}
	centroid = (f.midEnv + 2*f.highEnv) / energy
	return energy, centroid
}

// FMVoice is the 2-operator FM resonator excitation of spec §4.7.
type FMVoice struct {
	ratio                  float64
	carrierPhase, modPhase float64 // cycles, [0,1)
	prevFeedback           float64
	fmAmount               float64
	slewCoef               float64
	follower               Follower
	feedback               float64
}

func NewFMVoice() *FMVoice {
	return &FMVoice{}
}

// Configure sets the carrier/mod ratio (quantized) and feedback amount for
// the current block.
func (v *FMVoice) Configure(ratio, feedback, sampleRate float64) {
	v.ratio = QuantizeRatio(ratio)
	v.feedback = feedback
	// fmAmount is slewed at 5ms + 0.015*max_fm (spec §4.7); approximate the
	// slew time constant with a fixed 5ms pole, refined per-sample below.
	v.slewCoef = 1.0 / (0.005 * sampleRate)
}

func sineFm(phaseCycles, fmCycles float64) float64 {
	return dsptables.SineQuarterWave((phaseCycles + fmCycles) * 2 * math.Pi)
}

// Process renders one sample given carrier frequency and target FM amount.
func (v *FMVoice) Process(carrierFreq, sampleRate, fmAmountTarget, gain float64) (out, aux float64) {
	slew := v.slewCoef + 0.015*fmAmountTarget
	if slew > 1 {
		slew = 1
	}
	v.fmAmount += slew * (fmAmountTarget - v.fmAmount)

	modFreq := carrierFreq * v.ratio
	v.modPhase += modFreq / sampleRate
	if v.modPhase >= 1 {
		v.modPhase -= 1
	}
	mod := sineFm(v.modPhase, v.feedback*v.prevFeedback)
	v.prevFeedback += 0.1 * (mod - v.prevFeedback)

	v.carrierPhase += carrierFreq / sampleRate
	if v.carrierPhase >= 1 {
		v.carrierPhase -= 1
	}
	carrier := sineFm(v.carrierPhase, v.fmAmount*mod)

	out = (carrier + 0.5*mod) * gain
	aux = 0.5 * mod * gain
	return out, aux
}

// Energy reports the follower's amplitude/brightness envelope for the last
// processed excitation signal (spec §4.7: "amplitude envelope and
// brightness envelope follow from a 3-band Follower").
func (v *FMVoice) Energy(excitation float64) (energy, centroid float64) {
	return v.follower.Process(excitation)
}

func (v *FMVoice) Reset() {
	v.carrierPhase, v.modPhase = 0, 0
	v.prevFeedback = 0
	v.fmAmount = 0
}
