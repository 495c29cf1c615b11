// Package reverb implements the Griesinger-topology reverb of spec §4.4 on
// top of the internal/fx stack machine, grounded structurally on the
// teacher's internal/effects.Reverb (comb+allpass Schroeder reverb) but
// replacing its topology with the specified input-diffusion/dual-tank
// design.
package reverb

import (
	"math"

	"ringforge/internal/dsptables"
	"ringforge/internal/fx"
)

// Segment layout: the "large" (32768-sample) canonical layout from spec
// §4.4, chosen over the undocumented "small" alternative per the open
// question in §9 (see DESIGN.md).
const ArenaSize = 32768

func cumulative(lengths []int) []fx.Segment {
	segs := make([]fx.Segment, len(lengths))
	base := 0
	for i, l := range lengths {
		segs[i] = fx.Segment{Base: base, Length: l}
		base += l
	}
	return segs
}

var segLayout = cumulative([]int{150, 214, 319, 527, 2182, 2690, 4501, 2525, 2197, 6312})

var (
	segAP1   = segLayout[0]
	segAP2   = segLayout[1]
	segAP3   = segLayout[2]
	segAP4   = segLayout[3]
	segDAP1A = segLayout[4]
	segDAP1B = segLayout[5]
	segDEL1  = segLayout[6]
	segDAP2A = segLayout[7]
	segDAP2B = segLayout[8]
	segDEL2  = segLayout[9]
)

// Params are the user-facing reverb controls (spec §4.4 invariants).
type Params struct {
	ReverbTime float64 // <= 0.99
	Amount     float64 // [0,1] wet mix
	Diffusion  float64 // [0,1] input allpass coefficient
	LP         float64 // [0,1] feedback lowpass coefficient
	InputGain  float64
}

func DefaultParams() Params {
	return Params{ReverbTime: 0.6, Amount: 0.5, Diffusion: 0.625, LP: 0.7, InputGain: 0.4}
}

// Reverb is the Griesinger engine: input diffusion through four cascaded
// allpasses, then two cross-fed, LFO-modulated, soft-limited feedback tanks.
type Reverb struct {
	engine *fx.Engine
	params Params

	lpState1, lpState2 float64
}

func New(sampleRate float64) *Reverb {
	return &Reverb{
		engine: fx.New(ArenaSize, sampleRate, [2]float64{0.5, 0.3}),
		params: DefaultParams(),
	}
}

func (r *Reverb) SetParams(p Params) {
	if p.ReverbTime > 0.99 {
		p.ReverbTime = 0.99
	}
	p.Amount = clamp01(p.Amount)
	p.Diffusion = clamp01(p.Diffusion)
	p.LP = clamp01(p.LP)
	r.params = p
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Process runs one stereo sample through the reverb. With amount==0 the
// dry signal passes through bitwise unchanged (spec §8).
func (r *Reverb) Process(l, rr float32) (float32, float32) {
	p := r.params
	if p.Amount == 0 {
		return l, rr
	}

	in := (float64(l) + float64(rr)) * 0.5 * p.InputGain
	ctx := r.engine.Start()
	ctx.Load(in)
	k := p.Diffusion
	ctx.AllpassSeg(segAP1, k*0.75)
	ctx.AllpassSeg(segAP2, k*0.625)
	ctx.AllpassSeg(segAP3, k*0.7)
	ctx.AllpassSeg(segAP4, k*0.5)
	apout := ctx.A

	tank1 := r.runTank(&ctx, apout, segDEL2, segDAP1A, segDAP1B, segDEL1, 0, &r.lpState1)
	tank2 := r.runTank(&ctx, apout, segDEL1, segDAP2A, segDAP2B, segDEL2, 1, &r.lpState2)

	if isBad(tank1) || isBad(tank2) {
		r.engine.Clear()
		r.lpState1, r.lpState2 = 0, 0
		return 0, 0
	}

	wetL := tank1 + tank2*0.5
	wetR := tank2 + tank1*0.5
	outL := float64(l)*(1-p.Amount) + wetL*p.Amount
	outR := float64(rr)*(1-p.Amount) + wetR*p.Amount
	return float32(outL), float32(outR)
}

// runTank executes one Griesinger feedback tank (spec §4.4 tank sequence).
func (r *Reverb) runTank(ctx *fx.Context, apout float64, otherDel, dapA, dapB, ownDel fx.Segment, lfoIdx int, lpState *float64) float64 {
	ctx.Load(apout)
	ctx.InterpolateLfo(otherDel, otherDel.Length-128, lfoIdx, 50, r.params.ReverbTime)
	ctx.LP(lpState, 1-r.params.LP)
	ctx.SoftLimit()
	ctx.AllpassSeg(dapA, 0.625)
	ctx.AllpassSeg(dapB, 0.625)
	out := ctx.A
	ctx.Write(ownDel, 0, 2.0)
	return out
}

func isBad(x float64) bool {
	return math.IsNaN(x) || math.IsInf(x, 0)
}

// SoftLimit exposes the shared feedback nonlinearity for callers that want
// the exact same curve used in the tank.
func SoftLimit(x float64) float64 { return dsptables.SoftLimit(x) }
