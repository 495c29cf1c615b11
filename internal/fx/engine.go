// Package fx implements the shared delay-line arena and per-sample stack
// machine described in spec §4.4: a single DelayLine shared by multiple
// logical segments, addressed through a per-sample Context carrying one
// accumulator and one "previous read" register. Reverb and Ensemble are
// both built on top of this engine.
package fx

import "ringforge/internal/dsptables"

// Segment names a {base, length} window into the shared arena. Segments
// must partition [0, N) with no overlap (spec §3).
type Segment struct {
	Base, Length int
}

// End returns the "end of segment" offset used when callers pass offset=-1.
func (s Segment) End() int { return s.Length - 1 }

// Engine owns the shared arena and up to two onboard LFOs (spec §4.4: "every
// 32 samples it advances the two onboard LFOs").
type Engine struct {
	buf      []float32
	mask     int
	writePtr int

	lfoPhase [2]float64
	lfoFreq  [2]float64 // cycles per LFO update (one update per 32 samples)
	lfoValue [2]float64
	tick     int
}

// New allocates an Engine with a power-of-two arena of the given size.
func New(size int, sampleRate float64, lfoFreqsHz [2]float64) *Engine {
	if size <= 0 || size&(size-1) != 0 {
		panic("fx: arena size must be a power of two")
	}
	e := &Engine{buf: make([]float32, size), mask: size - 1}
	// LFOs advance once every 32 samples (spec §4.4), so scale Hz to the
	// slower update rate.
	updateRate := sampleRate / 32.0
	for i := range lfoFreqsHz {
		if updateRate > 0 {
			e.lfoFreq[i] = lfoFreqsHz[i] / updateRate
		}
	}
	return e
}

func (e *Engine) Size() int { return len(e.buf) }

// Clear zeroes the entire arena; used by fault recovery (spec §4.4/§7).
func (e *Engine) Clear() {
	for i := range e.buf {
		e.buf[i] = 0
	}
	e.writePtr = 0
}

// Start decrements the arena write pointer by 1 (mod N) and returns a fresh
// Context borrowed into the caller's stack for exactly one sample iteration
// (spec §3: "FxContext exists only within one sample iteration").
func (e *Engine) Start() Context {
	e.writePtr = (e.writePtr - 1) & e.mask
	e.tick++
	if e.tick >= 32 {
		e.tick = 0
		for i := range e.lfoPhase {
			e.lfoPhase[i] += e.lfoFreq[i]
			for e.lfoPhase[i] >= 1 {
				e.lfoPhase[i] -= 1
			}
			e.lfoValue[i] = sine01(e.lfoPhase[i])
		}
	}
	return Context{e: e}
}

func sine01(phase float64) float64 {
	return dsptables.SineQuarterWave(phase * 2 * 3.141592653589793)
}

func (e *Engine) addr(seg Segment, offset int) int {
	if offset < 0 {
		offset = seg.End()
	}
	return (e.writePtr + seg.Base + offset) & e.mask
}

// Context is the per-sample operation context of spec §4.4: a single
// accumulator A and a previous-read register P, borrowing the arena.
type Context struct {
	e *Engine
	A float64
	P float64
}

func (c *Context) Load(v float64) { c.A = v }

func (c *Context) Read(seg Segment, offset int, k float64) {
	c.P = float64(c.e.buf[c.e.addr(seg, offset)])
	c.A += k * c.P
}

func (c *Context) Write(seg Segment, offset int, k float64) {
	c.e.buf[c.e.addr(seg, offset)] = float32(c.A)
	c.A *= k
}

func (c *Context) WriteAllPass(seg Segment, offset int, k float64) {
	c.Write(seg, offset, k)
	c.A += c.P
}

// Interpolate does a linear-interpolated read at a fractional offset within
// the segment, updating P and A as Read does.
func (c *Context) Interpolate(seg Segment, offFloat float64, k float64) {
	i := int(offFloat)
	f := offFloat - float64(i)
	a := float64(c.e.buf[c.e.addr(seg, i)])
	b := float64(c.e.buf[c.e.addr(seg, i+1)])
	c.P = a + f*(b-a)
	c.A += k * c.P
}

// InterpolateLfo is Interpolate with the offset modulated by one of the
// engine's two onboard LFOs: off + amp*lfoValue[idx].
func (c *Context) InterpolateLfo(seg Segment, off int, lfoIdx int, amp float64, k float64) {
	mod := c.e.lfoValue[lfoIdx] * amp
	c.Interpolate(seg, float64(off)+mod, k)
}

// LP runs a one-pole lowpass on the accumulator: new = state + c*(A-state);
// A <- new; returns new. The caller owns the persistent `state` float.
func (c *Context) LP(state *float64, coef float64) float64 {
	*state += coef * (c.A - *state)
	c.A = *state
	return *state
}

// HP is the dual of LP: the accumulator becomes A minus its lowpassed self.
func (c *Context) HP(state *float64, coef float64) float64 {
	*state += coef * (c.A - *state)
	c.A = c.A - *state
	return c.A
}

// SoftLimit applies the feedback soft-limiter nonlinearity (spec glossary,
// §4.4: "required to prevent runaway feedback; omission is a known bug").
func (c *Context) SoftLimit() {
	c.A = dsptables.SoftLimit(c.A)
}

// LfoValue exposes the LFO's current value for callers outside the op table
// (e.g. Reverb's tank cross-feedback amount).
func (e *Engine) LfoValue(idx int) float64 { return e.lfoValue[idx] }
