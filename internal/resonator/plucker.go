package resonator

import "math/rand"

// Plucker is the shared excitation generator for the string-family models
// (spec §4.6/§4.7): a short noise burst shaped by a one-pole envelope,
// triggered once per note-on and decaying to silence.
type Plucker struct {
	rng      *rand.Rand
	env      float64
	decay    float64
	active   bool
	position float64 // comb-filter position within the burst, [0,1]
	combBuf  [64]float64
	combPos  int
}

func NewPlucker() *Plucker {
	return &Plucker{rng: rand.New(rand.NewSource(1))}
}

// Trigger starts a new burst. burstLen is in samples (one-pole time
// constant); position shapes the burst's spectral content via a short comb
// filter, approximating pluck/pick position (spec §4.6: "pickup position").
func (p *Plucker) Trigger(burstLen, position float64) {
	if burstLen < 1 {
		burstLen = 1
	}
	p.decay = 1.0 / burstLen
	p.env = 1.0
	p.active = true
	p.position = clampf(position, 0, 1)
	p.combBuf = [64]float64{}
	p.combPos = 0
}

// Next returns the next excitation sample, 0 once the burst has fully
// decayed.
func (p *Plucker) Next() float64 {
	if !p.active {
		return 0
	}
	noise := p.rng.Float64()*2 - 1
	raw := noise * p.env

	tap := int(p.position * float64(len(p.combBuf)-1))
	delayed := p.combBuf[(p.combPos-tap+len(p.combBuf))%len(p.combBuf)]
	p.combBuf[p.combPos] = raw
	p.combPos = (p.combPos + 1) % len(p.combBuf)
	shaped := 0.5 * (raw + delayed)

	p.env -= p.decay * p.env
	if p.env < 1e-4 {
		p.env = 0
		p.active = false
	}
	return shaped
}

func (p *Plucker) Active() bool { return p.active }

func (p *Plucker) Reset() {
	p.env = 0
	p.active = false
	p.combBuf = [64]float64{}
	p.combPos = 0
}
