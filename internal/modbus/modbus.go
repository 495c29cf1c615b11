// Package modbus implements the per-parameter modulation bus of spec §4.11:
// LFO/SEQ/ENV/RND/TM/EF modulation sources computed at k-rate (~30Hz) and
// applied to declared parameters. Grounded on the teacher's internal/lfo.LFO
// for the LFO source's waveform bank, generalized to six source kinds
// feeding a shared "baseValue + depth*mod + offset" apply step.
package modbus

import "math"

// SourceKind selects a parameter's modulation source.
type SourceKind int

const (
	SourceNone SourceKind = iota
	SourceLFO
	SourceSeq
	SourceEnv
	SourceRND
	SourceTM
	SourceEF
)

// Waveform selects the LFO source's shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveRamp
	WaveSquare
	WaveNoise
	WaveSampleHold
)

// EnvTrigger selects what restarts an ENV source.
type EnvTrigger int

const (
	EnvOnNoteOn EnvTrigger = iota
	EnvOnBar
	EnvOnGate
)

// Param is one registered parameter declaration (spec §4.11).
type Param struct {
	ID        string
	Module    string
	Label     string
	Min, Max  float64
	Step      float64
	StatePath string

	Source SourceKind
	Depth  float64
	Offset float64

	LFO LFOConfig
	Seq SeqConfig
	Env EnvConfig
	RND RNDConfig
	TM  TMConfig
	EF  EFConfig

	Apply func(id string, value float64)

	baseValue float64
	mod       float64
	state     sourceState
}

type LFOConfig struct {
	RateHz   float64
	Waveform Waveform
}

type SeqConfig struct {
	Pattern []float64 // per-step values in [0,1]
	RateHz  float64
}

type EnvConfig struct {
	Trigger      EnvTrigger
	AttackMs     float64
	ReleaseMs    float64
	Exponential  bool
}

type RNDConfig struct {
	Length      int
	Probability float64 // [0,1]
	SampleRateHz float64
}

type TMConfig struct {
	Length      int
	Probability float64 // [0,1] chance to flip outgoing bit each clock step
}

type EFConfig struct {
	AttackMs, ReleaseMs float64
}

type sourceState struct {
	phase       float64
	heldSH      float64
	seqIndex    int
	seqAccum    float64
	envValue    float64
	envRising   bool
	rndValue    float64
	rndAccum    float64
	tmRegister  uint64
	followerEnv float64
	rng         uint64
}

// Bus processes every registered parameter once per k-rate tick.
type Bus struct {
	params []*Param
	rng    uint64
}

func NewBus() *Bus {
	return &Bus{rng: 0x2545f4914f6cdd1d}
}

// Register adds a parameter declaration, setting its initial base value.
func (b *Bus) Register(p *Param, baseValue float64) {
	p.baseValue = baseValue
	p.state.rng = b.nextSeed()
	b.params = append(b.params, p)
}

func (b *Bus) nextSeed() uint64 {
	b.rng ^= b.rng << 13
	b.rng ^= b.rng >> 7
	b.rng ^= b.rng << 17
	return b.rng
}

// SetBaseValue updates the parameter's unmodulated value (e.g. from a UI
// control), leaving the modulation source configuration untouched.
func (b *Bus) SetBaseValue(id string, v float64) {
	for _, p := range b.params {
		if p.ID == id {
			p.baseValue = v
			return
		}
	}
}

// Tick advances every parameter's source by dt seconds (k-rate, spec §4.11)
// and invokes each parameter's Apply callback with the clamped result.
func (b *Bus) Tick(dt float64, gate, barStart, noteOn bool, efInput func(paramID string) float64) {
	for _, p := range b.params {
		mod := b.sample(p, dt, gate, barStart, noteOn, efInput)
		value := p.baseValue + p.Depth*mod + p.Offset
		value = clamp(value, p.Min, p.Max)
		if p.Apply != nil {
			p.Apply(p.ID, value)
		}
	}
}

func (b *Bus) sample(p *Param, dt float64, gate, barStart, noteOn bool, efInput func(string) float64) float64 {
	s := &p.state
	switch p.Source {
	case SourceLFO:
		return sampleLFO(p, s, dt, gate)
	case SourceSeq:
		return sampleSeq(p, s, dt)
	case SourceEnv:
		return sampleEnv(p, s, dt, gate, barStart, noteOn)
	case SourceRND:
		return sampleRND(p, s, dt)
	case SourceTM:
		return sampleTM(p, s, gate)
	case SourceEF:
		if efInput == nil {
			return 0
		}
		return sampleEF(p, s, dt, efInput(p.ID))
	default:
		return 0
	}
}

func sampleLFO(p *Param, s *sourceState, dt float64, gate bool) float64 {
	if p.LFO.RateHz <= 0 {
		return 0
	}
	prevPhase := s.phase
	s.phase += p.LFO.RateHz * dt
	for s.phase >= 1 {
		s.phase -= 1
	}
	switch p.LFO.Waveform {
	case WaveSine:
		return math.Sin(s.phase * 2 * math.Pi)
	case WaveRamp:
		return 1 - 2*s.phase
	case WaveSquare:
		if s.phase < 0.5 {
			return 1
		}
		return -1
	case WaveNoise:
		return nextUniform(&s.rng)*2 - 1
	case WaveSampleHold:
		if gate && s.phase < prevPhase {
			s.heldSH = nextUniform(&s.rng)*2 - 1
		}
		return s.heldSH
	default:
		return 0
	}
}

func sampleSeq(p *Param, s *sourceState, dt float64) float64 {
	n := len(p.Seq.Pattern)
	if n == 0 || p.Seq.RateHz <= 0 {
		return 0
	}
	s.seqAccum += p.Seq.RateHz * dt
	for s.seqAccum >= 1 {
		s.seqAccum -= 1
		s.seqIndex = (s.seqIndex + 1) % n
	}
	return p.Seq.Pattern[s.seqIndex]*2 - 1
}

func sampleEnv(p *Param, s *sourceState, dt float64, gate, barStart, noteOn bool) float64 {
	trigger := false
	switch p.Env.Trigger {
	case EnvOnNoteOn:
		trigger = noteOn
	case EnvOnBar:
		trigger = barStart
	case EnvOnGate:
		trigger = gate && !s.envRising
	}
	if trigger {
		s.envRising = true
		s.envValue = 0
	}
	if s.envRising {
		rate := dt / maxf(p.Env.AttackMs/1000, 1e-4)
		s.envValue += rate
		if s.envValue >= 1 {
			s.envValue = 1
			s.envRising = false
		}
	} else if s.envValue > 0 {
		rate := dt / maxf(p.Env.ReleaseMs/1000, 1e-4)
		s.envValue -= rate
		if s.envValue < 0 {
			s.envValue = 0
		}
	}
	v := s.envValue
	if p.Env.Exponential {
		v = v * v
	}
	return v*2 - 1
}

func sampleRND(p *Param, s *sourceState, dt float64) float64 {
	rate := p.RND.SampleRateHz
	if rate <= 0 {
		rate = 1
	}
	s.rndAccum += rate * dt
	for s.rndAccum >= 1 {
		s.rndAccum -= 1
		if nextUniform(&s.rng) < p.RND.Probability {
			s.rndValue = nextUniform(&s.rng)*2 - 1
		}
	}
	return s.rndValue
}

func sampleTM(p *Param, s *sourceState, clockStep bool) float64 {
	if p.TM.Length <= 0 {
		return 0
	}
	if clockStep {
		outgoing := s.tmRegister & 1
		if nextUniform(&s.rng) < p.TM.Probability {
			outgoing ^= 1
		}
		s.tmRegister = (s.tmRegister >> 1) | (outgoing << (p.TM.Length - 1))
	}
	mask := uint64(1)<<p.TM.Length - 1
	frac := float64(s.tmRegister&mask) / float64(mask+1)
	return frac*2 - 1
}

func sampleEF(p *Param, s *sourceState, dt, input float64) float64 {
	x := math.Abs(input)
	if x > s.followerEnv {
		rate := dt / maxf(p.EF.AttackMs/1000, 1e-4)
		s.followerEnv += rate * (x - s.followerEnv)
	} else {
		rate := dt / maxf(p.EF.ReleaseMs/1000, 1e-4)
		s.followerEnv += rate * (x - s.followerEnv)
	}
	return s.followerEnv*2 - 1
}

func nextUniform(rng *uint64) float64 {
	*rng ^= *rng << 13
	*rng ^= *rng >> 7
	*rng ^= *rng << 17
	return float64(*rng>>11) / float64(1<<53)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
