package resonator

import (
	"math"
	"math/rand"

	"ringforge/internal/delay"
	"ringforge/internal/filter"
)

const (
	maxStringDelay  = 2048
	maxStretchDelay = 1024
)

// String is the Karplus-Strong resonator with dispersion (spec §4.6).
type String struct {
	line    *delay.Line // main delay, power-of-two >= maxStringDelay
	stretch *delay.Line // dispersion delay, power-of-two >= maxStretchDelay
	lp      *filter.SVF

	srcPhase float64
	lastOut  [2]float64 // for inter-tick crossfade
	lastAux  [2]float64
	x1, x2   float64 // FIR damping filter history
	auxOut   float64

	rng *rand.Rand
}

func NewString() *String {
	return &String{
		line:    delay.New(4096),
		stretch: delay.New(2048),
		lp:      filter.NewSVF(),
		rng:     rand.New(rand.NewSource(1)),
	}
}

// Tick renders one output sample at the host sample rate given the target
// string delay (in samples, clamped to [4, 2044]), excitation input x,
// brightness, damping/rt60, dispersion, and pickup position, oversampling
// internally by a source-rate phase accumulator with ratio delay*frequency
// (spec §4.6).
func (s *String) Tick(x, delaySamples, brightness, rt60, dispersion, position float64) (out, aux float64) {
	requested := delaySamples
	if delaySamples < 4 {
		delaySamples = 4
	}
	if delaySamples > 2044 {
		delaySamples = 2044
	}
	ratio := 1.0
	if requested > 0 {
		ratio = delaySamples / requested
	}
	s.srcPhase += ratio
	for s.srcPhase >= 1 {
		s.srcPhase -= 1
		s.lastOut[0], s.lastOut[1] = s.lastOut[1], s.stepOnce(x, delaySamples, brightness, rt60, dispersion, position)
		s.lastAux[0], s.lastAux[1] = s.lastAux[1], s.auxOut
	}
	f := s.srcPhase
	out = s.lastOut[0] + f*(s.lastOut[1]-s.lastOut[0])
	aux = s.lastAux[0] + f*(s.lastAux[1]-s.lastAux[0])
	return out, aux
}

func (s *String) stepOnce(x, delaySamples, brightness, rt60, dispersion, position float64) float64 {
	s.lp.SetFQ(0.02+0.4*brightness, 0.7)
	damping := math.Pow(2, -120*delaySamples/(rt60*48000)/12)
	b := brightness * brightness
	h0 := (1 + b) / 2
	h1 := (1 - b) / 4

	excited := float64(s.line.ReadFloat(delaySamples)) + x

	if dispersion > 0 {
		stretchPoint := dispersion * (2 - dispersion) * 0.475 * float64(maxStretchDelay)
		disp := float64(s.stretch.ReadHermite(clampf(stretchPoint, 1, maxStretchDelay-3)))
		k := dispersion * 0.6
		written := excited + k*disp
		s.stretch.Write(float32(written))
		excited = -k*written + disp
		noise := (s.rng.Float64()*2 - 1) * dispersion * 0.02
		excited += noise
	} else if dispersion < 0 {
		// bridge curving: rectified nonlinearity injected into the feedback path.
		curve := -dispersion * (math.Abs(excited) - excited) * 0.5
		excited -= curve
	}

	fir := damping * (h0*s.x1 + h1*(excited+s.x2))
	s.x2 = s.x1
	s.x1 = excited

	filtered := s.lp.Process(fir, filter.LP)
	if damping >= 0.95 {
		// steer smoothly toward permanent ring-out by letting the lowpass
		// coefficient approach unity gain rather than hard-gating.
		filtered = fir*0.02 + filtered*0.98
	}
	s.line.Write(float32(filtered))

	mainOut := filtered
	clampedPos := clampf(position, 0, 1)
	s.auxOut = float64(s.line.ReadFloat(delaySamples * clampedPos))
	return mainOut
}

func clampf(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func (s *String) Reset() {
	s.line.Clear()
	s.stretch.Clear()
	s.lp.Reset()
	s.x1, s.x2 = 0, 0
	s.srcPhase = 0
	s.lastOut = [2]float64{}
	s.lastAux = [2]float64{}
}
