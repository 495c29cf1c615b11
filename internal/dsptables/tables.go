// Package dsptables holds the precomputed lookup tables and closed-form
// approximations shared by the filter, oscillator, and resonator packages:
// a quarter-wave sine table, a pitch-ratio table, a stiffness LUT for the
// modal resonator, a 4-decades LUT for damping, soft-limit, and the SVF
// tangent approximations.
package dsptables

import "math"

// SineLUT is a 2049-entry quarter-wave sine table (§4.7), 0..pi/2 inclusive.
var SineLUT [2049]float64

func init() {
	for i := range SineLUT {
		SineLUT[i] = math.Sin(float64(i) / float64(len(SineLUT)-1) * (math.Pi / 2))
	}
}

// SineQuarterWave returns sin(phase) for any phase using the quarter-wave
// table with linear interpolation, reflecting the reference angle across
// the four quadrants as the FM voice's sine lookup does.
func SineQuarterWave(phase float64) float64 {
	const twoPi = 2 * math.Pi
	const halfPi = math.Pi / 2
	phase = math.Mod(phase, twoPi)
	if phase < 0 {
		phase += twoPi
	}
	quadrant := int(phase / halfPi)
	var ref float64
	sign := 1.0
	switch quadrant {
	case 0:
		ref = phase
	case 1:
		ref = math.Pi - phase
	case 2:
		ref = phase - math.Pi
		sign = -1
	default:
		ref = twoPi - phase
		sign = -1
	}
	n := len(SineLUT) - 1
	pos := ref / halfPi * float64(n)
	i := int(pos)
	if i >= n {
		i = n - 1
	}
	f := pos - float64(i)
	v := SineLUT[i] + f*(SineLUT[i+1]-SineLUT[i])
	return sign * v
}

// PitchRatioHigh/PitchRatioLow implement the two-table pitch-ratio LUT:
// PitchRatioHigh[i+128] * PitchRatioLow[0] == 2^(i/12) within LUT precision
// for i in [-128, 127] (§8 round-trip law). High covers whole semitones
// across a wide span, Low refines by fractional cents (always >= 0, the
// remainder after flooring to a whole semitone) so products of the two
// reconstruct an arbitrary ratio without a runtime pow() call on the audio
// thread.
var PitchRatioHigh [256]float64
var PitchRatioLow [256]float64

func init() {
	for i := range PitchRatioHigh {
		semis := float64(i - 128)
		PitchRatioHigh[i] = math.Pow(2, semis/12.0)
	}
	for i := range PitchRatioLow {
		cents := float64(i) / 256.0 // fractional semitone in [0,1)
		PitchRatioLow[i] = math.Pow(2, cents/12.0)
	}
}

// RatioForSemitones reconstructs 2^(semitones/12) from the PitchRatioHigh/
// PitchRatioLow LUT product instead of a runtime pow() call (§8 round-trip
// law), splitting semitones into a whole part (PitchRatioHigh) and a
// non-negative fractional remainder (PitchRatioLow).
func RatioForSemitones(semitones float64) float64 {
	whole := math.Floor(semitones)
	frac := semitones - whole // always in [0,1)

	hi := int(whole) + 128
	if hi < 0 {
		hi = 0
	}
	if hi > 255 {
		hi = 255
	}
	lo := int(frac * 256)
	if lo < 0 {
		lo = 0
	}
	if lo > 255 {
		lo = 255
	}
	return PitchRatioHigh[hi] * PitchRatioLow[lo]
}

// StiffnessLUT maps a structure knob in [0,1] to a per-mode frequency
// stretch/compression factor sigma used by the modal resonator (§4.5).
// 257 entries: index = int(structure*256).
var StiffnessLUT [257]float64

func init() {
	for i := range StiffnessLUT {
		x := float64(i) / 256.0
		// Symmetric around 0.5: below center the partials compress
		// (bell/marimba-like), above it they stretch (string-like).
		StiffnessLUT[i] = (x - 0.5) * 2 * 0.025
	}
}

// FourDecadesLUT maps a damping knob in [0,1] across four decades of Q,
// i.e. roughly logarithmic from ~1 to ~10000, used by the modal resonator
// (§4.5: "q from damping via the 4-decades LUT").
var FourDecadesLUT [257]float64

func init() {
	for i := range FourDecadesLUT {
		x := float64(i) / 256.0
		FourDecadesLUT[i] = math.Pow(10, x*4)
	}
}

// LookupStiffness/LookupFourDecades do linear interpolation into the
// corresponding LUT for x in [0,1].
func LookupStiffness(x float64) float64  { return lerpLUT(StiffnessLUT[:], x) }
func LookupFourDecades(x float64) float64 { return lerpLUT(FourDecadesLUT[:], x) }

func lerpLUT(t []float64, x float64) float64 {
	if x < 0 {
		x = 0
	}
	if x > 1 {
		x = 1
	}
	n := len(t) - 1
	pos := x * float64(n)
	i := int(pos)
	if i >= n {
		return t[n]
	}
	f := pos - float64(i)
	return t[i] + f*(t[i+1]-t[i])
}

// SoftLimit is the nonlinearity used in every feedback path (reverb tank,
// limiter): x*(27+x^2)/(27+9x^2), with x first clamped to [-10, 10] because
// the bare curve grows like x/9 without bound. It is monotone, odd,
// softLimit(0)==0, |softLimit(x)| <= |x|, and its range is
// [-1270/927, 1270/927] (about ±1.37), inside (-1.5, 1.5) (§8).
func SoftLimit(x float64) float64 {
	if x > 10 {
		x = 10
	} else if x < -10 {
		x = -10
	}
	return x * (27 + x*x) / (27 + 9*x*x)
}

// SoftLimit32 is the float32 variant used directly in the audio path, with
// the same [-10, 10] input clamp.
func SoftLimit32(x float32) float32 {
	if x > 10 {
		x = 10
	} else if x < -10 {
		x = -10
	}
	return x * (27 + x*x) / (27 + 9*x*x)
}

// TanApprox selects among four approximations of tan(pi*f) used to derive
// the SVF's g coefficient (§4.2). DIRTY is the default.
type TanMode int

const (
	TanExact TanMode = iota
	TanAccurate
	TanFast
	TanDirty
)

// Tan computes tan(pi*f) using the requested approximation. f is clamped to
// [0, 0.497] by callers before conversion to g (near-Nyquist clamp, §4.2/§8).
func Tan(f float64, mode TanMode) float64 {
	const pi3 = math.Pi * math.Pi * math.Pi
	f2 := f * f
	switch mode {
	case TanExact:
		return math.Tan(math.Pi * f)
	case TanAccurate:
		// fifth-order odd polynomial expansion of tan(pi*f) in f^2.
		return f * (math.Pi + f2*(pi3/3+f2*(2*math.Pi*math.Pi*math.Pi*math.Pi*math.Pi/15)))
	case TanFast:
		return f * (math.Pi + 0.333*pi3*f2)
	default: // TanDirty: f*(pi + 0.3736*pi^3*f^2)
		return f * (math.Pi + 0.3736*pi3*f2)
	}
}
