// Package limiter implements the stereo soft-knee limiter used at the end
// of Part's signal chain (spec "added" §4.14), reusing dsptables.SoftLimit
// for the knee itself. Reverb's feedback tanks do not use this package;
// they apply dsptables.SoftLimit directly through the fx engine.
package limiter

import (
	"math"

	"ringforge/internal/dsptables"
)

// Limiter tracks a slow envelope of the input peak so the soft-knee
// nonlinearity only engages once the signal approaches the rail, rather
// than coloring low-level material.
type Limiter struct {
	envelope   float64
	attack     float64
	release    float64
	threshold  float64
}

// New builds a limiter with the given attack/release time constants (as
// one-pole coefficients per sample) and threshold above which the knee
// starts to compress.
func New(attack, release, threshold float64) *Limiter {
	return &Limiter{attack: attack, release: release, threshold: threshold}
}

// Default returns a limiter tuned for the Part output stage: fast attack,
// slower release, threshold at 0.85 of full scale.
func Default(sampleRate float64) *Limiter {
	return New(1-expDecay(0.001, sampleRate), 1-expDecay(0.050, sampleRate), 0.85)
}

func expDecay(seconds, sampleRate float64) float64 {
	if seconds <= 0 {
		return 0
	}
	n := seconds * sampleRate
	return math.Exp(-1.0 / n)
}

// Process applies per-sample envelope-following soft limiting to a stereo
// frame, pre-gained by preGain (spec §4.8 step 7: "per-model pre-gain").
func (l *Limiter) Process(left, right, preGain float64) (float64, float64) {
	left *= preGain
	right *= preGain

	peak := abs(left)
	if abs(right) > peak {
		peak = abs(right)
	}
	if peak > l.envelope {
		l.envelope += l.attack * (peak - l.envelope)
	} else {
		l.envelope += l.release * (peak - l.envelope)
	}

	if l.envelope <= l.threshold {
		return dsptables.SoftLimit(left), dsptables.SoftLimit(right)
	}
	// knee scales the signal down toward the threshold before the
	// SoftLimit nonlinearity clamps the remaining excess.
	scale := l.threshold / l.envelope
	return dsptables.SoftLimit(left * scale), dsptables.SoftLimit(right * scale)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func (l *Limiter) Reset() { l.envelope = 0 }
