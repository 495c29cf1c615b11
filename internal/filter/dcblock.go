package filter

// DCBlocker is the 1-pole DC blocker y = x - x[-1] + r*y[-1], grounded on
// the teacher's chiptune.dcBlockL/dcBlockR (internal/chiptune/engine.go).
// Used by the resonator models' excitation path (spec §4.8: "excitationFilter,
// dcBlocker").
type DCBlocker struct {
	r       float64
	prevIn  float64
	prevOut float64
}

// NewDCBlocker creates a DC blocker with the given pole (teacher default 0.995).
func NewDCBlocker(r float64) *DCBlocker {
	if r <= 0 {
		r = 0.995
	}
	return &DCBlocker{r: r}
}

func (d *DCBlocker) Process(x float64) float64 {
	y := x - d.prevIn + d.r*d.prevOut
	d.prevIn = x
	d.prevOut = y
	return y
}

func (d *DCBlocker) Reset() {
	d.prevIn, d.prevOut = 0, 0
}
