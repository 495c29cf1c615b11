package seqclock

// Scale names the interval sets the global LFO value is quantized against
// (spec §4.10: "map the current global LFO value through the current scale
// and root to a note").
type Scale int

const (
	ScaleMajor Scale = iota
	ScaleMinor
	ScaleDorian
	ScaleChromatic
)

var scaleIntervals = map[Scale][]int{
	ScaleMajor:     {0, 2, 4, 5, 7, 9, 11},
	ScaleMinor:     {0, 2, 3, 5, 7, 8, 10},
	ScaleDorian:    {0, 2, 3, 5, 7, 9, 10},
	ScaleChromatic: {0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11},
}

// MapLFOToNote maps a global LFO value in [-1,1] across a 5-octave range
// onto the nearest scale degree above root (spec §4.10).
func MapLFOToNote(lfoValue float64, root int, scale Scale) int {
	intervals := scaleIntervals[scale]
	if len(intervals) == 0 {
		intervals = scaleIntervals[ScaleChromatic]
	}
	const octaves = 5
	span := len(intervals) * octaves
	t := (lfoValue + 1) / 2 // [0,1]
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	degree := int(t * float64(span-1))
	octave := degree / len(intervals)
	idx := degree % len(intervals)
	return root + octave*12 + intervals[idx]
}

// NextScaleDegree returns the nearest note above note that belongs to
// scale/root — the "next scale degree" trill target of spec §8 scenario 6
// (C3 in C-major trills to D3, a major second, not a fixed interval).
func NextScaleDegree(note, root int, scale Scale) int {
	intervals := scaleIntervals[scale]
	if len(intervals) == 0 {
		intervals = scaleIntervals[ScaleChromatic]
	}
	for semis := 1; semis <= 12; semis++ {
		candidate := note + semis
		rel := ((candidate-root)%12 + 12) % 12
		for _, iv := range intervals {
			if iv == rel {
				return candidate
			}
		}
	}
	return note + 1
}
