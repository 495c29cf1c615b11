package seqclock

// Euclid fills k pulses into n steps by placing pulse i at floor(i*n/k),
// the Bjorklund-equivalent closed form named in spec §4.10.
func Euclid(k, n int) []bool {
	pattern := make([]bool, n)
	if k <= 0 || n <= 0 {
		return pattern
	}
	if k > n {
		k = n
	}
	for i := 0; i < k; i++ {
		pos := (i * n) / k
		pattern[pos] = true
	}
	return pattern
}

// Rotate shifts pattern cyclically by r steps (a group action on the
// pattern's index set, spec §4.10).
func Rotate(pattern []bool, r int) []bool {
	n := len(pattern)
	if n == 0 {
		return pattern
	}
	r = ((r % n) + n) % n
	out := make([]bool, n)
	for i, v := range pattern {
		out[(i+r)%n] = v
	}
	return out
}

// DistributeIntoFilled places a k-of-n Euclidean fill (the "amount") onto
// just the positions where gate is true, then maps the result back onto the
// original n-step index space (spec §4.10: accent/slide/trill amounts are
// distributed into the filled steps, not the whole pattern).
func DistributeIntoFilled(gate []bool, amount int) []bool {
	filledIdx := make([]int, 0, len(gate))
	for i, v := range gate {
		if v {
			filledIdx = append(filledIdx, i)
		}
	}
	sub := Euclid(amount, len(filledIdx))
	out := make([]bool, len(gate))
	for j, idx := range filledIdx {
		if j < len(sub) && sub[j] {
			out[idx] = true
		}
	}
	return out
}
