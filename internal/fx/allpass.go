package fx

// AllpassSeg runs a segment-resident first-order allpass: reads the oldest
// sample in the segment, writes accumulator+k*oldest to the newest slot,
// and leaves the diffused output in the accumulator. A segment acts exactly
// like a delay.Line of its own length addressed through the shared arena.
//
// When k is 0 the allpass is defined to be a straight pass-through (spec
// §8: "With diffusion = 0, all-passes pass straight through (k = 0
// branch)"), not the delayed read the general formula would otherwise give.
func (c *Context) AllpassSeg(seg Segment, k float64) {
	if k == 0 {
		return
	}
	r := float64(c.e.buf[c.e.addr(seg, seg.End())])
	written := c.A + k*r
	c.e.buf[c.e.addr(seg, 0)] = float32(written)
	c.A = -k*written + r
}
