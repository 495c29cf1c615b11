// Package clouds specifies the granular/pitch buffer at interface level
// only (spec §2 row 8: "the granular inner loop is out-of-core"). It owns
// the circular capture buffer and frozen-mode flag and exposes the grain
// scheduling parameters. The root Engine captures every rendered frame into
// it; Part never routes audio through it, and the reverb/ensemble chain
// always runs.
package clouds

import "ringforge/internal/delay"

// Params are the four grain-scheduling controls named in spec §2 row 8.
type Params struct {
	Position float64 // [0,1] read head position within the capture buffer
	Size     float64 // [0,1] grain size
	Density  float64 // [0,1] grain trigger density
	Texture  float64 // [0,1] grain envelope/window shape
	Frozen   bool
}

// Buffer is the circular capture buffer clouds reads grains from. The grain
// scheduler itself (windowing, overlap-add, per-grain pitch ratio) is an
// external collaborator per spec §1/§2; Buffer only owns capture/freeze.
type Buffer struct {
	lineL, lineR *delay.Line
	params       Params
}

// New allocates a capture buffer of the given power-of-two size in frames.
func New(size int) *Buffer {
	return &Buffer{lineL: delay.New(size), lineR: delay.New(size)}
}

// SetParams updates the grain-scheduling controls for the next block.
func (b *Buffer) SetParams(p Params) { b.params = p }

func (b *Buffer) Params() Params { return b.params }

// Capture writes one stereo input frame into the buffer unless frozen, in
// which case the buffer's existing content is read-only (spec: "frozen
// mode").
func (b *Buffer) Capture(l, r float32) {
	if b.params.Frozen {
		return
	}
	b.lineL.Write(l)
	b.lineR.Write(r)
}

// ReadGrainSeed returns a Hermite-interpolated stereo sample at the grain
// scheduler's requested fractional delay within the capture window; this is
// the only audio-rate primitive the out-of-core grain scheduler needs from
// the buffer.
func (b *Buffer) ReadGrainSeed(delayFrames float64) (l, r float32) {
	return b.lineL.ReadHermite(delayFrames), b.lineR.ReadHermite(delayFrames)
}

func (b *Buffer) Size() int { return b.lineL.Size() }
