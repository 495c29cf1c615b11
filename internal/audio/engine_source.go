package audio

// Engine is the subset of ringforge.Engine that EngineSource needs; kept as
// an interface here so this package does not depend on the root package.
type Engine interface {
	Process(outL, outR []float32, input []float32) error
}

// EngineSource adapts an Engine to the SampleSource interface StreamReader
// expects, de-interleaving the ebiten-style []float32 buffer into the
// engine's separate left/right block calls.
type EngineSource struct {
	engine Engine
	scratchL, scratchR []float32
}

func NewEngineSource(engine Engine) *EngineSource {
	return &EngineSource{engine: engine}
}

func (s *EngineSource) Process(dst []float32) {
	frames := len(dst) / 2
	if cap(s.scratchL) < frames {
		s.scratchL = make([]float32, frames)
		s.scratchR = make([]float32, frames)
	}
	outL := s.scratchL[:frames]
	outR := s.scratchR[:frames]
	if err := s.engine.Process(outL, outR, nil); err != nil {
		for i := range dst {
			dst[i] = 0
		}
		return
	}
	for i := 0; i < frames; i++ {
		dst[i*2] = outL[i]
		dst[i*2+1] = outR[i]
	}
}
