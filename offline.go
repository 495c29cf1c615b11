package ringforge

import (
	"encoding/binary"
	"math"
)

// RenderToWAV renders seconds of audio from engine at its configured sample
// rate and returns an encoded 32-bit-float stereo WAV file, grounded on the
// teacher's offline.go (RenderSamples + EncodeWAVFloat32LE), generalized
// from a fixed MML score render to driving an arbitrary Engine.
func RenderToWAV(engine *Engine, sampleRate int, seconds float64) []byte {
	frames := int(float64(sampleRate) * seconds)
	outL := make([]float32, frames)
	outR := make([]float32, frames)
	engine.Process(outL, outR, nil)

	interleaved := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		interleaved[i*2] = outL[i]
		interleaved[i*2+1] = outR[i]
	}
	return EncodeWAVFloat32LE(interleaved, sampleRate, 2)
}

// EncodeWAVFloat32LE encodes interleaved float32 samples as a WAV file using
// the IEEE-float format tag, unchanged from the teacher's offline.go.
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
