// Command ringforge-render offline-renders a single triggered note to a WAV
// file, grounded on the teacher's offline.go (RenderSamples +
// EncodeWAVFloat32LE) and cmd/play_mml/main.go's flag layout, adapted to
// pflag per the rest of the example pack's CLI convention.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"ringforge"
	"ringforge/internal/message"
	"ringforge/internal/part"
	"ringforge/internal/voicepool"
)

func main() {
	var (
		sampleRate = pflag.IntP("sample-rate", "r", 48000, "output sample rate")
		seconds    = pflag.Float64P("seconds", "s", 4.0, "render duration in seconds")
		polyphony  = pflag.IntP("polyphony", "p", 2, "voice polyphony (1-4)")
		modelName  = pflag.StringP("model", "m", "modal", "resonator model: modal|string|fm|sympathetic|quantized|reverb")
		outPath    = pflag.StringP("out", "o", "out.wav", "output WAV path")
		note       = pflag.IntP("note", "n", 60, "MIDI note to trigger")
	)
	pflag.Parse()

	model, err := parseModel(*modelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	engine := ringforge.New(float64(*sampleRate),
		ringforge.WithPolyphony(*polyphony),
		ringforge.WithModel(model),
		ringforge.WithVoiceMode(voicepool.ModePoly),
	)
	engine.Submit(message.TriggerNote(1, *note, 1.0, false, false, false, 0, 0, 0, 0))

	wav := ringforge.RenderToWAV(engine, *sampleRate, *seconds)
	if err := os.WriteFile(*outPath, wav, 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%.2fs)\n", *outPath, *seconds)
}

func parseModel(name string) (part.Model, error) {
	switch name {
	case "modal":
		return part.ModelModal, nil
	case "string":
		return part.ModelPluckedString, nil
	case "fm":
		return part.ModelFMVoice, nil
	case "sympathetic":
		return part.ModelSympatheticString, nil
	case "quantized":
		return part.ModelQuantizedSympathetic, nil
	case "reverb":
		return part.ModelStringAndReverb, nil
	default:
		return 0, fmt.Errorf("unknown model %q", name)
	}
}
