// Command ringforge-demo plays a short live sequence through the default
// audio device. Grounded on the teacher's cmd/play_mml/main.go (flag
// layout, Watch() event loop) and internal/audio/stream.go for device
// output; deliberately skips the teacher's play_mml_ui windowed
// analyzer/visualizer, which has no equivalent here.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"ringforge"
	"ringforge/internal/audio"
	"ringforge/internal/message"
	"ringforge/internal/part"
	"ringforge/internal/voicepool"
)

func main() {
	var (
		sampleRate = pflag.IntP("sample-rate", "r", 48000, "output sample rate")
		modelName  = pflag.StringP("model", "m", "modal", "resonator model: modal|string|fm|sympathetic|quantized|reverb")
		tonic      = pflag.IntP("tonic", "t", 60, "sequencer tonic MIDI note")
		bpm        = pflag.Float64P("bpm", "b", 120, "sequencer tempo in beats per minute")
		duration   = pflag.DurationP("duration", "d", 8*time.Second, "how long to play before exiting")
	)
	pflag.Parse()

	model, err := parseModel(*modelName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	msPerStep := 60000.0 / *bpm / 4.0
	engine := ringforge.New(float64(*sampleRate),
		ringforge.WithModel(model),
		ringforge.WithVoiceMode(voicepool.ModePoly),
		ringforge.WithStepTiming(4, 16, msPerStep),
	)

	ch := engine.Watch()
	go func() {
		for ev := range ch {
			switch ev.Kind {
			case ringforge.EventVoiceTriggered:
				fmt.Printf("trigger voice %d\n", ev.VoiceID)
			case ringforge.EventVoiceReleased:
				fmt.Printf("release voice %d\n", ev.VoiceID)
			}
		}
	}()

	player, err := audio.NewPlayer(*sampleRate, audio.NewEngineSource(engine))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	player.Play()

	gate := []bool{true, false, true, false, true, false, true, false, true, false, true, false, true, false, true, false}
	accent := []bool{true, false, false, false, false, false, false, false, true, false, false, false, false, false, false, false}
	slide := make([]bool, 16)
	trill := make([]bool, 16)

	engine.Submit(message.TriggerNote(1, *tonic, 1.0, false, false, false, 0, 0, 0, 0))

	stepDur := time.Duration(msPerStep * float64(time.Millisecond))
	deadline := time.Now().Add(*duration)
	audioTime := 0.0
	for time.Now().Before(deadline) {
		engine.AdvanceClock(audioTime, gate, accent, slide, trill, 100, 60)
		audioTime += msPerStep / 1000.0
		time.Sleep(stepDur)
	}

	player.Stop()
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
