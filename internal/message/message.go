// Package message defines the tagged sum type that crosses the
// control-thread/audio-thread boundary (spec §5, "added" §4.15), grounded on
// the teacher's internal/mml.Event tagged-struct pattern: one Kind field
// selects which payload fields are meaningful instead of a Go interface,
// so Message stays a plain value the lock-free Queue can copy by value.
package message

// Kind identifies which payload fields of a Message are populated.
type Kind int

const (
	KindTriggerNote Kind = iota
	KindReleaseVoice
	KindReleaseVoiceByIndex
	KindReleaseAllVoices
	KindSetParam
	KindSetPattern
	KindStep
	KindGate
)

// Message is a fixed-size, allocation-free value passed from the control
// thread to the audio thread over Queue. Only the
// fields relevant to Kind are meaningful; callers must not rely on zeroing
// of unused fields across reuse since the queue's backing array is
// preallocated and overwritten in place.
type Message struct {
	Kind Kind

	VoiceID    uint64
	Note       int
	Velocity   float64
	Accented   bool
	ShouldSlide bool
	IsTrill    bool
	AudioTime  float64
	StepIndex  int
	TrillTargetSemis float64
	StepDurationSec  float64

	ParamID string
	Value   float64

	PatternID string
	Pattern   [32]bool
	PatternLen int
}

// TriggerNote builds a KindTriggerNote message. trillTargetSemis/
// stepDurationSec are only meaningful when isTrill is true (spec §4.9 trill
// automation); callers that never trill may pass 0 for both.
func TriggerNote(voiceID uint64, note int, velocity float64, accented, shouldSlide, isTrill bool, audioTime float64, stepIndex int, trillTargetSemis, stepDurationSec float64) Message {
	return Message{
		Kind:             KindTriggerNote,
		VoiceID:          voiceID,
		Note:             note,
		Velocity:         velocity,
		Accented:         accented,
		ShouldSlide:      shouldSlide,
		IsTrill:          isTrill,
		AudioTime:        audioTime,
		StepIndex:        stepIndex,
		TrillTargetSemis: trillTargetSemis,
		StepDurationSec:  stepDurationSec,
	}
}

// ReleaseVoice builds a KindReleaseVoice message.
func ReleaseVoice(voiceID uint64, audioTime float64) Message {
	return Message{Kind: KindReleaseVoice, VoiceID: voiceID, AudioTime: audioTime}
}

// SetParam builds a KindSetParam message.
func SetParam(paramID string, value float64) Message {
	return Message{Kind: KindSetParam, ParamID: paramID, Value: value}
}
