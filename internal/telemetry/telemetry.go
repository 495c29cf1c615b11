// Package telemetry is the control-thread-only diagnostic reporter (spec
// §5: "the audio thread never logs, allocates, or blocks"). The engine
// pushes voice-steal, queue-overflow and onset events into a lock-free ring
// (EventReverbFault and EventVoiceStealFallback are defined, but nothing
// pushes them); a
// control-thread goroutine drains it and logs through charmbracelet/log,
// the structured logger already in the dependency closure.
package telemetry

import (
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// EventKind identifies the class of diagnostic event.
type EventKind int

const (
	EventVoiceStolen EventKind = iota
	EventVoiceStealFallback
	EventQueueOverflow
	EventReverbFault
	EventOnsetDetected
)

// Event is a fixed-size diagnostic record, safe to write from the audio
// thread without allocation.
type Event struct {
	Kind      EventKind
	VoiceID   uint64
	Value     float64
	Timestamp float64 // audioTime seconds, not wall clock
}

// Ring is a lock-free single-producer/single-consumer ring of Events,
// written by the audio thread and drained by the control thread.
type Ring struct {
	buf  []Event
	mask uint64
	head atomic.Uint64
	tail atomic.Uint64
}

func NewRing(capacity int) *Ring {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &Ring{buf: make([]Event, n), mask: uint64(n - 1)}
}

// Push is called from the audio thread; it never blocks and silently drops
// the event if the ring is full (telemetry loss is preferable to an audio
// glitch).
func (r *Ring) Push(e Event) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= uint64(len(r.buf)) {
		return
	}
	r.buf[head&r.mask] = e
	r.head.Store(head + 1)
}

func (r *Ring) pop() (Event, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail == head {
		return Event{}, false
	}
	e := r.buf[tail&r.mask]
	r.tail.Store(tail + 1)
	return e, true
}

// Reporter drains a Ring on the control thread and logs each event
// structured by kind, tagged with the owning engine instance's ID so logs
// from multiple concurrently-running engines (e.g. in a test harness) can be
// told apart, grounded on the teacher example pack's request-ID middleware
// pattern (Conceptual-Machines-magda-api internal/api/middleware/sentry.go)
// generalized from one ID per HTTP request to one ID per engine instance.
type Reporter struct {
	ring       *Ring
	logger     *log.Logger
	instanceID uuid.UUID
}

// NewReporter builds a Reporter writing to w (os.Stderr in cmd/ tooling).
func NewReporter(ring *Ring, w io.Writer) *Reporter {
	instanceID := uuid.New()
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "ringforge[" + instanceID.String()[:8] + "]",
	})
	return &Reporter{ring: ring, logger: logger, instanceID: instanceID}
}

// InstanceID identifies this reporter's engine instance across log lines.
func (r *Reporter) InstanceID() uuid.UUID { return r.instanceID }

// Drain logs every currently-queued event. Call periodically from a
// control-thread ticker; never call from the audio thread.
func (r *Reporter) Drain() {
	for {
		e, ok := r.ring.pop()
		if !ok {
			return
		}
		switch e.Kind {
		case EventVoiceStolen:
			r.logger.Debug("voice stolen", "voiceID", e.VoiceID, "audioTime", e.Timestamp)
		case EventVoiceStealFallback:
			r.logger.Warn("voice steal fallback to oldest", "voiceID", e.VoiceID, "audioTime", e.Timestamp)
		case EventQueueOverflow:
			r.logger.Warn("message queue overflow, message dropped", "audioTime", e.Timestamp)
		case EventReverbFault:
			r.logger.Error("reverb tank produced NaN/Inf, arena cleared", "audioTime", e.Timestamp)
		case EventOnsetDetected:
			r.logger.Debug("onset detected", "energy", e.Value, "audioTime", e.Timestamp)
		}
	}
}
