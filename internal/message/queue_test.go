package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushPopOrder(t *testing.T) {
	q := NewQueue(4)
	q.Push(TriggerNote(1, 60, 1.0, false, false, false, 0, 0, 0, 0))
	q.Push(TriggerNote(2, 62, 1.0, false, false, false, 0, 1, 0, 0))

	m, ok := q.Pop()
	require.True(t, ok)
	assert.EqualValues(t, 1, m.VoiceID)

	m, ok = q.Pop()
	require.True(t, ok)
	assert.EqualValues(t, 2, m.VoiceID)

	_, ok = q.Pop()
	assert.False(t, ok, "expected queue empty")
}

func TestQueueOverflowDrops(t *testing.T) {
	q := NewQueue(2)
	for i := 0; i < 5; i++ {
		q.Push(SetParam("x", float64(i)))
	}
	assert.Greater(t, q.Dropped(), uint64(0))
}

func TestQueueRoundsCapacityToPowerOfTwo(t *testing.T) {
	q := NewQueue(3)
	assert.Len(t, q.buf, 4)
}
