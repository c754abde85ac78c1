package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_PrependEvictsOldest(t *testing.T) {
	h := NewHistory(3)

	for id := uint32(1); id <= 3; id++ {
		assert.Empty(t, h.Prepend(note(id)))
	}
	evicted := h.Prepend(note(4))

	require.Len(t, evicted, 1)
	assert.Equal(t, uint32(1), evicted[0].ID)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, uint32(4), h.Snapshot()[0].ID)
}

func TestHistory_DefaultLength(t *testing.T) {
	assert.Equal(t, DefaultHistoryLength, NewHistory(0).Max())
	assert.Equal(t, DefaultHistoryLength, NewHistory(-5).Max())
}

func TestHistory_Remove(t *testing.T) {
	h := NewHistory(10)
	h.Prepend(note(1))
	h.Prepend(note(2))

	assert.True(t, h.Remove(1))
	assert.False(t, h.Remove(1))
	require.Len(t, h.Snapshot(), 1)
	assert.Equal(t, uint32(2), h.Snapshot()[0].ID)
	assert.Equal(t, 1, h.Len())
}

func TestHistory_SnapshotIsCopy(t *testing.T) {
	h := NewHistory(10)
	h.Prepend(note(1))

	snap := h.Snapshot()
	snap[0] = note(99)

	assert.Equal(t, uint32(1), h.Snapshot()[0].ID)
}

func TestHistory_ClearAndSetMax(t *testing.T) {
	h := NewHistory(10)
	for id := uint32(1); id <= 5; id++ {
		h.Prepend(note(id))
	}

	evicted := h.SetMax(2)
	assert.Len(t, evicted, 3)
	assert.Equal(t, 2, h.Len())

	cleared := h.Clear()
	assert.Len(t, cleared, 2)
	assert.Zero(t, h.Len())
	assert.Empty(t, h.Snapshot())
}
