package notify

import (
	"slices"

	"github.com/jmylchreest/histshell/internal/model"
)

// DefaultHistoryLength is the history cap when none is configured.
const DefaultHistoryLength = 50

// History is a newest-first list of notifications with a fixed capacity.
// Pushing onto a full history drops the oldest entry.
type History struct {
	items []*model.Notification
	max   int
}

// NewHistory creates a history holding at most limit entries.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLength
	}
	return &History{max: limit}
}

// Prepend adds n as the newest entry and returns the entries evicted from
// the tail.
func (h *History) Prepend(n *model.Notification) []*model.Notification {
	h.items = slices.Insert(h.items, 0, n)
	return h.truncate()
}

// Remove drops the entry with id. It reports whether one was found.
func (h *History) Remove(id uint32) bool {
	before := len(h.items)
	h.items = slices.DeleteFunc(h.items, func(n *model.Notification) bool {
		return n.ID == id
	})
	return len(h.items) != before
}

// Clear empties the history and returns what it held.
func (h *History) Clear() []*model.Notification {
	items := h.items
	h.items = nil
	return items
}

// Snapshot returns a copy of the entries, newest first.
func (h *History) Snapshot() []*model.Notification {
	return slices.Clone(h.items)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.items)
}

// Max returns the capacity.
func (h *History) Max() int {
	return h.max
}

// SetMax changes the capacity, evicting from the tail if needed.
func (h *History) SetMax(limit int) []*model.Notification {
	if limit <= 0 {
		limit = DefaultHistoryLength
	}
	h.max = limit
	return h.truncate()
}

func (h *History) truncate() []*model.Notification {
	if len(h.items) <= h.max {
		return nil
	}
	evicted := slices.Clone(h.items[h.max:])
	clear(h.items[h.max:])
	h.items = h.items[:h.max]
	return evicted
}
