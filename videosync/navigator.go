package videosync

import (
	"fmt"
	"sync"

	"nsv-dashboard/models"
)

// Navigator steps through the sync mappings in order and produces the
// seek events the video player follows.
type Navigator struct {
	mu       sync.Mutex
	mappings []models.SyncMapping
	current  int
}

// NewNavigator creates an empty navigator; it stays inert until a sync
// run hands it mappings.
func NewNavigator() *Navigator {
	return &Navigator{current: -1}
}

// SetMappings replaces the mapping set wholesale and resets the position.
func (n *Navigator) SetMappings(mappings []models.SyncMapping) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.mappings = append([]models.SyncMapping(nil), mappings...)
	n.current = -1
}

// Count returns the number of navigable sync points.
func (n *Navigator) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mappings)
}

// JumpTo moves to the mapping at index and returns its seek event. An
// index outside [0, count) leaves the position unchanged and reports
// ok=false; the caller treats that as a no-op.
func (n *Navigator) JumpTo(index int) (models.SeekEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.jumpLocked(index)
}

// Next advances to the following sync point, stopping at the end.
func (n *Navigator) Next() (models.SeekEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.jumpLocked(n.current + 1)
}

// Prev steps back to the previous sync point, stopping at the start.
func (n *Navigator) Prev() (models.SeekEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.jumpLocked(n.current - 1)
}

func (n *Navigator) jumpLocked(index int) (models.SeekEvent, bool) {
	if index < 0 || index >= len(n.mappings) {
		return models.SeekEvent{}, false
	}
	n.current = index
	m := &n.mappings[index]
	return models.SeekEvent{
		Index:          index,
		Count:          len(n.mappings),
		VideoTimestamp: m.VideoTimestamp,
		SurveyPointID:  m.SurveyPointID,
		DistanceMeters: m.DistanceMeters,
		Label:          fmt.Sprintf("Point %d of %d", index+1, len(n.mappings)),
	}, true
}
