package voting

import (
	"time"

	"github.com/lumiere-atelier/backend/internal/models"
)

// ResolveStatus computes an event's lifecycle status from its date window:
// draft before start, ended after end, active in between (boundaries
// inclusive). Pure; callers persist the result if it differs from the stored
// value, so events self-heal on read without a scheduled job.
func ResolveStatus(start, end, now time.Time) models.EventStatus {
	if now.Before(start) {
		return models.EventStatusDraft
	}
	if now.After(end) {
		return models.EventStatusEnded
	}
	return models.EventStatusActive
}

// ResolveActive reports whether an event is currently accepting votes: the
// stored is_active flag must be set AND the date window must resolve to
// active.
func ResolveActive(storedActive bool, status models.EventStatus) bool {
	return storedActive && status == models.EventStatusActive
}
