package voting

import (
	"testing"
	"time"

	"github.com/lumiere-atelier/backend/internal/models"
)

func TestResolveStatus(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want models.EventStatus
	}{
		{"well before start", start.Add(-48 * time.Hour), models.EventStatusDraft},
		{"one second before start", start.Add(-time.Second), models.EventStatusDraft},
		{"exactly at start", start, models.EventStatusActive},
		{"mid window", start.Add(7 * 24 * time.Hour), models.EventStatusActive},
		{"exactly at end", end, models.EventStatusActive},
		{"one second after end", end.Add(time.Second), models.EventStatusEnded},
		{"well after end", end.Add(30 * 24 * time.Hour), models.EventStatusEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(start, end, tt.now); got != tt.want {
				t.Errorf("ResolveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveActive(t *testing.T) {
	tests := []struct {
		name         string
		storedActive bool
		status       models.EventStatus
		want         bool
	}{
		{"flag set and window active", true, models.EventStatusActive, true},
		{"flag set but window not open yet", true, models.EventStatusDraft, false},
		{"flag set but window closed", true, models.EventStatusEnded, false},
		{"flag unset during window", false, models.EventStatusActive, false},
		{"flag unset outside window", false, models.EventStatusEnded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveActive(tt.storedActive, tt.status); got != tt.want {
				t.Errorf("ResolveActive(%v, %q) = %v, want %v", tt.storedActive, tt.status, got, tt.want)
			}
		})
	}
}
