package models

import (
	"time"

	"github.com/google/uuid"
)

// PageView is one recorded page view. Rows are written by the background
// worker from queued track events, never directly by request handlers.
type PageView struct {
	ID          uuid.UUID `json:"id"`
	Path        string    `json:"path"`
	Referrer    string    `json:"referrer"`
	VisitorHash string    `json:"-"`
	UserAgent   string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// PathCount is a per-path page view total.
type PathCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}
