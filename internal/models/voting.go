package models

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the lifecycle status of a voting event, derived from its
// date window: draft before start, active inside the window, ended after.
type EventStatus string

const (
	EventStatusDraft  EventStatus = "draft"
	EventStatusActive EventStatus = "active"
	EventStatusEnded  EventStatus = "ended"
)

// VotingEvent is a time-boxed poll where customers choose a future collection.
type VotingEvent struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	StartDate   time.Time   `json:"start_date"`
	EndDate     time.Time   `json:"end_date"`
	Status      EventStatus `json:"status"`
	IsActive    bool        `json:"is_active"`
	CreatedBy   uuid.UUID   `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// VotingOption is one selectable choice within an event.
type VotingOption struct {
	ID           uuid.UUID `json:"id"`
	EventID      uuid.UUID `json:"event_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ImageURLs    []string  `json:"image_urls"`
	ImageKeys    []string  `json:"-"` // S3 keys, kept for cleanup on delete
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Vote is a single ballot. The voter's email is stored only as a hash;
// uniqueness is enforced on (event_id, email_hash).
type Vote struct {
	ID        uuid.UUID `json:"id"`
	EventID   uuid.UUID `json:"event_id"`
	OptionID  uuid.UUID `json:"option_id"`
	EmailHash string    `json:"-"`
	IPAddress string    `json:"-"`
	UserAgent string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// OptionResult is one option's tally within an event's results.
type OptionResult struct {
	Option     VotingOption `json:"option"`
	Votes      int          `json:"votes"`
	Percentage float64      `json:"percentage"`
}

// EventResults is the aggregated outcome of an event, options sorted
// most-votes-first.
type EventResults struct {
	Event      *VotingEvent   `json:"event"`
	TotalVotes int            `json:"total_votes"`
	Results    []OptionResult `json:"results"`
}
