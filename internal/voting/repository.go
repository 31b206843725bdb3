package voting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumiere-atelier/backend/internal/models"
)

var (
	// ErrDuplicateVote is returned when (event, email hash) already has a vote.
	ErrDuplicateVote = errors.New("duplicate vote")
	// ErrNotFound is returned when an event or option does not exist.
	ErrNotFound = errors.New("not found")
)

const pgUniqueViolation = "23505"

// Repository handles voting event, option, and vote persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a voting repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const eventColumns = `id, name, description, start_date, end_date, status, is_active, created_by, created_at, updated_at`

func scanEvent(row pgx.Row) (*models.VotingEvent, error) {
	var e models.VotingEvent
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Status, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// CreateEvent inserts a new voting event.
func (r *Repository) CreateEvent(ctx context.Context, e *models.VotingEvent) error {
	const q = `INSERT INTO voting_events (name, description, start_date, end_date, status, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, q, e.Name, e.Description, e.StartDate, e.EndDate, string(e.Status), e.IsActive, e.CreatedBy).
		Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// GetEventByID returns an event by ID with its status freshly resolved
// (and persisted if the stored value was stale).
func (r *Repository) GetEventByID(ctx context.Context, id uuid.UUID) (*models.VotingEvent, error) {
	const q = `SELECT ` + eventColumns + ` FROM voting_events WHERE id = $1`
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return r.healStatus(ctx, e)
}

// GetActiveEvent returns the single currently-active event, or nil when no
// event is accepting votes right now.
func (r *Repository) GetActiveEvent(ctx context.Context) (*models.VotingEvent, error) {
	const q = `SELECT ` + eventColumns + ` FROM voting_events WHERE is_active = TRUE`
	e, err := scanEvent(r.pool.QueryRow(ctx, q))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	e, err = r.healStatus(ctx, e)
	if err != nil {
		return nil, err
	}
	if !ResolveActive(e.IsActive, e.Status) {
		return nil, nil
	}
	return e, nil
}

// ListEvents returns all events, newest first, with statuses resolved.
func (r *Repository) ListEvents(ctx context.Context) ([]models.VotingEvent, error) {
	const q = `SELECT ` + eventColumns + ` FROM voting_events ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.VotingEvent
	for rows.Next() {
		var e models.VotingEvent
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate, &e.Status, &e.IsActive, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range list {
		healed, err := r.healStatus(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		list[i] = *healed
	}
	return list, nil
}

// UpdateEvent updates event fields. Nil date pointers keep the stored value.
func (r *Repository) UpdateEvent(ctx context.Context, id uuid.UUID, name, description string, startDate, endDate *time.Time) (*models.VotingEvent, error) {
	const q = `UPDATE voting_events
		SET name = $1, description = $2,
		    start_date = COALESCE($3, start_date),
		    end_date = COALESCE($4, end_date),
		    updated_at = NOW()
		WHERE id = $5
		RETURNING ` + eventColumns
	e, err := scanEvent(r.pool.QueryRow(ctx, q, name, description, startDate, endDate, id))
	if err != nil {
		return nil, err
	}
	return r.healStatus(ctx, e)
}

// DeleteEvent removes an event; options and votes go with it via cascade.
// Returns the S3 keys of all option images so the caller can enqueue cleanup.
func (r *Repository) DeleteEvent(ctx context.Context, id uuid.UUID) ([]string, error) {
	const keysQ = `SELECT COALESCE(array_agg(k), '{}') FROM (
		SELECT unnest(image_keys) AS k FROM voting_options WHERE event_id = $1
	) s`
	var keys []string
	if err := r.pool.QueryRow(ctx, keysQ, id).Scan(&keys); err != nil {
		return nil, err
	}
	tag, err := r.pool.Exec(ctx, `DELETE FROM voting_events WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return keys, nil
}

// ActivateEvent flags an event active, deactivating every other event in the
// same transaction so at most one event stays active under concurrent calls.
// The partial unique index on is_active backs this up at the storage layer.
func (r *Repository) ActivateEvent(ctx context.Context, id uuid.UUID) (*models.VotingEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `UPDATE voting_events SET is_active = FALSE, updated_at = NOW() WHERE is_active AND id <> $1`, id); err != nil {
		return nil, err
	}
	const q = `UPDATE voting_events SET is_active = TRUE, updated_at = NOW() WHERE id = $1 RETURNING ` + eventColumns
	e, err := scanEvent(tx.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.healStatus(ctx, e)
}

// DeactivateEvent clears an event's active flag.
func (r *Repository) DeactivateEvent(ctx context.Context, id uuid.UUID) (*models.VotingEvent, error) {
	const q = `UPDATE voting_events SET is_active = FALSE, updated_at = NOW() WHERE id = $1 RETURNING ` + eventColumns
	e, err := scanEvent(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, err
	}
	return r.healStatus(ctx, e)
}

// healStatus recomputes the derived status and writes it back when stale.
func (r *Repository) healStatus(ctx context.Context, e *models.VotingEvent) (*models.VotingEvent, error) {
	status := ResolveStatus(e.StartDate, e.EndDate, time.Now())
	active := ResolveActive(e.IsActive, status)
	if status == e.Status && active == e.IsActive {
		return e, nil
	}
	const q = `UPDATE voting_events SET status = $1, is_active = $2, updated_at = NOW() WHERE id = $3`
	if _, err := r.pool.Exec(ctx, q, string(status), active, e.ID); err != nil {
		return nil, err
	}
	e.Status = status
	e.IsActive = active
	return e, nil
}

const optionColumns = `id, event_id, name, description, image_urls, image_keys, display_order, created_at, updated_at`

func scanOption(row pgx.Row) (*models.VotingOption, error) {
	var o models.VotingOption
	err := row.Scan(&o.ID, &o.EventID, &o.Name, &o.Description, &o.ImageURLs, &o.ImageKeys, &o.DisplayOrder, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// CreateOption inserts a new option for an event.
func (r *Repository) CreateOption(ctx context.Context, o *models.VotingOption) error {
	const q = `INSERT INTO voting_options (event_id, name, description, image_urls, image_keys, display_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	if o.ImageURLs == nil {
		o.ImageURLs = []string{}
	}
	if o.ImageKeys == nil {
		o.ImageKeys = []string{}
	}
	return r.pool.QueryRow(ctx, q, o.EventID, o.Name, o.Description, o.ImageURLs, o.ImageKeys, o.DisplayOrder).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

// GetOption returns an option scoped to an event; an option ID belonging to
// a different event reports not found.
func (r *Repository) GetOption(ctx context.Context, eventID, optionID uuid.UUID) (*models.VotingOption, error) {
	const q = `SELECT ` + optionColumns + ` FROM voting_options WHERE id = $1 AND event_id = $2`
	return scanOption(r.pool.QueryRow(ctx, q, optionID, eventID))
}

// ListOptions returns an event's options in display order.
func (r *Repository) ListOptions(ctx context.Context, eventID uuid.UUID) ([]models.VotingOption, error) {
	const q = `SELECT ` + optionColumns + ` FROM voting_options WHERE event_id = $1 ORDER BY display_order, created_at`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.VotingOption
	for rows.Next() {
		var o models.VotingOption
		if err := rows.Scan(&o.ID, &o.EventID, &o.Name, &o.Description, &o.ImageURLs, &o.ImageKeys, &o.DisplayOrder, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// UpdateOption updates an option's fields, scoped to its event.
func (r *Repository) UpdateOption(ctx context.Context, eventID, optionID uuid.UUID, name, description string, displayOrder int) (*models.VotingOption, error) {
	const q = `UPDATE voting_options SET name = $1, description = $2, display_order = $3, updated_at = NOW()
		WHERE id = $4 AND event_id = $5
		RETURNING ` + optionColumns
	return scanOption(r.pool.QueryRow(ctx, q, name, description, displayOrder, optionID, eventID))
}

// AppendOptionImage records an uploaded image URL and its S3 key on an option.
func (r *Repository) AppendOptionImage(ctx context.Context, eventID, optionID uuid.UUID, url, key string) (*models.VotingOption, error) {
	const q = `UPDATE voting_options
		SET image_urls = array_append(image_urls, $1), image_keys = array_append(image_keys, $2), updated_at = NOW()
		WHERE id = $3 AND event_id = $4
		RETURNING ` + optionColumns
	return scanOption(r.pool.QueryRow(ctx, q, url, key, optionID, eventID))
}

// DeleteOption removes an option scoped to its event, returning its S3 image
// keys for cleanup.
func (r *Repository) DeleteOption(ctx context.Context, eventID, optionID uuid.UUID) ([]string, error) {
	const q = `DELETE FROM voting_options WHERE id = $1 AND event_id = $2 RETURNING image_keys`
	var keys []string
	err := r.pool.QueryRow(ctx, q, optionID, eventID).Scan(&keys)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return keys, nil
}

// HasVoted reports whether the hashed email already has a vote in the event.
func (r *Repository) HasVoted(ctx context.Context, eventID uuid.UUID, emailHash string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM votes WHERE event_id = $1 AND email_hash = $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, q, eventID, emailHash).Scan(&exists)
	return exists, err
}

// InsertVote persists a vote. The unique constraint on (event_id, email_hash)
// is the authoritative duplicate gate; a violation maps to ErrDuplicateVote
// so concurrent double-submissions surface as a user error, not a 500.
func (r *Repository) InsertVote(ctx context.Context, v *models.Vote) error {
	const q = `INSERT INTO votes (event_id, option_id, email_hash, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, v.EventID, v.OptionID, v.EmailHash, v.IPAddress, v.UserAgent).
		Scan(&v.ID, &v.CreatedAt)
	return translateVoteError(err)
}

// translateVoteError maps a unique-constraint violation on vote insert to
// ErrDuplicateVote. Every other error passes through unchanged.
func translateVoteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateVote
	}
	return err
}

// CountVotesByOption returns per-option vote counts for an event.
func (r *Repository) CountVotesByOption(ctx context.Context, eventID uuid.UUID) (map[uuid.UUID]int, error) {
	const q = `SELECT option_id, COUNT(*) FROM votes WHERE event_id = $1 GROUP BY option_id`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var optionID uuid.UUID
		var n int
		if err := rows.Scan(&optionID, &n); err != nil {
			return nil, err
		}
		counts[optionID] = n
	}
	return counts, rows.Err()
}
