package analytics

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumiere-atelier/backend/internal/models"
)

// Repository handles page-view persistence and aggregation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert records a page view. Called by the background worker, not by
// request handlers.
func (r *Repository) Insert(ctx context.Context, path, referrer, visitorHash, userAgent string, viewedAt time.Time) error {
	const q = `INSERT INTO page_views (path, referrer, visitor_hash, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, q, path, referrer, visitorHash, userAgent, viewedAt)
	return err
}

// CountSince returns total and unique-visitor page views recorded after the
// cutoff. A zero cutoff counts everything.
func (r *Repository) CountSince(ctx context.Context, cutoff time.Time) (total, unique int, err error) {
	const q = `SELECT COUNT(*), COUNT(DISTINCT visitor_hash) FROM page_views WHERE created_at >= $1`
	err = r.pool.QueryRow(ctx, q, cutoff).Scan(&total, &unique)
	return total, unique, err
}

// TopPaths returns the most viewed paths since the cutoff.
func (r *Repository) TopPaths(ctx context.Context, cutoff time.Time, limit int) ([]models.PathCount, error) {
	const q = `SELECT path, COUNT(*) AS views FROM page_views
		WHERE created_at >= $1
		GROUP BY path ORDER BY views DESC, path LIMIT $2`
	rows, err := r.pool.Query(ctx, q, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.PathCount
	for rows.Next() {
		var pc models.PathCount
		if err := rows.Scan(&pc.Path, &pc.Count); err != nil {
			return nil, err
		}
		list = append(list, pc)
	}
	return list, rows.Err()
}
