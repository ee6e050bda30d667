package cockroach

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// StatusRepository handles ephemeral status posts
type StatusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository creates a new StatusRepository
func NewStatusRepository(pool *pgxpool.Pool) *StatusRepository {
	return &StatusRepository{pool: pool}
}

// Create inserts a status post
func (r *StatusRepository) Create(ctx context.Context, status *domain.Status) error {
	query := `
		INSERT INTO status_posts (status_id, user_id, text, media_url, media_type, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		status.StatusID,
		status.UserID,
		status.Text,
		status.MediaURL,
		status.MediaType,
		status.CreatedAt,
		status.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create status: %w", err)
	}

	return nil
}

// ListActive retrieves all non-expired statuses, newest first
func (r *StatusRepository) ListActive(ctx context.Context) ([]*domain.Status, error) {
	query := `
		SELECT status_id, user_id, text, media_url, media_type, created_at, expires_at
		FROM status_posts
		WHERE expires_at > $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	defer rows.Close()

	var statuses []*domain.Status
	for rows.Next() {
		s := &domain.Status{}
		if err := rows.Scan(&s.StatusID, &s.UserID, &s.Text, &s.MediaURL, &s.MediaType, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, nil
}

// Delete removes a status owned by the given user
func (r *StatusRepository) Delete(ctx context.Context, statusID, userID uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`DELETE FROM status_posts WHERE status_id = $1 AND user_id = $2`,
		statusID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired removes statuses past their expiry
func (r *StatusRepository) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM status_posts WHERE expires_at <= $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired statuses: %w", err)
	}
	return result.RowsAffected(), nil
}
