package cockroach

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// CallLogRepository handles call history records
type CallLogRepository struct {
	pool *pgxpool.Pool
}

// NewCallLogRepository creates a new CallLogRepository
func NewCallLogRepository(pool *pgxpool.Pool) *CallLogRepository {
	return &CallLogRepository{pool: pool}
}

// Create inserts a call log record
func (r *CallLogRepository) Create(ctx context.Context, log *domain.CallLog) error {
	query := `
		INSERT INTO call_logs (
			call_log_id, caller_id, callee_id, conversation_id,
			mode, direction, status, started_at, ended_at, duration_millis
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	err := r.pool.QueryRow(ctx, query,
		log.CallLogID,
		log.CallerID,
		log.CalleeID,
		log.ConversationID,
		log.Mode,
		log.Direction,
		log.Status,
		log.StartedAt,
		log.EndedAt,
		log.DurationMillis,
	).Scan(&log.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create call log: %w", err)
	}

	return nil
}

// GetForUser retrieves call records involving a user, newest first
func (r *CallLogRepository) GetForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CallLog, error) {
	query := `
		SELECT call_log_id, caller_id, callee_id, conversation_id,
		       mode, direction, status, started_at, ended_at, duration_millis, created_at
		FROM call_logs
		WHERE caller_id = $1 OR callee_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get call logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.CallLog
	for rows.Next() {
		log := &domain.CallLog{}
		if err := rows.Scan(
			&log.CallLogID,
			&log.CallerID,
			&log.CalleeID,
			&log.ConversationID,
			&log.Mode,
			&log.Direction,
			&log.Status,
			&log.StartedAt,
			&log.EndedAt,
			&log.DurationMillis,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan call log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, nil
}
