package cockroach

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Shivansh47201/vartalap/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// UserRepository handles user data operations in CockroachDB
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (user_id, name, username, email, password_hash, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.UserID,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `
		SELECT user_id, name, username, email, password_hash, avatar_url, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, userID))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `
		SELECT user_id, name, username, email, password_hash, avatar_url, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, username))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT user_id, name, username, email, password_hash, avatar_url, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.pool.QueryRow(ctx, query, email))
}

// Search finds users whose name or username matches the query, excluding the searcher
func (r *UserRepository) Search(ctx context.Context, selfID uuid.UUID, term string, limit int) ([]*domain.User, error) {
	query := `
		SELECT user_id, name, username, email, password_hash, avatar_url, created_at, updated_at
		FROM users
		WHERE user_id != $1 AND (name ILIKE '%' || $2 || '%' OR username ILIKE '%' || $2 || '%')
		ORDER BY username ASC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, selfID, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user := &domain.User{}
		if err := rows.Scan(
			&user.UserID,
			&user.Name,
			&user.Username,
			&user.Email,
			&user.PasswordHash,
			&user.AvatarURL,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// GetSummaries fetches display summaries for a set of user IDs
func (r *UserRepository) GetSummaries(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]*domain.UserSummary, error) {
	query := `
		SELECT user_id, name, username, avatar_url
		FROM users
		WHERE user_id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer rows.Close()

	summaries := make(map[uuid.UUID]*domain.UserSummary, len(userIDs))
	for rows.Next() {
		s := &domain.UserSummary{}
		if err := rows.Scan(&s.UserID, &s.Name, &s.Username, &s.AvatarURL); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		summaries[s.UserID] = s
	}

	return summaries, nil
}

// UpdateProfile updates mutable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, userID uuid.UUID, name string, avatarURL *string) error {
	query := `
		UPDATE users
		SET name = $2, avatar_url = $3, updated_at = NOW()
		WHERE user_id = $1
	`

	if _, err := r.pool.Exec(ctx, query, userID, name, avatarURL); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.UserID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}
