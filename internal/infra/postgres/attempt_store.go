package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizmaker-service/internal/domain"
)

// AttemptStore is an append-only attempt log in Postgres.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) Save(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(attempt)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("marshal attempt: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attempts (id, quiz_id, user_id, created_at, data) VALUES ($1, $2, $3, $4, $5::jsonb)`,
		attempt.ID, attempt.QuizID, attempt.UserID, attempt.CreatedAt, string(data))
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	return attempt, nil
}

func (s *AttemptStore) FindByID(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM attempts WHERE id=$1`, attemptID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Attempt{}, domain.ErrAttemptNotFound
		}
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	return decodeAttempt(raw)
}

// FindByUser returns the newest attempts first; limit <= 0 means no limit.
func (s *AttemptStore) FindByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM attempts WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT NULLIF($2::int, 0)`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		attempt, err := decodeAttempt(raw)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, rows.Err()
}

func decodeAttempt(raw []byte) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := json.Unmarshal(raw, &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
