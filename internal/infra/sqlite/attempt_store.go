package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"quizmaker-service/internal/domain"
)

// AttemptStore implements app.AttemptRepository on SQLite. Rows are never updated.
type AttemptStore struct {
	db *sql.DB
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
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, quiz_id, user_id, created_at_unix, data) VALUES (?, ?, ?, ?, ?)`,
		attempt.ID, attempt.QuizID, attempt.UserID, attempt.CreatedAt.UnixNano(), string(data),
	); err != nil {
		return domain.Attempt{}, err
	}
	return attempt, nil
}

func (s *AttemptStore) FindByID(ctx context.Context, attemptID string) (domain.Attempt, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM attempts WHERE id = ?`, attemptID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Attempt{}, domain.ErrAttemptNotFound
		}
		return domain.Attempt{}, err
	}
	return decodeAttempt(raw)
}

// FindByUser returns the newest attempts first; limit <= 0 means no limit.
func (s *AttemptStore) FindByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM attempts
		 WHERE user_id = ?
		 ORDER BY created_at_unix DESC, rowid DESC
		 LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]domain.Attempt, 0)
	for rows.Next() {
		var raw string
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

func decodeAttempt(raw string) (domain.Attempt, error) {
	var attempt domain.Attempt
	if err := json.Unmarshal([]byte(raw), &attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal attempt: %w", err)
	}
	return attempt, nil
}
