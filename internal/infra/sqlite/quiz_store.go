package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"quizmaker-service/internal/domain"
)

// QuizStore implements app.QuizRepository on SQLite.
type QuizStore struct {
	db *sql.DB
}

const quizColumns = `data, attempts_count`

func (s *QuizStore) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = ?`, quizID)
	quiz, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, err
	}
	return quiz, nil
}

func (s *QuizStore) FindByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE creator_id = ?
		 ORDER BY created_at_unix DESC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

func (s *QuizStore) FindPublic(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	pattern := ""
	if filter.Search != "" {
		replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
		pattern = "%" + replacer.Replace(filter.Search) + "%"
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE is_public = 1
		   AND (?1 = '' OR category = ?1)
		   AND (?2 = '' OR difficulty = ?2)
		   AND (?3 = '' OR title LIKE ?3 ESCAPE '\' OR description LIKE ?3 ESCAPE '\')
		 ORDER BY created_at_unix DESC, id ASC`,
		string(filter.Category), string(filter.Difficulty), pattern,
	)
	if err != nil {
		return nil, err
	}
	return collectQuizzes(rows)
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quizzes (id, creator_id, is_public, category, difficulty, title, description, attempts_count, created_at_unix, updated_at_unix, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quiz.ID, quiz.Creator, quiz.IsPublic, string(quiz.Category), string(quiz.Difficulty),
		quiz.Title, quiz.Description, quiz.AttemptsCount,
		quiz.CreatedAt.UnixNano(), quiz.UpdatedAt.UnixNano(), string(data),
	)
	return err
}

func (s *QuizStore) Update(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE quizzes
		 SET is_public = ?, category = ?, difficulty = ?, title = ?, description = ?, updated_at_unix = ?, data = ?
		 WHERE id = ?`,
		quiz.IsPublic, string(quiz.Category), string(quiz.Difficulty), quiz.Title, quiz.Description,
		quiz.UpdatedAt.UnixNano(), string(data), quiz.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *QuizStore) Delete(ctx context.Context, quizID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = ?`, quizID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func (s *QuizStore) IncrementAttempts(ctx context.Context, quizID string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE quizzes SET attempts_count = attempts_count + 1 WHERE id = ?`, quizID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (domain.Quiz, error) {
	var (
		raw      string
		attempts int
	)
	if err := row.Scan(&raw, &attempts); err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.AttemptsCount = attempts
	return quiz, nil
}

func collectQuizzes(rows *sql.Rows) ([]domain.Quiz, error) {
	defer rows.Close()
	quizzes := make([]domain.Quiz, 0)
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, quiz)
	}
	return quizzes, rows.Err()
}
