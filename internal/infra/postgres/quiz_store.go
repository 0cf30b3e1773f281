package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quizmaker-service/internal/domain"
)

// QuizStore keeps quiz documents as JSONB with the filterable fields lifted into columns.
// attempts_count lives only in its column so increments never rewrite the document.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

const quizColumns = `data, attempts_count`

func (s *QuizStore) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id=$1`, quizID)
	quiz, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (s *QuizStore) FindByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE creator_id=$1
		 ORDER BY created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes by owner: %w", err)
	}
	return collectQuizzes(rows)
}

func (s *QuizStore) FindPublic(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+quizColumns+` FROM quizzes
		 WHERE is_public
		   AND ($1::text = '' OR category = $1::text)
		   AND ($2::text = '' OR difficulty = $2::text)
		   AND ($3::text = '' OR data->>'title' ILIKE $3::text OR data->>'description' ILIKE $3::text)
		 ORDER BY created_at DESC, id ASC`,
		string(filter.Category), string(filter.Difficulty), likePattern(filter.Search))
	if err != nil {
		return nil, fmt.Errorf("list public quizzes: %w", err)
	}
	return collectQuizzes(rows)
}

func (s *QuizStore) Create(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (id, creator_id, is_public, category, difficulty, attempts_count, created_at, updated_at, data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb)`,
		quiz.ID, quiz.Creator, quiz.IsPublic, string(quiz.Category), string(quiz.Difficulty),
		quiz.AttemptsCount, quiz.CreatedAt, quiz.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) Update(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes
		 SET is_public=$2, category=$3, difficulty=$4, updated_at=$5, data=$6::jsonb
		 WHERE id=$1`,
		quiz.ID, quiz.IsPublic, string(quiz.Category), string(quiz.Difficulty), quiz.UpdatedAt, string(data))
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) Delete(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) IncrementAttempts(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE quizzes SET attempts_count = attempts_count + 1 WHERE id=$1`, quizID)
	if err != nil {
		return fmt.Errorf("increment attempts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		raw      []byte
		attempts int
	)
	if err := row.Scan(&raw, &attempts); err != nil {
		return domain.Quiz{}, err
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.AttemptsCount = attempts
	return quiz, nil
}

func collectQuizzes(rows pgx.Rows) ([]domain.Quiz, error) {
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

// likePattern turns free text into a contains-pattern with LIKE metacharacters escaped.
func likePattern(search string) string {
	if search == "" {
		return ""
	}
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + replacer.Replace(search) + "%"
}
