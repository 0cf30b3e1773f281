package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Store is a single-file document store; quizzes and attempts share one connection.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = "quizmaker.db"
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	store := &Store{db: db}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) Quizzes() *QuizStore {
	return &QuizStore{db: s.db}
}

func (s *Store) Attempts() *AttemptStore {
	return &AttemptStore{db: s.db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	// No FK from attempts to quizzes: deleting a quiz keeps its graded attempts.
	statements := []string{
		`CREATE TABLE IF NOT EXISTS quizzes (
			id TEXT PRIMARY KEY,
			creator_id TEXT NOT NULL,
			is_public INTEGER NOT NULL DEFAULT 1,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			attempts_count INTEGER NOT NULL DEFAULT 0,
			created_at_unix INTEGER NOT NULL,
			updated_at_unix INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS attempts (
			id TEXT PRIMARY KEY,
			quiz_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			created_at_unix INTEGER NOT NULL,
			data TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_creator ON quizzes(creator_id, created_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_quizzes_public ON quizzes(is_public, created_at_unix DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_attempts_user ON attempts(user_id, created_at_unix DESC);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
