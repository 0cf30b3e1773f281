package memory

import (
	"context"
	"sort"
	"sync"

	"quizmaker-service/internal/domain"
)

// QuizStore is an in-memory implementation of app.QuizRepository.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.Quiz
}

func NewQuizStore() *QuizStore {
	return &QuizStore{quizzes: make(map[string]domain.Quiz)}
}

// NewQuizStoreWith seeds the store, useful for tests/demos.
func NewQuizStoreWith(quizzes ...domain.Quiz) *QuizStore {
	s := NewQuizStore()
	for _, q := range quizzes {
		s.quizzes[q.ID] = q.Clone()
	}
	return s
}

func (s *QuizStore) FindByID(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz.Clone(), nil
}

func (s *QuizStore) FindByOwner(_ context.Context, ownerID string) ([]domain.Quiz, error) {
	return s.collect(func(q domain.Quiz) bool { return q.Creator == ownerID }), nil
}

func (s *QuizStore) FindPublic(_ context.Context, filter domain.QuizFilter) ([]domain.Quiz, error) {
	return s.collect(filter.Matches), nil
}

func (s *QuizStore) Create(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz.Clone()
	return nil
}

func (s *QuizStore) Update(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	stored := quiz.Clone()
	// The counter is owned by IncrementAttempts; a stale read must not roll it back.
	stored.AttemptsCount = existing.AttemptsCount
	s.quizzes[quiz.ID] = stored
	return nil
}

func (s *QuizStore) Delete(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *QuizStore) IncrementAttempts(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.AttemptsCount++
	s.quizzes[quizID] = quiz
	return nil
}

// collect returns matching quizzes newest first.
func (s *QuizStore) collect(match func(domain.Quiz) bool) []domain.Quiz {
	s.mu.RLock()
	out := make([]domain.Quiz, 0)
	for _, q := range s.quizzes {
		if match(q) {
			out = append(out, q.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
