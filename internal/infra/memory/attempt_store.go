package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"quizmaker-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptRepository.
// Attempts are append-only.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts []domain.Attempt
	byID     map[string]int
	clock    func() time.Time
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		byID:  make(map[string]int),
		clock: time.Now,
	}
}

func (s *AttemptStore) Save(_ context.Context, attempt domain.Attempt) (domain.Attempt, error) {
	if attempt.ID == "" {
		attempt.ID = uuid.NewString()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = s.clock().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[attempt.ID] = len(s.attempts)
	s.attempts = append(s.attempts, attempt.Clone())
	return attempt, nil
}

func (s *AttemptStore) FindByID(_ context.Context, attemptID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[attemptID]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return s.attempts[idx].Clone(), nil
}

// FindByUser returns the user's attempts newest first; later inserts win ties.
func (s *AttemptStore) FindByUser(_ context.Context, userID string, limit int) ([]domain.Attempt, error) {
	s.mu.RLock()
	out := make([]domain.Attempt, 0)
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID == userID {
			out = append(out, s.attempts[i].Clone())
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
