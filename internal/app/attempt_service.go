package app

import (
	"context"
	"errors"
	"log"
	"time"

	"quizmaker-service/internal/domain"
)

const (
	DefaultAttemptLimit = 20
	MaxAttemptLimit     = 100
)

// AttemptRepository persists graded attempts. Save assigns the id and creation time when unset.
type AttemptRepository interface {
	Save(ctx context.Context, attempt domain.Attempt) (domain.Attempt, error)
	FindByID(ctx context.Context, attemptID string) (domain.Attempt, error)
	FindByUser(ctx context.Context, userID string, limit int) ([]domain.Attempt, error)
}

// AttemptService grades submissions and serves a user's attempt history.
type AttemptService struct {
	quizzes      QuizRepository
	attempts     AttemptRepository
	now          func() time.Time
	defaultLimit int
	maxLimit     int
}

func NewAttemptService(quizzes QuizRepository, attempts AttemptRepository) *AttemptService {
	return NewAttemptServiceWithClock(quizzes, attempts, time.Now)
}

// NewAttemptServiceWithClock allows deterministic timestamps in tests.
func NewAttemptServiceWithClock(quizzes QuizRepository, attempts AttemptRepository, now func() time.Time) *AttemptService {
	return &AttemptService{
		quizzes:      quizzes,
		attempts:     attempts,
		now:          now,
		defaultLimit: DefaultAttemptLimit,
		maxLimit:     MaxAttemptLimit,
	}
}

// SetListLimits overrides the default and maximum page size of ListMine. Non-positive values are ignored.
func (s *AttemptService) SetListLimits(defaultLimit, maxLimit int) {
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	if defaultLimit > 0 {
		s.defaultLimit = defaultLimit
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
}

// Submit grades a submission against the current quiz and stores the attempt.
// The quiz attempt counter is bumped after the save; a failed bump is logged and
// leaves an undercount, the attempt itself stays valid.
func (s *AttemptService) Submit(ctx context.Context, callerID string, submission domain.AttemptSubmission) (domain.Attempt, error) {
	if callerID == "" {
		return domain.Attempt{}, domain.ErrUnauthenticated
	}
	if err := validateStruct(submission); err != nil {
		return domain.Attempt{}, err
	}

	quiz, err := s.quizzes.FindByID(ctx, submission.QuizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	answers, err := ValidateSubmission(quiz, submission.Answers)
	if err != nil {
		return domain.Attempt{}, err
	}
	graded := Grade(quiz, answers)

	attempt, err := s.attempts.Save(ctx, domain.Attempt{
		QuizID:         quiz.ID,
		UserID:         callerID,
		Answers:        graded.Answers,
		Score:          graded.Score,
		TotalQuestions: graded.TotalQuestions,
		CorrectAnswers: graded.CorrectAnswers,
		TimeTaken:      submission.TimeTaken,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return domain.Attempt{}, err
	}

	if err := s.quizzes.IncrementAttempts(ctx, quiz.ID); err != nil {
		log.Printf("attempt %s saved but attempt counter for quiz %s not incremented: %v", attempt.ID, quiz.ID, err)
	}
	return attempt, nil
}

// Get returns an attempt owned by callerID with its quiz summary. Unknown ids are reported
// as forbidden so that callers cannot probe for other users' attempts.
func (s *AttemptService) Get(ctx context.Context, callerID, attemptID string) (domain.AttemptView, error) {
	if callerID == "" {
		return domain.AttemptView{}, domain.ErrUnauthenticated
	}
	attempt, err := s.attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.AttemptView{}, domain.ErrForbidden
		}
		return domain.AttemptView{}, err
	}
	if err := Authorize(callerID, attempt.UserID); err != nil {
		return domain.AttemptView{}, err
	}
	views, err := s.withSummaries(ctx, []domain.Attempt{attempt})
	if err != nil {
		return domain.AttemptView{}, err
	}
	return views[0], nil
}

// ListMine returns callerID's attempts, newest first. limit <= 0 selects the default.
func (s *AttemptService) ListMine(ctx context.Context, callerID string, limit int) ([]domain.AttemptView, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	attempts, err := s.attempts.FindByUser(ctx, callerID, limit)
	if err != nil {
		return nil, err
	}
	return s.withSummaries(ctx, attempts)
}

// withSummaries attaches each attempt's quiz summary, loading every distinct quiz once.
// Deleted quizzes leave the summary nil.
func (s *AttemptService) withSummaries(ctx context.Context, attempts []domain.Attempt) ([]domain.AttemptView, error) {
	summaries := make(map[string]*domain.QuizSummary)
	views := make([]domain.AttemptView, 0, len(attempts))
	for _, attempt := range attempts {
		summary, seen := summaries[attempt.QuizID]
		if !seen {
			quiz, err := s.quizzes.FindByID(ctx, attempt.QuizID)
			switch {
			case err == nil:
				sum := quiz.Summary()
				summary = &sum
			case errors.Is(err, domain.ErrNotFound):
			default:
				return nil, err
			}
			summaries[attempt.QuizID] = summary
		}
		views = append(views, domain.AttemptView{Attempt: attempt, QuizRef: attempt.QuizID, Quiz: summary})
	}
	return views, nil
}
