package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"quizmaker-service/internal/domain"
)

// QuizRepository stores quiz documents (in-memory, Postgres, SQLite, optionally cached).
type QuizRepository interface {
	FindByID(ctx context.Context, quizID string) (domain.Quiz, error)
	FindByOwner(ctx context.Context, ownerID string) ([]domain.Quiz, error)
	FindPublic(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, error)
	Create(ctx context.Context, quiz domain.Quiz) error
	Update(ctx context.Context, quiz domain.Quiz) error
	Delete(ctx context.Context, quizID string) error
	IncrementAttempts(ctx context.Context, quizID string) error
}

// QuizService contains the quiz authoring use cases.
type QuizService struct {
	quizzes QuizRepository
	now     func() time.Time
}

func NewQuizService(quizzes QuizRepository) *QuizService {
	return NewQuizServiceWithClock(quizzes, time.Now)
}

// NewQuizServiceWithClock allows deterministic timestamps in tests.
func NewQuizServiceWithClock(quizzes QuizRepository, now func() time.Time) *QuizService {
	return &QuizService{quizzes: quizzes, now: now}
}

// Create validates input and stores a new quiz owned by callerID.
func (s *QuizService) Create(ctx context.Context, callerID string, input domain.QuizInput) (domain.QuizView, error) {
	if callerID == "" {
		return domain.QuizView{}, domain.ErrUnauthenticated
	}
	normalizeInput(&input)
	if err := validateStruct(input); err != nil {
		return domain.QuizView{}, err
	}

	now := s.now().UTC()
	quiz := domain.Quiz{
		ID:        uuid.NewString(),
		Creator:   callerID,
		CreatedAt: now,
	}
	applyInput(&quiz, input, now)

	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return domain.QuizView{}, err
	}
	return quiz.View(false), nil
}

// Get returns a quiz for display; the answer key is stripped unless callerID owns it.
// An empty callerID means an anonymous caller.
func (s *QuizService) Get(ctx context.Context, callerID, quizID string) (domain.QuizView, error) {
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.QuizView{}, err
	}
	owner := Authorize(callerID, quiz.Creator) == nil
	return quiz.View(!owner), nil
}

// ListPublic returns public quizzes matching filter, always redacted.
func (s *QuizService) ListPublic(ctx context.Context, filter domain.QuizFilter) ([]domain.QuizView, error) {
	filter = normalizeFilter(filter)
	quizzes, err := s.quizzes.FindPublic(ctx, filter)
	if err != nil {
		return nil, err
	}
	return views(quizzes, true), nil
}

// ListMine returns every quiz owned by callerID with answers included.
func (s *QuizService) ListMine(ctx context.Context, callerID string) ([]domain.QuizView, error) {
	if callerID == "" {
		return nil, domain.ErrUnauthenticated
	}
	quizzes, err := s.quizzes.FindByOwner(ctx, callerID)
	if err != nil {
		return nil, err
	}
	return views(quizzes, false), nil
}

// Update applies patch to a quiz owned by callerID and re-validates the result.
func (s *QuizService) Update(ctx context.Context, callerID, quizID string, patch domain.QuizPatch) (domain.QuizView, error) {
	if callerID == "" {
		return domain.QuizView{}, domain.ErrUnauthenticated
	}
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return domain.QuizView{}, err
	}
	if err := Authorize(callerID, quiz.Creator); err != nil {
		return domain.QuizView{}, err
	}

	input := toInput(quiz)
	applyPatch(&input, patch)
	normalizeInput(&input)
	if err := validateStruct(input); err != nil {
		return domain.QuizView{}, err
	}

	applyInput(&quiz, input, s.now().UTC())
	if err := s.quizzes.Update(ctx, quiz); err != nil {
		return domain.QuizView{}, err
	}
	return quiz.View(false), nil
}

// Delete removes a quiz owned by callerID. Existing attempts are left untouched.
func (s *QuizService) Delete(ctx context.Context, callerID, quizID string) error {
	if callerID == "" {
		return domain.ErrUnauthenticated
	}
	quiz, err := s.quizzes.FindByID(ctx, quizID)
	if err != nil {
		return err
	}
	if err := Authorize(callerID, quiz.Creator); err != nil {
		return err
	}
	return s.quizzes.Delete(ctx, quizID)
}

func views(quizzes []domain.Quiz, redact bool) []domain.QuizView {
	out := make([]domain.QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.View(redact))
	}
	return out
}

func normalizeFilter(filter domain.QuizFilter) domain.QuizFilter {
	if strings.EqualFold(string(filter.Category), "all") {
		filter.Category = ""
	}
	if strings.EqualFold(string(filter.Difficulty), "all") {
		filter.Difficulty = ""
	}
	filter.Search = strings.TrimSpace(filter.Search)
	return filter
}

func normalizeInput(input *domain.QuizInput) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Difficulty == "" {
		input.Difficulty = domain.DifficultyMedium
	}
	for i := range input.Questions {
		q := &input.Questions[i]
		q.ID = strings.TrimSpace(q.ID)
		q.Question = strings.TrimSpace(q.Question)
		for j := range q.Options {
			q.Options[j] = strings.TrimSpace(q.Options[j])
		}
	}
}

// applyInput copies validated input onto quiz, assigning ids to new questions.
func applyInput(quiz *domain.Quiz, input domain.QuizInput, now time.Time) {
	quiz.Title = input.Title
	quiz.Description = input.Description
	quiz.Category = input.Category
	quiz.Difficulty = input.Difficulty
	quiz.IsPublic = true
	if input.IsPublic != nil {
		quiz.IsPublic = *input.IsPublic
	}
	quiz.TimeLimit = input.TimeLimit
	quiz.UpdatedAt = now

	questions := make([]domain.Question, 0, len(input.Questions))
	for _, q := range input.Questions {
		id := q.ID
		if id == "" {
			id = uuid.NewString()
		}
		questions = append(questions, domain.Question{
			ID:            id,
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: *q.CorrectAnswer,
		})
	}
	quiz.Questions = questions
}

func toInput(quiz domain.Quiz) domain.QuizInput {
	questions := make([]domain.QuestionInput, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		correct := q.CorrectAnswer
		questions = append(questions, domain.QuestionInput{
			ID:            q.ID,
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: &correct,
		})
	}
	isPublic := quiz.IsPublic
	return domain.QuizInput{
		Title:       quiz.Title,
		Description: quiz.Description,
		Category:    quiz.Category,
		Difficulty:  quiz.Difficulty,
		Questions:   questions,
		IsPublic:    &isPublic,
		TimeLimit:   quiz.TimeLimit,
	}
}

// applyPatch overlays non-nil patch fields. A zero timeLimit clears the limit.
func applyPatch(input *domain.QuizInput, patch domain.QuizPatch) {
	if patch.Title != nil {
		input.Title = *patch.Title
	}
	if patch.Description != nil {
		input.Description = *patch.Description
	}
	if patch.Category != nil {
		input.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		input.Difficulty = *patch.Difficulty
	}
	if patch.Questions != nil {
		input.Questions = *patch.Questions
	}
	if patch.IsPublic != nil {
		input.IsPublic = patch.IsPublic
	}
	if patch.TimeLimit != nil {
		if *patch.TimeLimit == 0 {
			input.TimeLimit = nil
		} else {
			input.TimeLimit = patch.TimeLimit
		}
	}
}
