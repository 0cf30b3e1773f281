package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

func TestQuizCacheCaches(t *testing.T) {
	backing := &countingRepo{QuizRepository: NewQuizStoreWith(sampleQuiz())}
	cache := NewQuizCache(backing, time.Minute)

	if _, err := cache.FindByID(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected backing store once, got %d", backing.calls)
	}

	if _, err := cache.FindByID(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if backing.calls != 1 {
		t.Fatalf("expected cache hit, backing calls %d", backing.calls)
	}
}

func TestQuizCacheInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	backing := &countingRepo{QuizRepository: NewQuizStoreWith(sampleQuiz())}
	cache := NewQuizCache(backing, time.Minute)

	if _, err := cache.FindByID(ctx, "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if err := cache.IncrementAttempts(ctx, "quiz-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}

	quiz, err := cache.FindByID(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz after increment: %v", err)
	}
	if backing.calls != 2 {
		t.Fatalf("expected reload after invalidation, backing calls %d", backing.calls)
	}
	if quiz.AttemptsCount != 1 {
		t.Fatalf("expected fresh attempts count 1, got %d", quiz.AttemptsCount)
	}

	if err := cache.Delete(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.FindByID(ctx, "quiz-1"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestQuizCacheReturnsCopies(t *testing.T) {
	cache := NewQuizCache(NewQuizStoreWith(sampleQuiz()), time.Minute)

	first, _ := cache.FindByID(context.Background(), "quiz-1")
	first.Questions[0].Options[0] = "mutated"

	second, _ := cache.FindByID(context.Background(), "quiz-1")
	if second.Questions[0].Options[0] == "mutated" {
		t.Fatalf("cached quiz must not alias caller memory")
	}
}

func TestQuizCacheDropsFillRacingWithUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStoreWith(sampleQuiz())
	backing := newStallingRepo(store)
	cache := NewQuizCache(backing, time.Minute)

	done := make(chan domain.Quiz)
	go func() {
		quiz, err := cache.FindByID(ctx, "quiz-1")
		if err != nil {
			t.Errorf("stalled read: %v", err)
		}
		done <- quiz
	}()
	<-backing.loaded

	updated := sampleQuiz()
	updated.Questions[0].CorrectAnswer = 0
	if err := cache.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	close(backing.release)
	if stale := <-done; stale.Questions[0].CorrectAnswer != 1 {
		t.Fatalf("stalled read should have loaded the old key, got %d", stale.Questions[0].CorrectAnswer)
	}

	got, err := cache.FindByID(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Questions[0].CorrectAnswer != 0 {
		t.Fatalf("cache kept the answer key from before the update: correctAnswer=%d", got.Questions[0].CorrectAnswer)
	}
}

// stallingRepo holds its first FindByID after loading until release is closed.
type stallingRepo struct {
	app.QuizRepository
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newStallingRepo(backing app.QuizRepository) *stallingRepo {
	return &stallingRepo{QuizRepository: backing, loaded: make(chan struct{}), release: make(chan struct{})}
}

func (r *stallingRepo) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := r.QuizRepository.FindByID(ctx, quizID)
	first := false
	r.once.Do(func() { first = true })
	if first {
		close(r.loaded)
		<-r.release
	}
	return quiz, err
}

type countingRepo struct {
	app.QuizRepository
	calls int
}

func (r *countingRepo) FindByID(ctx context.Context, quizID string) (domain.Quiz, error) {
	r.calls++
	return r.QuizRepository.FindByID(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:         "quiz-1",
		Title:      "Arithmetic",
		Category:   domain.CategoryMath,
		Difficulty: domain.DifficultyEasy,
		Creator:    "owner-1",
		IsPublic:   true,
		Questions: []domain.Question{
			{ID: "q1", Question: "What is 2 + 2?", Options: []string{"3", "4"}, CorrectAnswer: 1},
			{ID: "q2", Question: "What is 3 + 3?", Options: []string{"6", "7"}, CorrectAnswer: 0},
			{ID: "q3", Question: "What is 1 + 1?", Options: []string{"1", "2", "3"}, CorrectAnswer: 1},
		},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
