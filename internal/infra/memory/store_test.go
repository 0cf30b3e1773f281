package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizmaker-service/internal/domain"
)

func TestQuizStoreListings(t *testing.T) {
	ctx := context.Background()
	older := sampleQuiz()
	newer := sampleQuiz()
	newer.ID = "quiz-2"
	newer.Title = "World capitals"
	newer.Category = domain.CategoryGeography
	newer.CreatedAt = older.CreatedAt.Add(time.Hour)
	private := sampleQuiz()
	private.ID = "quiz-3"
	private.IsPublic = false
	store := NewQuizStoreWith(older, newer, private)

	public, err := store.FindPublic(ctx, domain.QuizFilter{})
	if err != nil {
		t.Fatalf("find public: %v", err)
	}
	if len(public) != 2 || public[0].ID != "quiz-2" || public[1].ID != "quiz-1" {
		t.Fatalf("expected public quizzes newest first, got %+v", ids(public))
	}

	byCategory, _ := store.FindPublic(ctx, domain.QuizFilter{Category: domain.CategoryMath})
	if len(byCategory) != 1 || byCategory[0].ID != "quiz-1" {
		t.Fatalf("expected only math quiz, got %v", ids(byCategory))
	}

	bySearch, _ := store.FindPublic(ctx, domain.QuizFilter{Search: "CAPITAL"})
	if len(bySearch) != 1 || bySearch[0].ID != "quiz-2" {
		t.Fatalf("expected case-insensitive search hit, got %v", ids(bySearch))
	}

	mine, _ := store.FindByOwner(ctx, "owner-1")
	if len(mine) != 3 {
		t.Fatalf("expected owner to see all 3 quizzes, got %d", len(mine))
	}
}

func TestQuizStoreUpdateKeepsCounter(t *testing.T) {
	ctx := context.Background()
	store := NewQuizStoreWith(sampleQuiz())

	stale, _ := store.FindByID(ctx, "quiz-1")
	if err := store.IncrementAttempts(ctx, "quiz-1"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	stale.Title = "Renamed"
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := store.FindByID(ctx, "quiz-1")
	if got.Title != "Renamed" || got.AttemptsCount != 1 {
		t.Fatalf("expected renamed quiz with counter 1, got %q/%d", got.Title, got.AttemptsCount)
	}

	if err := store.Update(ctx, domain.Quiz{ID: "missing"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on missing update, got %v", err)
	}
}

func TestAttemptStoreNewestFirstWithLimit(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := store.Save(ctx, domain.Attempt{QuizID: "quiz-1", UserID: "u1", Score: i, CreatedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	if _, err := store.Save(ctx, domain.Attempt{QuizID: "quiz-1", UserID: "u2"}); err != nil {
		t.Fatalf("save other user: %v", err)
	}

	got, err := store.FindByUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("find by user: %v", err)
	}
	if len(got) != 2 || got[0].Score != 2 || got[1].Score != 1 {
		t.Fatalf("expected two newest attempts, got %+v", got)
	}
}

func TestAttemptStoreAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	saved, err := store.Save(ctx, domain.Attempt{UserID: "u1"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned, got %+v", saved)
	}

	found, err := store.FindByID(ctx, saved.ID)
	if err != nil || found.UserID != "u1" {
		t.Fatalf("expected to find saved attempt, got %+v, %v", found, err)
	}
	if _, err := store.FindByID(ctx, "nope"); err != domain.ErrAttemptNotFound {
		t.Fatalf("expected attempt not found, got %v", err)
	}
}

func ids(quizzes []domain.Quiz) []string {
	out := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.ID)
	}
	return out
}
