package domain

import (
	"strings"
	"time"
)

// Category is the fixed set of quiz subjects.
type Category string

const (
	CategoryScience          Category = "Science"
	CategoryHistory          Category = "History"
	CategoryGeography        Category = "Geography"
	CategoryMath             Category = "Math"
	CategoryLiterature       Category = "Literature"
	CategoryTechnology       Category = "Technology"
	CategorySports           Category = "Sports"
	CategoryEntertainment    Category = "Entertainment"
	CategoryGeneralKnowledge Category = "General Knowledge"
	CategoryOther            Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryScience,
	CategoryHistory,
	CategoryGeography,
	CategoryMath,
	CategoryLiterature,
	CategoryTechnology,
	CategorySports,
	CategoryEntertainment,
	CategoryGeneralKnowledge,
	CategoryOther,
}

// Valid reports whether c is one of Categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Difficulty grades how hard a quiz is.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Quiz bounds.
const (
	MinQuestions = 3
	MaxQuestions = 50
	MinOptions   = 2
	MaxOptions   = 4
)

// Question is a multiple-choice question with a single correct option index.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Quiz is the stored quiz document. It always retains correct answers.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Questions     []Question `json:"questions"`
	Creator       string     `json:"creator"`
	IsPublic      bool       `json:"isPublic"`
	TimeLimit     *int       `json:"timeLimit"`
	AttemptsCount int        `json:"attemptsCount"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// PublicQuestion is the display form of a Question; CorrectAnswer is nil when redacted.
type PublicQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
}

// QuizView is what callers receive from quiz read operations.
type QuizView struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Category      Category         `json:"category"`
	Difficulty    Difficulty       `json:"difficulty"`
	Questions     []PublicQuestion `json:"questions"`
	QuestionCount int              `json:"questionCount"`
	Creator       string           `json:"creator"`
	IsPublic      bool             `json:"isPublic"`
	TimeLimit     *int             `json:"timeLimit"`
	AttemptsCount int              `json:"attemptsCount"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// View renders the quiz, stripping every correct answer when redact is set.
func (q Quiz) View(redact bool) QuizView {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		pq := PublicQuestion{
			ID:       question.ID,
			Question: question.Question,
			Options:  append([]string(nil), question.Options...),
		}
		if !redact {
			correct := question.CorrectAnswer
			pq.CorrectAnswer = &correct
		}
		questions = append(questions, pq)
	}
	return QuizView{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Category:      q.Category,
		Difficulty:    q.Difficulty,
		Questions:     questions,
		QuestionCount: len(q.Questions),
		Creator:       q.Creator,
		IsPublic:      q.IsPublic,
		TimeLimit:     q.TimeLimit,
		AttemptsCount: q.AttemptsCount,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// QuestionInput is an authored question as received from a client.
type QuestionInput struct {
	ID            string   `json:"id,omitempty" validate:"omitempty,max=64"`
	Question      string   `json:"question" validate:"required,max=1000"`
	Options       []string `json:"options" validate:"min=2,max=4,dive,required,max=500"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,gte=0,lte=3"`
}

// QuizInput is the payload for creating a quiz.
type QuizInput struct {
	Title       string          `json:"title" validate:"required,min=3,max=100"`
	Description string          `json:"description" validate:"required,min=10,max=500"`
	Category    Category        `json:"category" validate:"required,quiz_category"`
	Difficulty  Difficulty      `json:"difficulty" validate:"omitempty,quiz_difficulty"`
	Questions   []QuestionInput `json:"questions" validate:"min=3,max=50,dive"`
	IsPublic    *bool           `json:"isPublic"`
	TimeLimit   *int            `json:"timeLimit" validate:"omitempty,gt=0,lte=600"`
}

// QuizPatch carries the fields an owner may change; nil means unchanged.
type QuizPatch struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Category    *Category        `json:"category"`
	Difficulty  *Difficulty      `json:"difficulty"`
	Questions   *[]QuestionInput `json:"questions"`
	IsPublic    *bool            `json:"isPublic"`
	TimeLimit   *int             `json:"timeLimit"`
}

// QuizFilter narrows public quiz listings. Empty fields, or "All", match everything.
type QuizFilter struct {
	Category   Category
	Difficulty Difficulty
	Search     string
}

// Answer is the graded snapshot of one submitted answer.
type Answer struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
	CorrectAnswer  int    `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
}

// Attempt is an immutable graded submission.
type Attempt struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quiz"`
	UserID         string    `json:"user"`
	Answers        []Answer  `json:"answers"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	TimeTaken      *int      `json:"timeTaken"`
	CreatedAt      time.Time `json:"createdAt"`
}

// QuizSummary is the slice of a quiz shown next to an attempt in history views.
type QuizSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
}

// Summary returns the history-view slice of the quiz.
func (q Quiz) Summary() QuizSummary {
	return QuizSummary{ID: q.ID, Title: q.Title, Category: q.Category, Difficulty: q.Difficulty}
}

// AttemptView is an attempt with its quiz summary. Quiz is nil once the quiz has been deleted;
// QuizRef keeps the id either way.
type AttemptView struct {
	Attempt
	QuizRef string       `json:"quizId"`
	Quiz    *QuizSummary `json:"quiz"`
}

// AttemptSubmission is the client payload for grading. Nil answers mark skipped questions.
type AttemptSubmission struct {
	QuizID    string `json:"quizId" validate:"required,max=64"`
	Answers   []*int `json:"answers" validate:"required,min=1"`
	TimeTaken *int   `json:"timeTaken" validate:"omitempty,gte=0"`
}

// Clone returns a deep copy so stored documents never alias caller memory.
func (q Quiz) Clone() Quiz {
	out := q
	if q.TimeLimit != nil {
		limit := *q.TimeLimit
		out.TimeLimit = &limit
	}
	out.Questions = make([]Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		out.Questions[i] = question
	}
	return out
}

// Clone returns a deep copy of the attempt.
func (a Attempt) Clone() Attempt {
	out := a
	if a.TimeTaken != nil {
		taken := *a.TimeTaken
		out.TimeTaken = &taken
	}
	out.Answers = append([]Answer(nil), a.Answers...)
	return out
}

// Matches reports whether a public quiz satisfies the filter.
func (f QuizFilter) Matches(q Quiz) bool {
	if !q.IsPublic {
		return false
	}
	if f.Category != "" && q.Category != f.Category {
		return false
	}
	if f.Difficulty != "" && q.Difficulty != f.Difficulty {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(q.Title), needle) && !strings.Contains(strings.ToLower(q.Description), needle) {
			return false
		}
	}
	return true
}
