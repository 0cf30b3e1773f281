package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizmaker-service/internal/app"
	"quizmaker-service/internal/auth"
	"quizmaker-service/internal/domain"
	"quizmaker-service/internal/infra/memory"
)

type apiResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	*httptest.Server
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	quizzes := memory.NewQuizStore()
	attempts := memory.NewAttemptStore()
	tokens := auth.NewTokens("test-secret")
	router := NewRouter(app.NewQuizService(quizzes), app.NewAttemptService(quizzes, attempts), tokens, 5*time.Second)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testServer{Server: server, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		token, err := s.tokens.Issue(user, time.Hour)
		if err != nil {
			t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func quizBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "Capitals of Europe",
		"description": "How well do you know European capitals?",
		"category":    "Geography",
		"difficulty":  "Easy",
		"questions": []map[string]interface{}{
			{"question": "Capital of France?", "options": []string{"Paris", "Lyon", "Nice"}, "correctAnswer": 0},
			{"question": "Capital of Italy?", "options": []string{"Milan", "Rome"}, "correctAnswer": 1},
			{"question": "Capital of Spain?", "options": []string{"Madrid", "Seville", "Bilbao"}, "correctAnswer": 0},
			{"question": "Capital of Austria?", "options": []string{"Graz", "Vienna"}, "correctAnswer": 1},
		},
	}
}

type quizPayload struct {
	ID        string `json:"id"`
	Questions []struct {
		ID            string `json:"id"`
		CorrectAnswer *int   `json:"correctAnswer"`
	} `json:"questions"`
	AttemptsCount int `json:"attemptsCount"`
}

// decodeData unwraps data.<key> from an envelope into dst.
func decodeData(t *testing.T, resp apiResponse, key string, dst interface{}) {
	t.Helper()
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(resp.Data, &wrapped); err != nil {
		t.Fatalf("decode data object: %v (data=%s)", err, resp.Data)
	}
	raw, ok := wrapped[key]
	if !ok {
		t.Fatalf("expected data.%s, got %s", key, resp.Data)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data.%s: %v", key, err)
	}
}

func createQuiz(t *testing.T, s *testServer, owner string) quizPayload {
	t.Helper()
	status, resp := s.do(t, http.MethodPost, "/api/quizzes", owner, quizBody())
	if status != http.StatusCreated || !resp.Success {
		t.Fatalf("create quiz: status %d, %+v", status, resp)
	}
	var quiz quizPayload
	decodeData(t, resp, "quiz", &quiz)
	return quiz
}

func TestSubmitAttemptEndToEnd(t *testing.T) {
	s := newTestServer(t)
	quiz := createQuiz(t, s, "owner")

	status, resp := s.do(t, http.MethodPost, "/api/attempts", "player", map[string]interface{}{
		"quizId":    quiz.ID,
		"answers":   []int{0, 1, 2, 1},
		"timeTaken": 42,
	})
	if status != http.StatusCreated {
		t.Fatalf("submit: status %d, %+v", status, resp)
	}
	var attempt struct {
		ID             string `json:"id"`
		Score          int    `json:"score"`
		CorrectAnswers int    `json:"correctAnswers"`
		TotalQuestions int    `json:"totalQuestions"`
	}
	decodeData(t, resp, "attempt", &attempt)
	if attempt.Score != 75 || attempt.CorrectAnswers != 3 || attempt.TotalQuestions != 4 {
		t.Fatalf("unexpected grading: %+v", attempt)
	}

	status, resp = s.do(t, http.MethodGet, "/api/attempts/"+attempt.ID, "player", nil)
	if status != http.StatusOK {
		t.Fatalf("get own attempt: status %d", status)
	}
	var own struct {
		ID     string `json:"id"`
		QuizID string `json:"quizId"`
		Quiz   *struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		} `json:"quiz"`
	}
	decodeData(t, resp, "attempt", &own)
	if own.ID != attempt.ID || own.QuizID != quiz.ID || own.Quiz == nil || own.Quiz.Title != "Capitals of Europe" {
		t.Fatalf("expected attempt with quiz summary, got %s", resp.Data)
	}
	status, _ = s.do(t, http.MethodGet, "/api/attempts/"+attempt.ID, "someone-else", nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign attempt, got %d", status)
	}
	status, _ = s.do(t, http.MethodGet, "/api/attempts/does-not-exist", "player", nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown attempt, got %d", status)
	}

	status, resp = s.do(t, http.MethodGet, "/api/attempts/user?limit=5", "player", nil)
	if status != http.StatusOK {
		t.Fatalf("list attempts: status %d", status)
	}
	var history []json.RawMessage
	decodeData(t, resp, "attempts", &history)
	if len(history) != 1 {
		t.Fatalf("expected one attempt in history, got %d", len(history))
	}

	_, resp = s.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, "owner", nil)
	var updated quizPayload
	decodeData(t, resp, "quiz", &updated)
	if updated.AttemptsCount != 1 {
		t.Fatalf("expected attempts count 1, got %d", updated.AttemptsCount)
	}
}

func TestQuizRedaction(t *testing.T) {
	s := newTestServer(t)
	quiz := createQuiz(t, s, "owner")
	if quiz.Questions[0].CorrectAnswer == nil {
		t.Fatalf("creator response should include answers")
	}

	for _, caller := range []string{"", "player"} {
		status, resp := s.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, caller, nil)
		if status != http.StatusOK {
			t.Fatalf("get quiz as %q: status %d", caller, status)
		}
		if bytes.Contains(resp.Data, []byte("correctAnswer")) {
			t.Fatalf("answers leaked to %q: %s", caller, resp.Data)
		}
	}

	_, resp := s.do(t, http.MethodGet, "/api/quizzes?category=All&search=capitals", "", nil)
	if bytes.Contains(resp.Data, []byte("correctAnswer")) {
		t.Fatalf("answers leaked in listing: %s", resp.Data)
	}
	var listed []quizPayload
	decodeData(t, resp, "quizzes", &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one listed quiz, got %d", len(listed))
	}

	_, resp = s.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, "owner", nil)
	var owned quizPayload
	decodeData(t, resp, "quiz", &owned)
	if owned.Questions[1].CorrectAnswer == nil || *owned.Questions[1].CorrectAnswer != 1 {
		t.Fatalf("owner should see answers, got %s", resp.Data)
	}
}

func TestQuizOwnership(t *testing.T) {
	s := newTestServer(t)
	quiz := createQuiz(t, s, "owner")

	status, _ := s.do(t, http.MethodPut, "/api/quizzes/"+quiz.ID, "intruder", map[string]interface{}{"title": "Hijacked"})
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 on foreign update, got %d", status)
	}
	status, _ = s.do(t, http.MethodDelete, "/api/quizzes/"+quiz.ID, "intruder", nil)
	if status != http.StatusForbidden {
		t.Fatalf("expected 403 on foreign delete, got %d", status)
	}

	status, _ = s.do(t, http.MethodPut, "/api/quizzes/"+quiz.ID, "owner", map[string]interface{}{"title": "Capitals, revised"})
	if status != http.StatusOK {
		t.Fatalf("expected owner update to succeed, got %d", status)
	}
	status, _ = s.do(t, http.MethodDelete, "/api/quizzes/"+quiz.ID, "owner", nil)
	if status != http.StatusOK {
		t.Fatalf("expected owner delete to succeed, got %d", status)
	}
	status, _ = s.do(t, http.MethodGet, "/api/quizzes/"+quiz.ID, "owner", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", status)
	}
}

func TestValidationAndAuthErrors(t *testing.T) {
	s := newTestServer(t)

	body := quizBody()
	body["questions"] = []map[string]interface{}{
		{"question": "Only one?", "options": []string{"a", "b"}, "correctAnswer": 0},
	}
	status, resp := s.do(t, http.MethodPost, "/api/quizzes", "owner", body)
	if status != http.StatusBadRequest || resp.Success {
		t.Fatalf("expected 400 for too few questions, got %d", status)
	}
	if _, ok := resp.Errors["questions"]; !ok {
		t.Fatalf("expected questions field error, got %+v", resp.Errors)
	}

	status, _ = s.do(t, http.MethodPost, "/api/quizzes", "", quizBody())
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", status)
	}

	quiz := createQuiz(t, s, "owner")
	status, _ = s.do(t, http.MethodPost, "/api/attempts", "player", map[string]interface{}{
		"quizId":  quiz.ID,
		"answers": []int{0, 1},
	})
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for incomplete submission, got %d", status)
	}

	status, _ = s.do(t, http.MethodPost, "/api/attempts", "player", map[string]interface{}{
		"quizId":  "missing",
		"answers": []int{0},
	})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", status)
	}

	status, resp = s.do(t, http.MethodGet, "/api/nowhere", "", nil)
	if status != http.StatusNotFound || resp.Success {
		t.Fatalf("expected 404 envelope for unknown route, got %d", status)
	}
}

func TestDecodeBodyRejectsOversizedPayload(t *testing.T) {
	raw := `{"description":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(raw))
	rec := httptest.NewRecorder()

	var input struct {
		Description string `json:"description"`
	}
	err := decodeBody(rec, req, &input)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Fields["body"] != "request body too large" {
		t.Fatalf("expected body size error, got %+v", verr.Fields)
	}

	small := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"description":"fits"}`))
	if err := decodeBody(rec, small, &input); err != nil || input.Description != "fits" {
		t.Fatalf("expected small body to decode, got %q, %v", input.Description, err)
	}
}
