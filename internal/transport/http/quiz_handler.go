package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

type QuizHandler struct {
	service *app.QuizService
}

func NewQuizHandler(service *app.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quizzes, err := h.service.ListPublic(r.Context(), domain.QuizFilter{
		Category:   domain.Category(q.Get("category")),
		Difficulty: domain.Difficulty(q.Get("difficulty")),
		Search:     q.Get("search"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *QuizHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListMine(r.Context(), CallerID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.service.Get(r.Context(), CallerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"quiz": quiz})
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.QuizInput
	if err := decodeBody(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.service.Create(r.Context(), CallerID(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{"quiz": quiz})
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuizPatch
	if err := decodeBody(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := h.service.Update(r.Context(), CallerID(r.Context()), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"quiz": quiz})
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), CallerID(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "quiz deleted")
}
