package http

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/domain"
)

type AttemptHandler struct {
	service *app.AttemptService
}

func NewAttemptHandler(service *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{service: service}
}

func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var submission domain.AttemptSubmission
	if err := decodeBody(w, r, &submission); err != nil {
		writeError(w, r, err)
		return
	}
	attempt, err := h.service.Submit(r.Context(), CallerID(r.Context()), submission)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]interface{}{"attempt": attempt})
}

func (h *AttemptHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, domain.NewValidationError("limit", "must be a non-negative integer"))
			return
		}
		limit = n
	}
	attempts, err := h.service.ListMine(r.Context(), CallerID(r.Context()), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func (h *AttemptHandler) Get(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.Get(r.Context(), CallerID(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]interface{}{"attempt": attempt})
}
