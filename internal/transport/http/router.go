package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/auth"
)

// NewRouter wires the REST API onto a gorilla/mux router.
func NewRouter(quizzes *app.QuizService, attempts *app.AttemptService, tokens *auth.Tokens, requestTimeout time.Duration) http.Handler {
	quizHandler := NewQuizHandler(quizzes)
	attemptHandler := NewAttemptHandler(attempts)
	authn := authenticator{tokens: tokens}

	r := mux.NewRouter()
	r.Use(requestLogger, withTimeout(requestTimeout))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusOK, "ok")
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// my-quizzes is registered before {id} so it is not captured as an id.
	api.HandleFunc("/quizzes", quizHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/my-quizzes", authn.required(quizHandler.ListMine)).Methods(http.MethodGet)
	api.HandleFunc("/quizzes/{id}", authn.optional(quizHandler.Get)).Methods(http.MethodGet)
	api.HandleFunc("/quizzes", authn.required(quizHandler.Create)).Methods(http.MethodPost)
	api.HandleFunc("/quizzes/{id}", authn.required(quizHandler.Update)).Methods(http.MethodPut)
	api.HandleFunc("/quizzes/{id}", authn.required(quizHandler.Delete)).Methods(http.MethodDelete)

	api.HandleFunc("/attempts", authn.required(attemptHandler.Submit)).Methods(http.MethodPost)
	api.HandleFunc("/attempts/user", authn.required(attemptHandler.ListMine)).Methods(http.MethodGet)
	api.HandleFunc("/attempts/{id}", authn.required(attemptHandler.Get)).Methods(http.MethodGet)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "route not found")
	})
	r.NotFoundHandler = requestLogger(notFound)
	r.MethodNotAllowedHandler = requestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}))
	return r
}
