// Package handlers wires the HTTP surface: routing, middleware and the
// JSON request/response plumbing shared by all endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"arborist-study-api/apperr"
	"arborist-study-api/auth"
	"arborist-study-api/db"
	"arborist-study-api/jobs"
	"arborist-study-api/payments"
	"arborist-study-api/utils"
)

// NewRouter builds the full API handler chain. jobManager may be nil when no
// queue backend is configured; the exam handlers then skip the async fallback.
func NewRouter(database *db.DB, tokens *auth.TokenService, provider payments.Provider, jobManager *jobs.JobManager, latePolicy string) http.Handler {
	authHandlers := &AuthHandlers{db: database, tokens: tokens}
	questionHandlers := &QuestionHandlers{db: database}
	examHandlers := &ExamHandlers{db: database, jobs: jobManager, latePolicy: latePolicy}
	userHandlers := &UserHandlers{db: database}
	subscriptionHandlers := &SubscriptionHandlers{db: database, provider: provider}

	authMW := &AuthMiddleware{tokens: tokens, store: database}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", healthCheck)

	mux.HandleFunc("/api/auth/register", authHandlers.Register)
	mux.HandleFunc("/api/auth/login", authHandlers.Login)
	mux.HandleFunc("/api/auth/me", authMW.RequireUser(authHandlers.Me))

	mux.HandleFunc("/api/topics", questionHandlers.ListTopics)
	mux.HandleFunc("/api/questions", authMW.RequireUser(questionHandlers.ListQuestions))

	mux.HandleFunc("/api/exams/start", authMW.RequireUser(examHandlers.StartExam))
	mux.HandleFunc("/api/exams/submit", authMW.RequireUser(examHandlers.SubmitExam))
	mux.HandleFunc("/api/exams/history", authMW.RequireUser(examHandlers.GetHistory))

	mux.HandleFunc("/api/users/progress", authMW.RequireUser(userHandlers.GetProgress))

	mux.HandleFunc("/api/subscriptions/subscribe", authMW.RequireUser(subscriptionHandlers.Subscribe))
	mux.HandleFunc("/api/subscriptions/status", authMW.RequireUser(subscriptionHandlers.Status))
	mux.HandleFunc("/api/subscriptions/cancel", authMW.RequireUser(subscriptionHandlers.Cancel))
	mux.HandleFunc("/api/subscriptions/create-payment", authMW.RequireUser(subscriptionHandlers.CreatePayment))
	mux.HandleFunc("/api/subscriptions/execute-payment", authMW.RequireUser(subscriptionHandlers.ExecutePayment))
	mux.HandleFunc("/api/subscriptions/payments", authMW.RequireUser(subscriptionHandlers.ListPayments))

	gate := &SubscriptionGate{tokens: tokens, store: database}

	return loggingMiddleware(corsMiddleware(gate.Middleware(mux)))
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		utils.LogError("Failed to encode response: %v", err)
	}
}

// respondWithError maps an error to its HTTP status and a FastAPI-shaped
// {"detail": ...} body. Unclassified errors become opaque 500s.
func respondWithError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch apperr.KindOf(err) {
	case apperr.Validation:
		status = http.StatusBadRequest
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.ExternalService:
		status = http.StatusBadRequest
	default:
		utils.LogError("Internal error: %v", err)
	}

	respondWithJSON(w, status, map[string]string{"detail": apperr.Detail(err)})
}

func methodNotAllowed(w http.ResponseWriter) {
	respondWithJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "Method not allowed"})
}

// decodeJSON parses the request body into dst, rejecting malformed payloads
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	return nil
}
