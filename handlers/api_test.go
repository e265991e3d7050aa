package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"arborist-study-api/auth"
	"arborist-study-api/db"
	"arborist-study-api/exams"
	"arborist-study-api/models"
	"arborist-study-api/payments"
)

type fakeProvider struct {
	executed []string
}

func (f *fakeProvider) CreatePayment(ctx context.Context, amount float64, currency, description string) (*payments.CreatedPayment, error) {
	return &payments.CreatedPayment{
		ID:          "PAY-123",
		ApprovalURL: "https://provider.test/approve/PAY-123",
	}, nil
}

func (f *fakeProvider) ExecutePayment(ctx context.Context, paymentID, payerID string) (string, error) {
	f.executed = append(f.executed, paymentID)
	return "COMPLETED-1", nil
}

func setupAPI(t *testing.T) (http.Handler, *db.DB) {
	t.Helper()

	database, err := db.InitDB(db.Config{Type: "sqlite", Path: ":memory:"})
	if err != nil {
		t.Fatalf("InitDB failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.SeedQuestions(); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	tokens := auth.NewTokenService("test-secret", 1)
	router := NewRouter(database, tokens, &fakeProvider{}, nil, exams.LatePolicyAccept)
	return router, database
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndSubscribe(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: username,
		Email:    username + "@email.com",
		Name:     "Test Student",
		Password: "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var tokenResp models.TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&tokenResp); err != nil {
		t.Fatalf("register response: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscriptions/subscribe", tokenResp.AccessToken,
		models.SubscribeRequest{PlanID: "monthly", StartTrial: true})
	if rec.Code != http.StatusCreated {
		t.Fatalf("subscribe: status = %d, body %s", rec.Code, rec.Body.String())
	}

	return tokenResp.AccessToken
}

func TestExamFlow(t *testing.T) {
	router, database := setupAPI(t)
	token := registerAndSubscribe(t, router, "estudiante1")

	rec := doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypePractice})
	if rec.Code != http.StatusOK {
		t.Fatalf("start: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var started models.ExamStartResponse
	if err := json.NewDecoder(rec.Body).Decode(&started); err != nil {
		t.Fatalf("start response: %v", err)
	}
	if len(started.Questions) != 8 || started.Duration != 1800 {
		t.Fatalf("practice exam: %d questions, duration %d", len(started.Questions), started.Duration)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("correctAnswer")) {
		t.Error("exam start leaked correct answers")
	}

	// Look the answers up directly and submit a perfect exam
	ids := make([]int, len(started.Questions))
	for i, q := range started.Questions {
		ids[i] = q.ID
	}
	bank, err := database.GetQuestionsByIDs(ids)
	if err != nil {
		t.Fatalf("GetQuestionsByIDs failed: %v", err)
	}
	correctByID := make(map[int]interface{}, len(bank))
	for i := range bank {
		correctByID[bank[i].ID] = bank[i].CorrectValue()
	}

	answers := make(map[string]interface{}, len(ids))
	for i, id := range ids {
		answers[strconv.Itoa(i)] = correctByID[id]
	}

	rec = doJSON(t, router, http.MethodPost, "/api/exams/submit", token,
		models.ExamSubmitRequest{ExamID: started.ExamID, Answers: answers, TimeSpent: 600})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var graded models.ExamSubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&graded); err != nil {
		t.Fatalf("submit response: %v", err)
	}
	if graded.Score != 100 || graded.Correct != 8 || graded.Total != 8 {
		t.Errorf("perfect submission graded as %+v", graded)
	}

	// A second submission of the same session loses
	rec = doJSON(t, router, http.MethodPost, "/api/exams/submit", token,
		models.ExamSubmitRequest{ExamID: started.ExamID, Answers: answers})
	if rec.Code != http.StatusNotFound {
		t.Errorf("double submit: status = %d, want 404", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/exams/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status = %d", rec.Code)
	}
	var history models.ExamHistoryResponse
	json.NewDecoder(rec.Body).Decode(&history)
	if history.Total != 1 || len(history.Exams) != 1 || history.Exams[0].Score != 100 {
		t.Errorf("history = %+v", history)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/users/progress", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: status = %d", rec.Code)
	}
	var progress models.UserProgress
	json.NewDecoder(rec.Body).Decode(&progress)
	if progress.CompletedQuestions != 8 || progress.AverageScore != 100.0 {
		t.Errorf("progress = %+v", progress)
	}
}

func TestStartExamValidation(t *testing.T) {
	router, _ := setupAPI(t)
	token := registerAndSubscribe(t, router, "estudiante1")

	rec := doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: "marathon"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown exam type: status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypeTopic})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("topic exam without topicId: status = %d, want 400", rec.Code)
	}

	badTopic := 99
	rec = doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypeTopic, TopicID: &badTopic})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("topic exam with bad topicId: status = %d, want 400", rec.Code)
	}

	topic := 5
	rec = doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypeTopic, TopicID: &topic})
	if rec.Code != http.StatusOK {
		t.Errorf("valid topic exam: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestGateBlocksStudyContentUntilSubscribed(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "estudiante1",
		Email:    "e1@email.com",
		Name:     "Juan",
		Password: "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d", rec.Code)
	}
	var tokenResp models.TokenResponse
	json.NewDecoder(rec.Body).Decode(&tokenResp)
	token := tokenResp.AccessToken

	rec = doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypePractice})
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("unsubscribed exam start: status = %d, want 402", rec.Code)
	}

	// Subscription management stays reachable
	rec = doJSON(t, router, http.MethodGet, "/api/subscriptions/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status endpoint gated: %d", rec.Code)
	}
	if body := bytes.TrimSpace(rec.Body.Bytes()); string(body) != "null" {
		t.Errorf("status body = %s, want null", body)
	}
}

func TestSubscriptionAndPaymentFlow(t *testing.T) {
	router, _ := setupAPI(t)
	token := registerAndSubscribe(t, router, "estudiante1")

	rec := doJSON(t, router, http.MethodGet, "/api/subscriptions/status", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d", rec.Code)
	}
	var sub models.Subscription
	json.NewDecoder(rec.Body).Decode(&sub)
	if sub.Status != models.SubscriptionTrial || !sub.IsActive {
		t.Fatalf("fresh subscription = %+v", sub)
	}
	if sub.DaysRemaining < 4 || sub.DaysRemaining > 5 {
		t.Errorf("trial daysRemaining = %d", sub.DaysRemaining)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscriptions/create-payment", token, map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("create-payment: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created models.CreatePaymentResponse
	json.NewDecoder(rec.Body).Decode(&created)
	if created.PaymentID != "PAY-123" || created.ApprovalURL == "" {
		t.Fatalf("create-payment response = %+v", created)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscriptions/execute-payment", token,
		models.ExecutePaymentRequest{PaymentID: created.PaymentID, PayerID: "PAYER-9"})
	if rec.Code != http.StatusOK {
		t.Fatalf("execute-payment: status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/subscriptions/status", token, nil)
	json.NewDecoder(rec.Body).Decode(&sub)
	if sub.Status != models.SubscriptionActive || !sub.IsActive {
		t.Errorf("after payment: %+v", sub)
	}
	if sub.DaysRemaining < 29 || sub.DaysRemaining > 30 {
		t.Errorf("active daysRemaining = %d", sub.DaysRemaining)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/subscriptions/payments", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("payments: %d", rec.Code)
	}
	var paymentList struct {
		Payments []models.Payment `json:"payments"`
	}
	json.NewDecoder(rec.Body).Decode(&paymentList)
	if len(paymentList.Payments) != 1 || paymentList.Payments[0].Status != models.PaymentCompleted {
		t.Errorf("payment history = %+v", paymentList.Payments)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/subscriptions/cancel", token, map[string]string{})
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/subscriptions/status", token, nil)
	json.NewDecoder(rec.Body).Decode(&sub)
	if sub.Status != models.SubscriptionCancelled || sub.IsActive {
		t.Errorf("after cancel: %+v", sub)
	}

	// Cancelled users lose access to study content
	rec = doJSON(t, router, http.MethodPost, "/api/exams/start", token,
		models.ExamStartRequest{ExamType: models.ExamTypePractice})
	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("cancelled exam start: status = %d, want 402", rec.Code)
	}
}

func TestAuthFlow(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "estudiante1",
		Email:    "e1@email.com",
		Name:     "Juan Pérez",
		Password: "password123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Duplicate registration conflicts
	rec = doJSON(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Username: "estudiante1",
		Email:    "e1@email.com",
		Name:     "Juan Pérez",
		Password: "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Username: "estudiante1",
		Password: "password123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var tokenResp models.TokenResponse
	json.NewDecoder(rec.Body).Decode(&tokenResp)
	if tokenResp.AccessToken == "" || tokenResp.TokenType != "bearer" {
		t.Fatalf("login response = %+v", tokenResp)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
		Username: "estudiante1",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad password: status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/auth/me", tokenResp.AccessToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status = %d", rec.Code)
	}
	var me models.User
	json.NewDecoder(rec.Body).Decode(&me)
	if me.Username != "estudiante1" || me.Progress.TotalQuestions != 100 {
		t.Errorf("me = %+v", me)
	}
}

func TestTopicsAndQuestionsEndpoints(t *testing.T) {
	router, _ := setupAPI(t)

	rec := doJSON(t, router, http.MethodGet, "/api/topics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("topics: status = %d", rec.Code)
	}
	var topics struct {
		Topics []models.Topic `json:"topics"`
	}
	json.NewDecoder(rec.Body).Decode(&topics)
	if len(topics.Topics) != len(models.ExamTopics) {
		t.Errorf("got %d topics, want %d", len(topics.Topics), len(models.ExamTopics))
	}

	token := registerAndSubscribe(t, router, "estudiante1")

	rec = doJSON(t, router, http.MethodGet, "/api/questions?topicId=5", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("questions: status = %d, body %s", rec.Code, rec.Body.String())
	}
	var questions models.QuestionsResponse
	json.NewDecoder(rec.Body).Decode(&questions)
	if questions.Total == 0 {
		t.Error("no questions for a seeded topic")
	}
	for _, q := range questions.Questions {
		if q.TopicID != 5 {
			t.Errorf("topic filter leaked question with topic %d", q.TopicID)
		}
	}

	rec = doJSON(t, router, http.MethodGet, "/api/questions?topicId=abc", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad topicId: status = %d, want 400", rec.Code)
	}
}
