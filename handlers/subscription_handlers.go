package handlers

import (
	"net/http"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/db"
	"arborist-study-api/models"
	"arborist-study-api/payments"
	"arborist-study-api/subscriptions"
	"arborist-study-api/utils"
)

// Monthly plan pricing
const (
	monthlyPrice       = 9.99
	paymentCurrency    = "USD"
	paymentDescription = "Arborist certification study - monthly subscription"
	defaultPlanID      = "monthly"
)

type SubscriptionHandlers struct {
	db       *db.DB
	provider payments.Provider
}

// Subscribe creates the user's subscription, always starting as a trial
func (h *SubscriptionHandlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	var req models.SubscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if req.PlanID == "" {
		req.PlanID = defaultPlanID
	}

	sub, err := h.db.CreateSubscription(user.ID, req.PlanID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	utils.LogInfo("User %d started trial subscription (plan %s)", user.ID, sub.PlanID)
	respondWithJSON(w, http.StatusCreated, sub)
}

// Status returns the subscription with derived fields, persisting a lapsed
// trial/active as expired on the way out. Users without a subscription get a
// null body.
func (h *SubscriptionHandlers) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	sub, err := h.db.GetSubscriptionByUserID(user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if sub == nil {
		respondWithJSON(w, http.StatusOK, nil)
		return
	}

	eval := subscriptions.Evaluate(sub, time.Now().UTC())
	if eval.Lapsed {
		if err := h.db.MarkSubscriptionExpired(user.ID); err != nil {
			utils.LogError("Failed to persist expiry for user %d: %v", user.ID, err)
		}
		sub.Status = models.SubscriptionExpired
	}
	sub.DaysRemaining = eval.DaysRemaining
	sub.IsActive = eval.IsActive

	respondWithJSON(w, http.StatusOK, sub)
}

// CreatePayment opens a renewal payment with the provider and records it as
// pending. The client redirects the user to the returned approval URL.
func (h *SubscriptionHandlers) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	sub, err := h.db.GetSubscriptionByUserID(user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if sub == nil {
		respondWithError(w, apperr.NotFoundf("No subscription found for user"))
		return
	}

	created, err := h.provider.CreatePayment(r.Context(), monthlyPrice, paymentCurrency, paymentDescription)
	if err != nil {
		respondWithError(w, err)
		return
	}

	payment := &models.Payment{
		UserID:          user.ID,
		SubscriptionID:  sub.ID,
		ProviderOrderID: created.ID,
		Amount:          monthlyPrice,
		Currency:        paymentCurrency,
		Status:          models.PaymentPending,
	}
	if err := h.db.InsertPayment(payment); err != nil {
		respondWithError(w, err)
		return
	}

	utils.LogInfo("Created payment %s for user %d", created.ID, user.ID)
	respondWithJSON(w, http.StatusOK, models.CreatePaymentResponse{
		PaymentID:   created.ID,
		ApprovalURL: created.ApprovalURL,
	})
}

// ExecutePayment confirms a provider-approved payment, then activates the
// subscription for 30 days. A provider failure mutates nothing.
func (h *SubscriptionHandlers) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	var req models.ExecutePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if req.PaymentID == "" || req.PayerID == "" {
		respondWithError(w, apperr.Validationf("paymentId and payerId are required"))
		return
	}

	providerPaymentID, err := h.provider.ExecutePayment(r.Context(), req.PaymentID, req.PayerID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	if err := h.db.CompletePayment(req.PaymentID, providerPaymentID); err != nil {
		respondWithError(w, err)
		return
	}

	now := time.Now().UTC()
	end := now.AddDate(0, 0, subscriptions.SubscriptionDays)
	if err := h.db.ActivateSubscription(user.ID, now, end); err != nil {
		respondWithError(w, err)
		return
	}

	utils.LogInfo("Activated subscription for user %d until %s", user.ID, end.Format(time.RFC3339))
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Payment completed and subscription activated"})
}

// Cancel sets the subscription to cancelled from any state
func (h *SubscriptionHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	if err := h.db.CancelSubscription(user.ID); err != nil {
		respondWithError(w, err)
		return
	}

	utils.LogInfo("User %d cancelled their subscription", user.ID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Subscription cancelled"})
}

// ListPayments returns the user's payment history, newest first
func (h *SubscriptionHandlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user := UserFromContext(r.Context())

	history, err := h.db.GetPaymentsByUserID(user.ID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if history == nil {
		history = []models.Payment{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"payments": history})
}
