package models

import "time"

// Subscription states
const (
	SubscriptionTrial     = "trial"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// Payment states
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Subscription gates a user's access to the platform. DaysRemaining and
// IsActive are recomputed from the end dates on every read and are never the
// stored source of truth.
type Subscription struct {
	ID                    int        `json:"id"`
	UserID                int        `json:"userId"`
	Status                string     `json:"status"`
	PlanID                string     `json:"planId"`
	TrialStartDate        *time.Time `json:"trialStartDate,omitempty"`
	TrialEndDate          *time.Time `json:"trialEndDate,omitempty"`
	SubscriptionStartDate *time.Time `json:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscriptionEndDate,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`

	DaysRemaining int  `json:"daysRemaining"`
	IsActive      bool `json:"isActive"`
}

// SubscribeRequest creates the user's subscription (always starts as a trial)
type SubscribeRequest struct {
	PlanID     string `json:"planId"`
	StartTrial bool   `json:"startTrial"`
}

// Payment is one append-only entry of the payment audit log
type Payment struct {
	ID                int       `json:"id"`
	UserID            int       `json:"userId"`
	SubscriptionID    int       `json:"subscriptionId"`
	ProviderOrderID   string    `json:"providerOrderId"`
	ProviderPaymentID *string   `json:"providerPaymentId,omitempty"`
	Amount            float64   `json:"amount"`
	Currency          string    `json:"currency"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// CreatePaymentResponse points the client at the provider's approval flow
type CreatePaymentResponse struct {
	PaymentID   string `json:"paymentId"`
	ApprovalURL string `json:"approvalUrl"`
}

// ExecutePaymentRequest confirms a provider-approved payment
type ExecutePaymentRequest struct {
	PaymentID string `json:"paymentId"`
	PayerID   string `json:"payerId"`
}
