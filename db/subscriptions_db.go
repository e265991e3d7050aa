package db

import (
	"database/sql"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/models"
	"arborist-study-api/subscriptions"
	"arborist-study-api/utils"
)

// CreateSubscription creates the user's one subscription, starting in trial.
// A second subscribe call conflicts.
func (db *DB) CreateSubscription(userID int, planID string) (*models.Subscription, error) {
	existing, err := db.GetSubscriptionByUserID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflictf("User already has a subscription")
	}

	now := time.Now().UTC()
	trialEnd := now.AddDate(0, 0, subscriptions.TrialDays)

	id, err := db.ExecReturningID(`
        INSERT INTO subscriptions (user_id, status, plan_id, trial_start_date, trial_end_date, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, userID, models.SubscriptionTrial, planID, now, trialEnd, now, now)
	if err != nil {
		utils.LogError("CreateSubscription failed: %v", err)
		// UNIQUE(user_id): a concurrent subscribe won the race
		return nil, apperr.Wrap(apperr.Conflict, "User already has a subscription", err)
	}

	return &models.Subscription{
		ID:             int(id),
		UserID:         userID,
		Status:         models.SubscriptionTrial,
		PlanID:         planID,
		TrialStartDate: &now,
		TrialEndDate:   &trialEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
		DaysRemaining:  subscriptions.TrialDays,
		IsActive:       true,
	}, nil
}

// GetSubscriptionByUserID returns the raw stored subscription, or nil when
// the user has none. Derived fields are not populated here.
func (db *DB) GetSubscriptionByUserID(userID int) (*models.Subscription, error) {
	var s models.Subscription
	var trialStart, trialEnd, subStart, subEnd sql.NullTime

	err := db.QueryRow(`
        SELECT id, user_id, status, plan_id, trial_start_date, trial_end_date,
               subscription_start_date, subscription_end_date, created_at, updated_at
        FROM subscriptions WHERE user_id = ?
    `, userID).Scan(&s.ID, &s.UserID, &s.Status, &s.PlanID, &trialStart, &trialEnd,
		&subStart, &subEnd, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		utils.LogError("GetSubscriptionByUserID(%d) failed: %v", userID, err)
		return nil, err
	}

	if trialStart.Valid {
		s.TrialStartDate = &trialStart.Time
	}
	if trialEnd.Valid {
		s.TrialEndDate = &trialEnd.Time
	}
	if subStart.Valid {
		s.SubscriptionStartDate = &subStart.Time
	}
	if subEnd.Valid {
		s.SubscriptionEndDate = &subEnd.Time
	}

	return &s, nil
}

// MarkSubscriptionExpired persists the lazy trial/active -> expired
// transition discovered on a read. Idempotent: a second call matches no rows.
func (db *DB) MarkSubscriptionExpired(userID int) error {
	_, err := db.Exec(`
        UPDATE subscriptions SET status = ?, updated_at = ?
        WHERE user_id = ? AND status IN (?, ?)
    `, models.SubscriptionExpired, time.Now().UTC(), userID,
		models.SubscriptionTrial, models.SubscriptionActive)
	if err != nil {
		utils.LogError("MarkSubscriptionExpired(%d) failed: %v", userID, err)
	}
	return err
}

// ActivateSubscription transitions to active after a confirmed payment
func (db *DB) ActivateSubscription(userID int, start, end time.Time) error {
	result, err := db.Exec(`
        UPDATE subscriptions
        SET status = ?, subscription_start_date = ?, subscription_end_date = ?, updated_at = ?
        WHERE user_id = ?
    `, models.SubscriptionActive, start, end, time.Now().UTC(), userID)
	if err != nil {
		utils.LogError("ActivateSubscription(%d) failed: %v", userID, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("No subscription found for user")
	}
	return nil
}

// CancelSubscription sets cancelled unconditionally, from any state
func (db *DB) CancelSubscription(userID int) error {
	result, err := db.Exec(`
        UPDATE subscriptions SET status = ?, updated_at = ? WHERE user_id = ?
    `, models.SubscriptionCancelled, time.Now().UTC(), userID)
	if err != nil {
		utils.LogError("CancelSubscription(%d) failed: %v", userID, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperr.NotFoundf("No subscription found for user")
	}
	return nil
}

func (db *DB) InsertPayment(p *models.Payment) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	id, err := db.ExecReturningID(`
        INSERT INTO payments (user_id, subscription_id, provider_order_id, provider_payment_id,
                              amount, currency, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, p.UserID, p.SubscriptionID, p.ProviderOrderID, p.ProviderPaymentID,
		p.Amount, p.Currency, p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		utils.LogError("InsertPayment failed: %v", err)
		return err
	}

	p.ID = int(id)
	return nil
}

// CompletePayment marks the payment row for a provider order as completed
func (db *DB) CompletePayment(providerOrderID, providerPaymentID string) error {
	_, err := db.Exec(`
        UPDATE payments SET status = ?, provider_payment_id = ?, updated_at = ?
        WHERE provider_order_id = ?
    `, models.PaymentCompleted, providerPaymentID, time.Now().UTC(), providerOrderID)
	if err != nil {
		utils.LogError("CompletePayment(%s) failed: %v", providerOrderID, err)
	}
	return err
}

func (db *DB) GetPaymentsByUserID(userID int) ([]models.Payment, error) {
	rows, err := db.Query(`
        SELECT id, user_id, subscription_id, provider_order_id, provider_payment_id,
               amount, currency, status, created_at, updated_at
        FROM payments WHERE user_id = ?
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		utils.LogError("GetPaymentsByUserID(%d) failed: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		var providerPaymentID sql.NullString

		err := rows.Scan(&p.ID, &p.UserID, &p.SubscriptionID, &p.ProviderOrderID, &providerPaymentID,
			&p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, err
		}
		if providerPaymentID.Valid {
			p.ProviderPaymentID = &providerPaymentID.String
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
