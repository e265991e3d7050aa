// Package subscriptions holds the subscription state machine:
// trial -> active -> expired, trial -> expired, and any state -> cancelled.
// Expiry is never driven by a timer; it is derived from the stored end dates
// at access time and persisted opportunistically by the caller.
package subscriptions

import (
	"time"

	"arborist-study-api/models"
)

// Policy constants
const (
	TrialDays        = 5
	SubscriptionDays = 30
)

// Evaluation is the derived view of a subscription at a point in time
type Evaluation struct {
	DaysRemaining int
	IsActive      bool

	// Lapsed is set when the stored status still says trial or active but the
	// corresponding window has passed; the caller should persist the expired
	// transition.
	Lapsed bool
}

// Evaluate derives daysRemaining and isActive from the stored status and end
// dates. It is a pure function of (status, end dates, now); it never mutates
// sub. DaysRemaining is whole days until the relevant end date, floored at 0.
func Evaluate(sub *models.Subscription, now time.Time) Evaluation {
	var end *time.Time

	switch sub.Status {
	case models.SubscriptionTrial:
		end = sub.TrialEndDate
	case models.SubscriptionActive:
		end = sub.SubscriptionEndDate
	default:
		// expired and cancelled report 0 / false and never lapse further
		return Evaluation{}
	}

	days := 0
	if end != nil && end.After(now) {
		days = int(end.Sub(now).Hours() / 24)
	}

	return Evaluation{
		DaysRemaining: days,
		IsActive:      days > 0,
		Lapsed:        days <= 0,
	}
}
