package models

import (
	"time"

	"github.com/google/uuid"
)

// PromoCode is a locally stored discount/trial code. ExternalRef points at the
// corresponding object in the payment processor, which is not managed here.
type PromoCode struct {
	ID          uuid.UUID  `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	PercentOff  int        `json:"percent_off"`
	TrialDays   int        `json:"trial_days"`
	ExternalRef string     `json:"-"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	IsActive    bool       `json:"is_active"`
}
