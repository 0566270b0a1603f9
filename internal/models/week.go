package models

import (
	"time"

	"github.com/julianstephens/tandem/internal/week"
)

type ReviewMode string

const (
	ReviewModeSolo     ReviewMode = "solo"
	ReviewModeTogether ReviewMode = "together"
)

func (m ReviewMode) Valid() bool {
	return m == ReviewModeSolo || m == ReviewModeTogether
}

// Week is one user's record for a calendar week. PlannedAt and ReviewedAt are
// monotonic: once set, storage never clears them.
type Week struct {
	UserID     string     `json:"user_id"`
	ID         week.ID    `json:"id"`
	StartDate  string     `json:"start_date"` // YYYY-MM-DD
	EndDate    string     `json:"end_date"`   // YYYY-MM-DD
	PlannedAt  *time.Time `json:"planned_at,omitempty"`
	Rating     *int       `json:"rating,omitempty"`
	RatingNote string     `json:"rating_note,omitempty"`
	ReviewMode ReviewMode `json:"review_mode,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (w Week) IsPlanned() bool  { return w.PlannedAt != nil }
func (w Week) IsReviewed() bool { return w.ReviewedAt != nil }

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PartnerID *string   `json:"partner_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) HasPartner() bool {
	return u.PartnerID != nil && *u.PartnerID != ""
}
