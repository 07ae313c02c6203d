package models

import "time"

// Reviewer availability statuses.
const (
	AvailabilityAvailable   = "available"
	AvailabilityBusy        = "busy"
	AvailabilityUnavailable = "unavailable"
	AvailabilityOnLeave     = "on_leave"
)

// ValidAvailabilityStatus reports whether s is a member of the availability enum.
func ValidAvailabilityStatus(s string) bool {
	switch s {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityUnavailable, AvailabilityOnLeave:
		return true
	}
	return false
}

// ReviewerProfile holds the workload facet of a reviewer. The active
// assignment count is derived from review_assignments, never stored here.
type ReviewerProfile struct {
	ProfileID               int        `gorm:"primaryKey;column:profile_id" json:"profile_id"`
	UserID                  int        `gorm:"column:user_id;unique" json:"user_id"`
	AvailabilityStatus      string     `gorm:"column:availability_status" json:"availability_status"`
	MaxReviewsPerMonth      int        `gorm:"column:max_reviews_per_month" json:"max_reviews_per_month"`
	PreferredTurnaroundDays int        `gorm:"column:preferred_turnaround_days" json:"preferred_turnaround_days"`
	Expertise               *string    `gorm:"column:expertise" json:"expertise,omitempty"`
	CreateAt                time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt                *time.Time `gorm:"column:update_at" json:"update_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName specifies the table name for ReviewerProfile.
func (ReviewerProfile) TableName() string {
	return "reviewer_profiles"
}
