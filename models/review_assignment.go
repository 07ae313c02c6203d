package models

import "time"

// Review assignment statuses.
const (
	AssignmentInvited    = "invited"
	AssignmentAccepted   = "accepted"
	AssignmentDeclined   = "declined"
	AssignmentInProgress = "in_progress"
	AssignmentCompleted  = "completed"
	AssignmentExpired    = "expired"
)

// ActiveAssignmentStatuses are the states that count against a reviewer's
// capacity and block a second invitation for the same manuscript.
var ActiveAssignmentStatuses = []string{AssignmentInvited, AssignmentAccepted, AssignmentInProgress}

// ReviewAssignment represents the review_assignments table.
//
// ActiveFlag is 1 while the assignment is in an active status and NULL once it
// reaches a terminal one. MySQL permits any number of NULLs under a unique
// index, so uniq_active_assignment enforces at most one active assignment per
// (manuscript, reviewer) pair while still allowing re-invitations after a
// decline or expiry.
type ReviewAssignment struct {
	AssignmentID   int        `gorm:"primaryKey;column:assignment_id" json:"assignment_id"`
	ManuscriptID   int        `gorm:"column:manuscript_id;uniqueIndex:uniq_active_assignment" json:"manuscript_id"`
	ReviewerID     int        `gorm:"column:reviewer_id;uniqueIndex:uniq_active_assignment" json:"reviewer_id"`
	AssignedBy     int        `gorm:"column:assigned_by" json:"assigned_by"`
	Status         string     `gorm:"column:status" json:"status"`
	ActiveFlag     *int       `gorm:"column:active_flag;uniqueIndex:uniq_active_assignment" json:"-"`
	InvitedAt      time.Time  `gorm:"column:invited_at" json:"invited_at"`
	DueDate        time.Time  `gorm:"column:due_date" json:"due_date"`
	RespondedAt    *time.Time `gorm:"column:responded_at" json:"responded_at,omitempty"`
	CompletedAt    *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	DeclineReason  *string    `gorm:"column:decline_reason" json:"decline_reason,omitempty"`
	ReminderCount  int        `gorm:"column:reminder_count" json:"reminder_count"`
	LastReminderAt *time.Time `gorm:"column:last_reminder_at" json:"last_reminder_at,omitempty"`

	// Relations
	Reviewer   *User       `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Manuscript *Manuscript `gorm:"foreignKey:ManuscriptID" json:"manuscript,omitempty"`
}

// TableName specifies the table name for ReviewAssignment.
func (ReviewAssignment) TableName() string {
	return "review_assignments"
}

// IsActive reports whether the assignment still occupies reviewer capacity.
func (a *ReviewAssignment) IsActive() bool {
	switch a.Status {
	case AssignmentInvited, AssignmentAccepted, AssignmentInProgress:
		return true
	}
	return false
}
