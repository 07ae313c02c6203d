package models

import (
	"time"

	"gorm.io/datatypes"
)

// Editorial decisions.
const (
	DecisionAccepted           = "accepted"
	DecisionRevisionsRequested = "revisions_requested"
	DecisionRejected           = "rejected"
)

// ValidDecision reports whether d is a member of the decision enum.
func ValidDecision(d string) bool {
	switch d {
	case DecisionAccepted, DecisionRevisionsRequested, DecisionRejected:
		return true
	}
	return false
}

// DecisionComponents is the editable content of a decision, stored as JSON.
type DecisionComponents struct {
	EditorSummary    string   `json:"editor_summary,omitempty"`
	AuthorLetter     string   `json:"author_letter"`
	ReviewerExcerpts []string `json:"reviewer_excerpts,omitempty"`
	InternalNotes    string   `json:"internal_notes,omitempty"`
	Conditions       []string `json:"conditions,omitempty"`
	NextSteps        string   `json:"next_steps,omitempty"`
	Rationale        string   `json:"rationale,omitempty"`
}

// DecisionActions are the side effects requested alongside a decision. Each is
// queued independently; a delivery failure never rolls the decision back.
type DecisionActions struct {
	NotifyAuthor           bool       `json:"notify_author"`
	NotifyReviewers        bool       `json:"notify_reviewers"`
	SchedulePublication    bool       `json:"schedule_publication"`
	AssignProductionEditor bool       `json:"assign_production_editor"`
	GenerateDOI            bool       `json:"generate_doi"`
	SendToProduction       bool       `json:"send_to_production"`
	FollowUpDate           *time.Time `json:"follow_up_date,omitempty"`
}

// EditorialDecision represents the editorial_decisions table. Draft rows may
// be partial; exactly one draft per manuscript is promoted to final.
type EditorialDecision struct {
	DecisionID      int                                    `gorm:"primaryKey;column:decision_id" json:"decision_id"`
	ManuscriptID    int                                    `gorm:"column:manuscript_id" json:"manuscript_id"`
	EditorID        int                                    `gorm:"column:editor_id" json:"editor_id"`
	Decision        string                                 `gorm:"column:decision" json:"decision"`
	Components      datatypes.JSONType[DecisionComponents] `gorm:"column:components" json:"components"`
	Actions         datatypes.JSONType[DecisionActions]    `gorm:"column:actions" json:"actions"`
	TemplateID      *int                                   `gorm:"column:template_id" json:"template_id,omitempty"`
	TemplateVersion *int                                   `gorm:"column:template_version" json:"template_version,omitempty"`
	IsDraft         bool                                   `gorm:"column:is_draft" json:"is_draft"`
	FinalizedAt     *time.Time                             `gorm:"column:finalized_at" json:"finalized_at,omitempty"`
	CreatedAt       time.Time                              `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       *time.Time                             `gorm:"column:updated_at" json:"updated_at"`

	Editor *User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}

// TableName specifies the table name for EditorialDecision.
func (EditorialDecision) TableName() string {
	return "editorial_decisions"
}
