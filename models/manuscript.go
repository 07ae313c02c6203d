package models

import "time"

// Manuscript statuses. Transitions between them go through
// services.WorkflowService only; writing the column directly bypasses the
// status history and activity log.
const (
	StatusDraft              = "draft"
	StatusSubmitted          = "submitted"
	StatusWithEditor         = "with_editor"
	StatusUnderReview        = "under_review"
	StatusRevisionsRequested = "revisions_requested"
	StatusAccepted           = "accepted"
	StatusRejected           = "rejected"
	StatusPublished          = "published"
)

// Manuscript priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Manuscript represents the manuscripts table.
type Manuscript struct {
	ManuscriptID     int        `gorm:"primaryKey;column:manuscript_id" json:"manuscript_id"`
	SubmissionNumber string     `gorm:"column:submission_number;unique" json:"submission_number"`
	Title            string     `gorm:"column:title" json:"title"`
	Abstract         string     `gorm:"column:abstract" json:"abstract"`
	Keywords         string     `gorm:"column:keywords" json:"keywords"`
	FieldOfStudy     string     `gorm:"column:field_of_study" json:"field_of_study"`
	Status           string     `gorm:"column:status" json:"status"`
	Priority         string     `gorm:"column:priority" json:"priority"`
	AuthorID         int        `gorm:"column:author_id" json:"author_id"`
	EditorID         *int       `gorm:"column:editor_id" json:"editor_id,omitempty"`
	RevisionRound    int        `gorm:"column:revision_round" json:"revision_round"`
	MainFilePath     *string    `gorm:"column:main_file_path" json:"main_file_path,omitempty"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        *time.Time `gorm:"column:updated_at" json:"updated_at"`
	SubmittedAt      *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	AcceptedAt       *time.Time `gorm:"column:accepted_at" json:"accepted_at,omitempty"`
	PublishedAt      *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Editor *User `gorm:"foreignKey:EditorID" json:"editor,omitempty"`
}

// TableName overrides the table name for Manuscript.
func (Manuscript) TableName() string {
	return "manuscripts"
}

// IsTerminal reports whether no further editorial decision applies.
func (m *Manuscript) IsTerminal() bool {
	return m.Status == StatusRejected || m.Status == StatusPublished
}
