package models

import (
	"time"

	"gorm.io/datatypes"
)

// Reviewer recommendations.
const (
	RecommendAccept         = "accept"
	RecommendMinorRevisions = "minor_revisions"
	RecommendMajorRevisions = "major_revisions"
	RecommendReject         = "reject"
)

// ReviewFormData is the structured content of a review, stored as a JSON
// column. ConfidentialComments are visible to editors and admins only.
type ReviewFormData struct {
	Summary              string `json:"summary"`
	Strengths            string `json:"strengths"`
	Weaknesses           string `json:"weaknesses"`
	DetailedComments     string `json:"detailed_comments"`
	ConfidentialComments string `json:"confidential_comments,omitempty"`
}

// Review represents the reviews table. Once SubmittedAt is set the row is
// immutable apart from withdrawal.
type Review struct {
	ReviewID        int                                `gorm:"primaryKey;column:review_id" json:"review_id"`
	ManuscriptID    int                                `gorm:"column:manuscript_id" json:"manuscript_id"`
	ReviewerID      int                                `gorm:"column:reviewer_id" json:"reviewer_id"`
	AssignmentID    int                                `gorm:"column:assignment_id" json:"assignment_id"`
	FormData        datatypes.JSONType[ReviewFormData] `gorm:"column:form_data" json:"form_data"`
	Recommendation  string                             `gorm:"column:recommendation" json:"recommendation"`
	ConfidenceLevel int                                `gorm:"column:confidence_level" json:"confidence_level"`
	SubmittedAt     *time.Time                         `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	WithdrawnAt     *time.Time                         `gorm:"column:withdrawn_at" json:"withdrawn_at,omitempty"`
	CreatedAt       time.Time                          `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       *time.Time                         `gorm:"column:updated_at" json:"updated_at"`

	Reviewer   *User             `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Assignment *ReviewAssignment `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
}

// TableName specifies the table name for Review.
func (Review) TableName() string {
	return "reviews"
}

// IsSubmitted reports whether the review has been finalized by the reviewer.
func (r *Review) IsSubmitted() bool {
	return r.SubmittedAt != nil && r.WithdrawnAt == nil
}
