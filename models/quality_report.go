package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quality report statuses.
const (
	QualityClean   = "clean"
	QualityFlagged = "flagged_for_review"
)

// Flags that demand urgent editorial attention.
const (
	FlagBiasSuspected      = "bias_suspected"
	FlagEthicalConcern     = "ethical_concern"
	FlagUnprofessionalTone = "unprofessional_tone"
	FlagIncompleteSections = "incomplete_sections"
	FlagExcessiveLength    = "excessive_length"
	FlagVagueLanguage      = "vague_language"
)

// QualityScores are the per-dimension scores of a review analysis.
type QualityScores struct {
	Completeness float64 `json:"completeness"`
	Tone         float64 `json:"tone"`
	Clarity      float64 `json:"clarity"`
}

// QualityReport represents the quality_reports table. Flags accumulate as a
// deduplicated set; re-analysis before submission overwrites scores but only
// ever adds flags.
type QualityReport struct {
	ReportID  int                               `gorm:"primaryKey;column:report_id" json:"report_id"`
	ReviewID  int                               `gorm:"column:review_id;unique" json:"review_id"`
	Scores    datatypes.JSONType[QualityScores] `gorm:"column:scores" json:"scores"`
	Flags     datatypes.JSONSlice[string]       `gorm:"column:flags" json:"flags"`
	Status    string                            `gorm:"column:status" json:"status"`
	CreatedAt time.Time                         `gorm:"column:created_at" json:"created_at"`
	UpdatedAt *time.Time                        `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for QualityReport.
func (QualityReport) TableName() string {
	return "quality_reports"
}
