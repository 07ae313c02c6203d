package services

import (
	"time"

	"journal-management-api/models"
)

// Urgency levels for the editorial queue.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
)

// UrgencyFlag is a non-persisted priority hint for the editor's queue.
type UrgencyFlag struct {
	Level string `json:"level"`
	Note  string `json:"note"`
}

// ClassifyUrgency derives the urgency flag for a manuscript from its status
// and the days it has spent waiting. It is a pure view over the queue and is
// recomputed on every read.
func ClassifyUrgency(status string, daysSinceSubmission int) *UrgencyFlag {
	switch status {
	case models.StatusSubmitted:
		if daysSinceSubmission > 3 {
			return &UrgencyFlag{Level: UrgencyHigh, Note: "Needs assignment"}
		}
	case models.StatusWithEditor:
		if daysSinceSubmission > 7 {
			return &UrgencyFlag{Level: UrgencyMedium, Note: "Needs reviewers"}
		}
	case models.StatusUnderReview:
		if daysSinceSubmission > 21 {
			return &UrgencyFlag{Level: UrgencyMedium, Note: "Follow up needed"}
		}
	}
	return nil
}

// DaysSinceSubmission measures whole days between the submission timestamp
// and now, falling back to the creation time for unsubmitted drafts.
func DaysSinceSubmission(m *models.Manuscript, now time.Time) int {
	ref := m.CreatedAt
	if m.SubmittedAt != nil {
		ref = *m.SubmittedAt
	}
	return int(now.Sub(ref).Hours() / 24)
}

// UrgencyFor classifies a manuscript as of now.
func UrgencyFor(m *models.Manuscript, now time.Time) *UrgencyFlag {
	return ClassifyUrgency(m.Status, DaysSinceSubmission(m, now))
}
