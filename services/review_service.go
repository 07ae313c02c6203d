package services

import (
	"errors"
	"fmt"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ReviewInput is the reviewer-editable content of a review.
type ReviewInput struct {
	FormData        models.ReviewFormData `json:"form_data"`
	Recommendation  string                `json:"recommendation"`
	ConfidenceLevel int                   `json:"confidence_level"`
}

// RedactedReview is the author-facing projection of a submitted review:
// no reviewer identity, no confidential editor comments.
type RedactedReview struct {
	Summary          string     `json:"summary"`
	Strengths        string     `json:"strengths"`
	Weaknesses       string     `json:"weaknesses"`
	DetailedComments string     `json:"detailed_comments"`
	Recommendation   string     `json:"recommendation"`
	SubmittedAt      *time.Time `json:"submitted_at"`
}

// ReviewService owns review drafting, submission and withdrawal.
type ReviewService struct {
	db       *gorm.DB
	workflow *WorkflowService
	quality  *QualityService
	dispatch Dispatcher
}

// NewReviewService constructs a ReviewService.
func NewReviewService(db *gorm.DB, dispatch Dispatcher, classifier BiasClassifier) *ReviewService {
	if db == nil {
		db = config.DB
	}
	if dispatch == nil {
		dispatch = NewNotificationDispatcher(db)
	}
	return &ReviewService{
		db:       db,
		workflow: NewWorkflowService(db),
		quality:  NewQualityService(db, dispatch, classifier),
		dispatch: dispatch,
	}
}

func validRecommendation(r string) bool {
	switch r {
	case models.RecommendAccept, models.RecommendMinorRevisions, models.RecommendMajorRevisions, models.RecommendReject:
		return true
	}
	return false
}

// SaveDraft creates or updates the reviewer's unsubmitted review for an
// assignment and recomputes its quality report. The first draft moves the
// assignment to in_progress.
func (s *ReviewService) SaveDraft(actor Actor, assignmentID int, input ReviewInput) (*models.Review, error) {
	var assignment models.ReviewAssignment
	if err := s.db.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("assignment %d not found", assignmentID)
		}
		return nil, err
	}
	if assignment.ReviewerID != actor.UserID {
		return nil, forbiddenError("only the assigned reviewer may write this review")
	}
	if assignment.Status != models.AssignmentAccepted && assignment.Status != models.AssignmentInProgress {
		return nil, invalidTransitionError("assignment is %s; accept the invitation before reviewing", assignment.Status)
	}
	if input.Recommendation != "" && !validRecommendation(input.Recommendation) {
		return nil, validationError("invalid recommendation %q", input.Recommendation)
	}

	now := time.Now()
	var review models.Review

	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("assignment_id = ?", assignmentID).First(&review).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			review = models.Review{
				ManuscriptID:    assignment.ManuscriptID,
				ReviewerID:      actor.UserID,
				AssignmentID:    assignmentID,
				FormData:        datatypes.NewJSONType(input.FormData),
				Recommendation:  input.Recommendation,
				ConfidenceLevel: input.ConfidenceLevel,
				CreatedAt:       now,
			}
			if err := tx.Create(&review).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if review.SubmittedAt != nil {
				return invalidTransitionError("review has been submitted and is immutable")
			}
			review.FormData = datatypes.NewJSONType(input.FormData)
			review.Recommendation = input.Recommendation
			review.ConfidenceLevel = input.ConfidenceLevel
			review.UpdatedAt = &now
			if err := tx.Save(&review).Error; err != nil {
				return err
			}
		}

		if assignment.Status == models.AssignmentAccepted {
			if err := tx.Model(&models.ReviewAssignment{}).
				Where("assignment_id = ?", assignmentID).
				Update("status", models.AssignmentInProgress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Quality analysis is advisory; its failure never blocks the draft save.
	if _, err := s.quality.AnalyzeReview(&review); err != nil {
		logDependencyFailure("quality analysis", err)
	}
	return &review, nil
}

// Submit finalizes a review. The review freezes, the assignment completes,
// and when no active assignments remain the manuscript returns to the editor
// for a decision.
func (s *ReviewService) Submit(actor Actor, reviewID int) (*models.Review, error) {
	var review models.Review
	var manuscript models.Manuscript

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("review %d not found", reviewID)
			}
			return err
		}
		if review.ReviewerID != actor.UserID {
			return forbiddenError("only the review's author may submit it")
		}
		if review.SubmittedAt != nil {
			return invalidTransitionError("review has already been submitted")
		}
		if !validRecommendation(review.Recommendation) {
			return validationError("a recommendation is required before submission")
		}

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{"submitted_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
		review.SubmittedAt = &now

		var assignment models.ReviewAssignment
		if err := tx.Where("assignment_id = ?", review.AssignmentID).First(&assignment).Error; err != nil {
			return err
		}
		if err := markCompleted(tx, &assignment, now); err != nil {
			return err
		}

		if err := logActivity(tx, actor.UserID, "review_submitted",
			fmt.Sprintf("review=%d", reviewID), &review.ManuscriptID); err != nil {
			return err
		}

		if err := tx.Where("manuscript_id = ?", review.ManuscriptID).First(&manuscript).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.ReviewAssignment{}).
			Where("manuscript_id = ? AND status IN ?", review.ManuscriptID, models.ActiveAssignmentStatuses).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 && manuscript.Status == models.StatusUnderReview {
			return s.workflow.ApplyTransition(tx, &manuscript, models.StatusWithEditor, actor, "all reviews completed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if manuscript.EditorID != nil {
		s.dispatch.Dispatch([]Intent{{
			Type:         IntentNotifyReviewer,
			UserID:       *manuscript.EditorID,
			ManuscriptID: review.ManuscriptID,
			Title:        "Review submitted for " + manuscript.SubmissionNumber,
			Message:      "A reviewer has submitted their review. The manuscript may be ready for a decision.",
		}})
	}
	return &review, nil
}

// Withdraw retracts a submitted review. The row stays for the audit trail;
// only the withdrawn_at marker changes.
func (s *ReviewService) Withdraw(actor Actor, reviewID int, reason string) (*models.Review, error) {
	var review models.Review
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", reviewID).First(&review).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("review %d not found", reviewID)
			}
			return err
		}
		if review.ReviewerID != actor.UserID && !actor.IsAdmin() {
			return forbiddenError("only the review's author may withdraw it")
		}
		if review.SubmittedAt == nil {
			return invalidTransitionError("only submitted reviews can be withdrawn")
		}
		if review.WithdrawnAt != nil {
			return invalidTransitionError("review has already been withdrawn")
		}

		now := time.Now()
		if err := tx.Model(&models.Review{}).
			Where("review_id = ?", reviewID).
			Updates(map[string]interface{}{"withdrawn_at": now, "updated_at": now}).Error; err != nil {
			return err
		}
		review.WithdrawnAt = &now

		details := fmt.Sprintf("review=%d;reason=%s", reviewID, reason)
		return logActivity(tx, actor.UserID, "review_withdrawn", details, &review.ManuscriptID)
	})
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ForEditor returns all reviews of a manuscript including confidential
// comments. Editorial roles only.
func (s *ReviewService) ForEditor(actor Actor, manuscriptID int) ([]models.Review, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	var rows []models.Review
	if err := s.db.Preload("Reviewer").
		Where("manuscript_id = ?", manuscriptID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ForAuthor returns the submitted, non-withdrawn reviews of the author's own
// manuscript with confidential content and reviewer identities removed.
func (s *ReviewService) ForAuthor(actor Actor, manuscriptID int) ([]RedactedReview, error) {
	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", manuscriptID)
		}
		return nil, err
	}
	if manuscript.AuthorID != actor.UserID {
		return nil, forbiddenError("authors may only read reviews of their own manuscripts")
	}

	var rows []models.Review
	if err := s.db.Where("manuscript_id = ? AND submitted_at IS NOT NULL AND withdrawn_at IS NULL", manuscriptID).
		Order("submitted_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	redacted := make([]RedactedReview, 0, len(rows))
	for _, r := range rows {
		form := r.FormData.Data()
		redacted = append(redacted, RedactedReview{
			Summary:          form.Summary,
			Strengths:        form.Strengths,
			Weaknesses:       form.Weaknesses,
			DetailedComments: form.DetailedComments,
			Recommendation:   r.Recommendation,
			SubmittedAt:      r.SubmittedAt,
		})
	}
	return redacted, nil
}
