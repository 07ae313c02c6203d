package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// statusTransitions is the manuscript state machine. A status may only move
// to one of the listed successors; everything else is an InvalidTransition.
var statusTransitions = map[string][]string{
	models.StatusDraft:              {models.StatusSubmitted},
	models.StatusSubmitted:          {models.StatusWithEditor},
	models.StatusWithEditor:         {models.StatusUnderReview, models.StatusRevisionsRequested, models.StatusAccepted, models.StatusRejected},
	models.StatusUnderReview:        {models.StatusWithEditor, models.StatusRevisionsRequested, models.StatusAccepted, models.StatusRejected},
	models.StatusRevisionsRequested: {models.StatusUnderReview},
	models.StatusAccepted:           {models.StatusPublished},
	models.StatusRejected:           {},
	models.StatusPublished:          {},
}

// WorkflowService owns manuscript status transitions. All status writes go
// through ApplyTransition so every change lands in the history and audit
// tables.
type WorkflowService struct {
	db                *gorm.DB
	maxRevisionRounds int
}

// NewWorkflowService constructs a WorkflowService. maxRevisionRounds comes
// from MAX_REVISION_ROUNDS; zero means unbounded.
func NewWorkflowService(db *gorm.DB) *WorkflowService {
	if db == nil {
		db = config.DB
	}
	rounds := 3
	if raw := os.Getenv("MAX_REVISION_ROUNDS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			rounds = parsed
		}
	}
	return &WorkflowService{db: db, maxRevisionRounds: rounds}
}

// CanTransition reports whether the state machine permits from -> to.
func (s *WorkflowService) CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ApplyTransition moves a manuscript to newStatus inside tx, stamping the
// lifecycle timestamps and writing the status-history and activity rows.
// The caller owns the transaction.
func (s *WorkflowService) ApplyTransition(tx *gorm.DB, manuscript *models.Manuscript, newStatus string, actor Actor, reason string) error {
	oldStatus := manuscript.Status
	if !s.CanTransition(oldStatus, newStatus) {
		return invalidTransitionError("cannot move manuscript from %s to %s", oldStatus, newStatus)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":     newStatus,
		"updated_at": now,
	}

	switch newStatus {
	case models.StatusSubmitted:
		updates["submitted_at"] = now
		manuscript.SubmittedAt = &now
	case models.StatusAccepted:
		updates["accepted_at"] = now
		manuscript.AcceptedAt = &now
	case models.StatusPublished:
		updates["published_at"] = now
		manuscript.PublishedAt = &now
	case models.StatusUnderReview:
		if oldStatus == models.StatusRevisionsRequested {
			nextRound := manuscript.RevisionRound + 1
			if s.maxRevisionRounds > 0 && nextRound > s.maxRevisionRounds {
				return invalidTransitionError("revision round limit of %d reached", s.maxRevisionRounds)
			}
			updates["revision_round"] = nextRound
			manuscript.RevisionRound = nextRound
		}
	}

	if err := tx.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update manuscript status: %w", err)
	}

	history := models.ManuscriptStatusHistory{
		ManuscriptID: manuscript.ManuscriptID,
		OldStatus:    &oldStatus,
		NewStatus:    newStatus,
		ChangedBy:    actor.UserID,
		CreatedAt:    now,
	}
	if reason != "" {
		history.Reason = &reason
	}
	if err := tx.Create(&history).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}

	details := fmt.Sprintf("status=%s->%s", oldStatus, newStatus)
	if reason != "" {
		details += ";reason=" + reason
	}
	if err := logActivity(tx, actor.UserID, "status_transition", details, &manuscript.ManuscriptID); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	manuscript.Status = newStatus
	manuscript.UpdatedAt = &now
	return nil
}

// AssignEditor moves a submitted manuscript to with_editor and records the
// owning editor. Editors self-assign; admins may assign any editor.
func (s *WorkflowService) AssignEditor(actor Actor, manuscriptID, editorID int) (*models.Manuscript, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	if editorID != actor.UserID && !actor.IsAdmin() {
		return nil, forbiddenError("editors may only self-assign")
	}

	var manuscript models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("manuscript %d not found", manuscriptID)
			}
			return err
		}
		if manuscript.EditorID != nil {
			return invalidTransitionError("manuscript already has an editor")
		}
		if err := s.ApplyTransition(tx, &manuscript, models.StatusWithEditor, actor, "editor assigned"); err != nil {
			return err
		}
		return tx.Model(&models.Manuscript{}).
			Where("manuscript_id = ?", manuscriptID).
			Update("editor_id", editorID).Error
	})
	if err != nil {
		return nil, err
	}
	manuscript.EditorID = &editorID
	return &manuscript, nil
}

// ResubmitRevisions re-enters review after the author uploads a revised
// manuscript. This is the single non-monotonic loop in the state machine and
// is bounded by maxRevisionRounds.
func (s *WorkflowService) ResubmitRevisions(actor Actor, manuscriptID int) (*models.Manuscript, error) {
	var manuscript models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("manuscript %d not found", manuscriptID)
			}
			return err
		}
		if manuscript.AuthorID != actor.UserID && !actor.IsAdmin() {
			return forbiddenError("only the submitting author may resubmit")
		}
		return s.ApplyTransition(tx, &manuscript, models.StatusUnderReview, actor, "revisions resubmitted")
	})
	if err != nil {
		return nil, err
	}
	return &manuscript, nil
}

// Publish moves an accepted manuscript to published once production work is
// done. Production scheduling itself happens outside this engine.
func (s *WorkflowService) Publish(actor Actor, manuscriptID int) (*models.Manuscript, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	var manuscript models.Manuscript
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("manuscript %d not found", manuscriptID)
			}
			return err
		}
		return s.ApplyTransition(tx, &manuscript, models.StatusPublished, actor, "publication released")
	})
	if err != nil {
		return nil, err
	}
	return &manuscript, nil
}

// StatusHistory returns the recorded transitions for a manuscript, newest
// first.
func (s *WorkflowService) StatusHistory(manuscriptID int) ([]models.ManuscriptStatusHistory, error) {
	var rows []models.ManuscriptStatusHistory
	if err := s.db.Where("manuscript_id = ?", manuscriptID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
