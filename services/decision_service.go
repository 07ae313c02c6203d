package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DecisionInput carries one editorial decision into the engine.
type DecisionInput struct {
	ManuscriptID    int                       `json:"manuscript_id"`
	Decision        string                    `json:"decision"`
	Components      models.DecisionComponents `json:"components"`
	Actions         models.DecisionActions    `json:"actions"`
	TemplateID      *int                      `json:"template_id,omitempty"`
	TemplateVersion *int                      `json:"template_version,omitempty"`
	IsDraft         bool                      `json:"is_draft"`
}

// DecisionResult distinguishes "decision recorded" from "all side effects
// delivered": the decision id is authoritative, QueuedActions lists only the
// intents that were actually queued.
type DecisionResult struct {
	DecisionID    int            `json:"decision_id"`
	Status        string         `json:"manuscript_status"`
	QueuedActions []string       `json:"queued_actions"`
	FailedActions []IntentResult `json:"failed_actions,omitempty"`
}

// DecisionService validates, persists and executes editorial decisions.
type DecisionService struct {
	db       *gorm.DB
	workflow *WorkflowService
	dispatch Dispatcher
}

// NewDecisionService constructs a DecisionService.
func NewDecisionService(db *gorm.DB, dispatch Dispatcher) *DecisionService {
	if db == nil {
		db = config.DB
	}
	if dispatch == nil {
		dispatch = NewNotificationDispatcher(db)
	}
	return &DecisionService{
		db:       db,
		workflow: NewWorkflowService(db),
		dispatch: dispatch,
	}
}

// decisionTargetStatus maps a final decision to the manuscript status it
// produces.
func decisionTargetStatus(decision string) string {
	switch decision {
	case models.DecisionAccepted:
		return models.StatusAccepted
	case models.DecisionRejected:
		return models.StatusRejected
	default:
		return models.StatusRevisionsRequested
	}
}

// ProcessDecision validates and persists a decision. Drafts may be partial;
// a final decision transitions the manuscript and queues the requested side
// effects, each individually failable.
func (s *DecisionService) ProcessDecision(actor Actor, input DecisionInput) (*DecisionResult, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	if !models.ValidDecision(input.Decision) {
		return nil, validationError("invalid decision %q", input.Decision)
	}
	if !input.IsDraft && strings.TrimSpace(input.Components.AuthorLetter) == "" {
		return nil, validationError("a final decision requires an author letter")
	}

	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", input.ManuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", input.ManuscriptID)
		}
		return nil, err
	}

	decision := models.EditorialDecision{
		ManuscriptID:    input.ManuscriptID,
		EditorID:        actor.UserID,
		Decision:        input.Decision,
		Components:      datatypes.NewJSONType(input.Components),
		Actions:         datatypes.NewJSONType(input.Actions),
		TemplateID:      input.TemplateID,
		TemplateVersion: input.TemplateVersion,
		IsDraft:         input.IsDraft,
		CreatedAt:       time.Now(),
	}

	if input.IsDraft {
		if err := s.db.Create(&decision).Error; err != nil {
			return nil, err
		}
		return &DecisionResult{DecisionID: decision.DecisionID, Status: manuscript.Status}, nil
	}

	return s.finalize(actor, &manuscript, &decision)
}

// SubmitFinalDecision promotes exactly one draft to final, re-running the
// same validation and side-effect rules as a direct final submission.
func (s *DecisionService) SubmitFinalDecision(actor Actor, draftID int) (*DecisionResult, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}

	var draft models.EditorialDecision
	query := s.db.Where("decision_id = ? AND is_draft = ?", draftID, true)
	if !actor.IsAdmin() {
		query = query.Where("editor_id = ?", actor.UserID)
	}
	if err := query.First(&draft).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("draft decision %d not found", draftID)
		}
		return nil, err
	}

	components := draft.Components.Data()
	if strings.TrimSpace(components.AuthorLetter) == "" {
		return nil, validationError("a final decision requires an author letter")
	}

	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", draft.ManuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", draft.ManuscriptID)
		}
		return nil, err
	}

	return s.finalize(actor, &manuscript, &draft)
}

// finalize applies the status transition and records the decision in one
// transaction, then dispatches side effects best-effort after commit.
func (s *DecisionService) finalize(actor Actor, manuscript *models.Manuscript, decision *models.EditorialDecision) (*DecisionResult, error) {
	// Status guard: decisions are only processed while the manuscript is with
	// the editor, or still under review when the editor forces a decision
	// with partial reviews.
	if manuscript.IsTerminal() {
		return nil, invalidTransitionError("manuscript %s is closed to further decisions", manuscript.SubmissionNumber)
	}
	if manuscript.Status != models.StatusWithEditor && manuscript.Status != models.StatusUnderReview {
		return nil, invalidTransitionError("manuscript in status %s is not decision-eligible", manuscript.Status)
	}

	target := decisionTargetStatus(decision.Decision)
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.workflow.ApplyTransition(tx, manuscript, target, actor, "editorial decision: "+decision.Decision); err != nil {
			return err
		}

		if decision.DecisionID == 0 {
			decision.IsDraft = false
			decision.FinalizedAt = &now
			if err := tx.Create(decision).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Model(&models.EditorialDecision{}).
				Where("decision_id = ?", decision.DecisionID).
				Updates(map[string]interface{}{
					"is_draft":     false,
					"finalized_at": now,
					"updated_at":   now,
				}).Error; err != nil {
				return err
			}
			decision.IsDraft = false
			decision.FinalizedAt = &now
		}

		details := fmt.Sprintf("decision=%s;decision_id=%d", decision.Decision, decision.DecisionID)
		return logActivity(tx, actor.UserID, "decision_finalized", details, &manuscript.ManuscriptID)
	})
	if err != nil {
		return nil, err
	}

	intents := s.buildIntents(manuscript, decision)
	results := s.dispatch.Dispatch(intents)

	result := &DecisionResult{
		DecisionID: decision.DecisionID,
		Status:     manuscript.Status,
	}
	for _, r := range results {
		if r.Queued {
			result.QueuedActions = append(result.QueuedActions, r.Type)
		} else {
			result.FailedActions = append(result.FailedActions, r)
		}
	}
	return result, nil
}

// buildIntents expands the decision's requested actions into typed intents.
func (s *DecisionService) buildIntents(manuscript *models.Manuscript, decision *models.EditorialDecision) []Intent {
	actions := decision.Actions.Data()
	components := decision.Components.Data()
	var intents []Intent

	if actions.NotifyAuthor {
		intents = append(intents, Intent{
			Type:         IntentNotifyAuthor,
			UserID:       manuscript.AuthorID,
			ManuscriptID: manuscript.ManuscriptID,
			Title:        fmt.Sprintf("Decision on manuscript %s", manuscript.SubmissionNumber),
			Message:      components.AuthorLetter,
			Email:        s.emailFor(manuscript.AuthorID),
		})
	}

	if actions.NotifyReviewers {
		for _, reviewerID := range s.completedReviewerIDs(manuscript.ManuscriptID) {
			intents = append(intents, Intent{
				Type:         IntentNotifyReviewer,
				UserID:       reviewerID,
				ManuscriptID: manuscript.ManuscriptID,
				Title:        fmt.Sprintf("Outcome of manuscript %s", manuscript.SubmissionNumber),
				Message:      fmt.Sprintf("The editorial decision for a manuscript you reviewed is: %s. Thank you for your contribution.", decision.Decision),
				Email:        s.emailFor(reviewerID),
			})
		}
	}

	if actions.SchedulePublication {
		intents = append(intents, Intent{
			Type:         IntentSchedulePublication,
			UserID:       decision.EditorID,
			ManuscriptID: manuscript.ManuscriptID,
			Message:      "publication scheduling requested",
		})
	}
	if actions.AssignProductionEditor {
		intents = append(intents, Intent{
			Type:         IntentAssignProductionEditor,
			UserID:       decision.EditorID,
			ManuscriptID: manuscript.ManuscriptID,
			Message:      "production editor assignment requested",
		})
	}
	if actions.GenerateDOI {
		intents = append(intents, Intent{
			Type:         IntentGenerateDOI,
			UserID:       decision.EditorID,
			ManuscriptID: manuscript.ManuscriptID,
			Message:      "DOI generation requested",
		})
	}
	if actions.SendToProduction {
		intents = append(intents, Intent{
			Type:         IntentSendToProduction,
			UserID:       decision.EditorID,
			ManuscriptID: manuscript.ManuscriptID,
			Message:      "send to production requested",
		})
	}
	if actions.FollowUpDate != nil {
		intents = append(intents, Intent{
			Type:         IntentScheduleFollowUp,
			UserID:       decision.EditorID,
			ManuscriptID: manuscript.ManuscriptID,
			Message:      "follow up on " + actions.FollowUpDate.Format("2006-01-02"),
		})
	}

	return intents
}

func (s *DecisionService) completedReviewerIDs(manuscriptID int) []int {
	var ids []int
	s.db.Model(&models.ReviewAssignment{}).
		Where("manuscript_id = ? AND status = ?", manuscriptID, models.AssignmentCompleted).
		Pluck("reviewer_id", &ids)
	return ids
}

func (s *DecisionService) emailFor(userID int) string {
	var user models.User
	if err := s.db.Select("email").Where("user_id = ?", userID).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}

// DecisionHistory returns final decisions for a manuscript, newest first.
func (s *DecisionService) DecisionHistory(actor Actor, manuscriptID int) ([]models.EditorialDecision, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	var rows []models.EditorialDecision
	if err := s.db.Where("manuscript_id = ? AND is_draft = ?", manuscriptID, false).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DraftDecisions returns drafts for a manuscript scoped to the calling
// editor; admins see every editor's drafts.
func (s *DecisionService) DraftDecisions(actor Actor, manuscriptID int) ([]models.EditorialDecision, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	query := s.db.Where("manuscript_id = ? AND is_draft = ?", manuscriptID, true)
	if !actor.IsAdmin() {
		query = query.Where("editor_id = ?", actor.UserID)
	}
	var rows []models.EditorialDecision
	if err := query.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
