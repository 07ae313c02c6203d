package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// AssignmentGraceDays is how far past the due date an unanswered invitation
// survives before the expiry sweep closes it.
func AssignmentGraceDays() int {
	if raw := os.Getenv("ASSIGNMENT_GRACE_DAYS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return 7
}

// RemindOutcome is the per-assignment result of a bulk reminder.
type RemindOutcome struct {
	AssignmentID int    `json:"assignment_id"`
	Status       string `json:"status"` // sent|skipped|failed
	Reason       string `json:"reason,omitempty"`
}

// AssignmentService manages reviewer invitations and their lifecycle.
type AssignmentService struct {
	db       *gorm.DB
	workload *WorkloadService
	workflow *WorkflowService
	dispatch Dispatcher
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(db *gorm.DB, dispatch Dispatcher) *AssignmentService {
	if db == nil {
		db = config.DB
	}
	if dispatch == nil {
		dispatch = NewNotificationDispatcher(db)
	}
	return &AssignmentService{
		db:       db,
		workload: NewWorkloadService(db),
		workflow: NewWorkflowService(db),
		dispatch: dispatch,
	}
}

// InviteReviewer creates an invitation for a reviewer. It fails with
// CapacityExceeded when the reviewer is not available and with
// DuplicateAssignment when an active assignment already exists for the pair;
// the unique index on (manuscript, reviewer, active_flag) settles races.
func (s *AssignmentService) InviteReviewer(actor Actor, manuscriptID, reviewerID int, dueDate *time.Time) (*models.ReviewAssignment, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}

	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", manuscriptID)
		}
		return nil, err
	}
	if manuscript.Status != models.StatusWithEditor && manuscript.Status != models.StatusUnderReview {
		return nil, invalidTransitionError("manuscript in status %s cannot receive reviewer invitations", manuscript.Status)
	}
	if manuscript.AuthorID == reviewerID {
		return nil, validationError("authors cannot review their own manuscript")
	}

	var reviewer models.User
	if err := s.db.Where("user_id = ? AND delete_at IS NULL", reviewerID).First(&reviewer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("reviewer %d not found", reviewerID)
		}
		return nil, err
	}

	availability, err := s.workload.IsAvailable(reviewerID)
	if err != nil {
		return nil, err
	}
	if !availability.Available {
		reason := availability.Reason
		if reason == "" {
			reason = "reviewer is not available"
		}
		return nil, newError(CodeCapacityExceeded, "%s", reason)
	}

	profile, err := s.workload.Profile(reviewerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	due := s.resolveDueDate(profile, now, dueDate)
	if !due.After(now) {
		return nil, validationError("due date must be in the future")
	}

	active := 1
	assignment := models.ReviewAssignment{
		ManuscriptID: manuscriptID,
		ReviewerID:   reviewerID,
		AssignedBy:   actor.UserID,
		Status:       models.AssignmentInvited,
		ActiveFlag:   &active,
		InvitedAt:    now,
		DueDate:      due,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.ReviewAssignment{}).
			Where("manuscript_id = ? AND reviewer_id = ? AND status IN ?",
				manuscriptID, reviewerID, models.ActiveAssignmentStatuses).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return newError(CodeDuplicateAssignment, "reviewer %d already has an active assignment for manuscript %d", reviewerID, manuscriptID)
		}
		if err := tx.Create(&assignment).Error; err != nil {
			if isDuplicateKey(err) {
				return newError(CodeDuplicateAssignment, "reviewer %d already has an active assignment for manuscript %d", reviewerID, manuscriptID)
			}
			return err
		}
		details := fmt.Sprintf("reviewer=%d;due=%s", reviewerID, due.Format("2006-01-02"))
		return logActivity(tx, actor.UserID, "reviewer_invited", details, &manuscriptID)
	})
	if err != nil {
		return nil, err
	}

	s.dispatch.Dispatch([]Intent{{
		Type:         IntentReviewInvitation,
		UserID:       reviewerID,
		ManuscriptID: manuscriptID,
		Title:        "Review invitation: " + manuscript.Title,
		Message: fmt.Sprintf("Dear %s, you have been invited to review manuscript %s. The review is due on %s.",
			reviewer.FullName(), manuscript.SubmissionNumber, due.Format("2 January 2006")),
		Email: reviewer.Email,
	}})

	return &assignment, nil
}

func (s *AssignmentService) resolveDueDate(profile *models.ReviewerProfile, invitedAt time.Time, override *time.Time) time.Time {
	if override != nil {
		return *override
	}
	days := profile.PreferredTurnaroundDays
	if days <= 0 {
		days = DefaultTurnaroundDays()
	}
	return invitedAt.AddDate(0, 0, days)
}

// Respond records the invited reviewer's accept or decline. The first
// acceptance on a with_editor manuscript moves it to under_review.
func (s *AssignmentService) Respond(actor Actor, assignmentID int, accept bool, reason *string) (*models.ReviewAssignment, error) {
	if !accept && reason == nil {
		return nil, validationError("declining requires a reason field")
	}

	var assignment models.ReviewAssignment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("assignment %d not found", assignmentID)
			}
			return err
		}
		if assignment.ReviewerID != actor.UserID {
			return forbiddenError("only the invited reviewer may respond")
		}
		if assignment.Status != models.AssignmentInvited {
			return invalidTransitionError("assignment is %s, not awaiting a response", assignment.Status)
		}

		now := time.Now()
		updates := map[string]interface{}{"responded_at": now}
		if accept {
			updates["status"] = models.AssignmentAccepted
			assignment.Status = models.AssignmentAccepted
		} else {
			updates["status"] = models.AssignmentDeclined
			updates["active_flag"] = nil
			updates["decline_reason"] = *reason
			assignment.Status = models.AssignmentDeclined
			assignment.ActiveFlag = nil
			assignment.DeclineReason = reason
		}
		assignment.RespondedAt = &now

		if err := tx.Model(&models.ReviewAssignment{}).
			Where("assignment_id = ?", assignmentID).
			Updates(updates).Error; err != nil {
			return err
		}

		action := "assignment_declined"
		if accept {
			action = "assignment_accepted"
		}
		if err := logActivity(tx, actor.UserID, action, fmt.Sprintf("assignment=%d", assignmentID), &assignment.ManuscriptID); err != nil {
			return err
		}

		if accept {
			var manuscript models.Manuscript
			if err := tx.Where("manuscript_id = ?", assignment.ManuscriptID).First(&manuscript).Error; err != nil {
				return err
			}
			if manuscript.Status == models.StatusWithEditor {
				return s.workflow.ApplyTransition(tx, &manuscript, models.StatusUnderReview, actor, "first reviewer accepted")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

// Remind sends a bulk reminder. Assignments outside invited/accepted are
// silently skipped and reported as such; one bad id never fails the batch.
func (s *AssignmentService) Remind(actor Actor, assignmentIDs []int, subject, message string) ([]RemindOutcome, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(subject) == "" {
		return nil, validationError("reminder subject is required")
	}

	outcomes := make([]RemindOutcome, 0, len(assignmentIDs))
	for _, id := range assignmentIDs {
		outcomes = append(outcomes, s.remindOne(actor, id, subject, message))
	}
	return outcomes, nil
}

func (s *AssignmentService) remindOne(actor Actor, assignmentID int, subject, message string) RemindOutcome {
	var assignment models.ReviewAssignment
	if err := s.db.Where("assignment_id = ?", assignmentID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RemindOutcome{AssignmentID: assignmentID, Status: "skipped", Reason: "not found"}
		}
		return RemindOutcome{AssignmentID: assignmentID, Status: "failed", Reason: err.Error()}
	}

	if assignment.Status != models.AssignmentInvited && assignment.Status != models.AssignmentAccepted {
		return RemindOutcome{AssignmentID: assignmentID, Status: "skipped", Reason: "status " + assignment.Status}
	}

	now := time.Now()
	if err := s.db.Model(&models.ReviewAssignment{}).
		Where("assignment_id = ?", assignmentID).
		Updates(map[string]interface{}{
			"reminder_count":   gorm.Expr("reminder_count + 1"),
			"last_reminder_at": now,
		}).Error; err != nil {
		return RemindOutcome{AssignmentID: assignmentID, Status: "failed", Reason: err.Error()}
	}

	s.dispatch.Dispatch([]Intent{{
		Type:         IntentReviewReminder,
		UserID:       assignment.ReviewerID,
		ManuscriptID: assignment.ManuscriptID,
		Title:        subject,
		Message:      message,
		Email:        s.emailFor(assignment.ReviewerID),
	}})

	return RemindOutcome{AssignmentID: assignmentID, Status: "sent"}
}

// CountOverdue reports how many unanswered invitations the next sweep would
// expire, without touching them.
func (s *AssignmentService) CountOverdue(now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -AssignmentGraceDays())
	var count int64
	err := s.db.Model(&models.ReviewAssignment{}).
		Where("status = ? AND due_date < ?", models.AssignmentInvited, cutoff).
		Count(&count).Error
	return int(count), err
}

// ExpireOverdue closes unanswered invitations whose due date passed by more
// than the grace window. Accepted or in-progress assignments are left for the
// editor to chase; expiry only reclaims capacity held by silence.
func (s *AssignmentService) ExpireOverdue(now time.Time) (int, error) {
	cutoff := now.AddDate(0, 0, -AssignmentGraceDays())

	result := s.db.Model(&models.ReviewAssignment{}).
		Where("status = ? AND due_date < ?", models.AssignmentInvited, cutoff).
		Updates(map[string]interface{}{
			"status":      models.AssignmentExpired,
			"active_flag": nil,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// markCompleted closes an assignment after its review is submitted. Runs in
// the caller's transaction.
func markCompleted(tx *gorm.DB, assignment *models.ReviewAssignment, completedAt time.Time) error {
	if err := tx.Model(&models.ReviewAssignment{}).
		Where("assignment_id = ?", assignment.AssignmentID).
		Updates(map[string]interface{}{
			"status":       models.AssignmentCompleted,
			"active_flag":  nil,
			"completed_at": completedAt,
		}).Error; err != nil {
		return err
	}
	assignment.Status = models.AssignmentCompleted
	assignment.ActiveFlag = nil
	assignment.CompletedAt = &completedAt
	return nil
}

// ForManuscript lists assignments for an editor's manuscript view.
func (s *AssignmentService) ForManuscript(actor Actor, manuscriptID int) ([]models.ReviewAssignment, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}
	var rows []models.ReviewAssignment
	if err := s.db.Preload("Reviewer").
		Where("manuscript_id = ?", manuscriptID).
		Order("invited_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ForReviewer lists the reviewer's own assignments.
func (s *AssignmentService) ForReviewer(actor Actor, reviewerID int) ([]models.ReviewAssignment, error) {
	if actor.UserID != reviewerID && !actor.IsEditorial() {
		return nil, forbiddenError("reviewers may only list their own assignments")
	}
	var rows []models.ReviewAssignment
	if err := s.db.Preload("Manuscript").
		Where("reviewer_id = ?", reviewerID).
		Order("invited_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AssignmentService) emailFor(userID int) string {
	var user models.User
	if err := s.db.Select("email").Where("user_id = ?", userID).First(&user).Error; err != nil {
		return ""
	}
	return user.Email
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}
