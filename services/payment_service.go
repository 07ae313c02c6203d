package services

import (
	"errors"
	"os"
	"strconv"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentService gates manuscript submission on the article processing
// charge. The processor itself is external; this service owns the records
// and the draft -> submitted transition its webhook triggers.
type PaymentService struct {
	db       *gorm.DB
	workflow *WorkflowService
	dispatch Dispatcher
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, dispatch Dispatcher) *PaymentService {
	if db == nil {
		db = config.DB
	}
	if dispatch == nil {
		dispatch = NewNotificationDispatcher(db)
	}
	return &PaymentService{
		db:       db,
		workflow: NewWorkflowService(db),
		dispatch: dispatch,
	}
}

func apcAmount() float64 {
	if raw := os.Getenv("APC_AMOUNT"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			return parsed
		}
	}
	return 1500
}

func apcCurrency() string {
	if c := os.Getenv("APC_CURRENCY"); c != "" {
		return c
	}
	return "USD"
}

// CreateCharge opens a pending charge for a draft manuscript. The returned
// reference is what the processor echoes back on its success webhook.
func (s *PaymentService) CreateCharge(actor Actor, manuscriptID int) (*models.PaymentRecord, error) {
	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", manuscriptID)
		}
		return nil, err
	}
	if manuscript.AuthorID != actor.UserID && !actor.IsAdmin() {
		return nil, forbiddenError("only the submitting author may pay the processing charge")
	}
	if manuscript.Status != models.StatusDraft {
		return nil, invalidTransitionError("manuscript in status %s has no pending charge", manuscript.Status)
	}
	if manuscript.MainFilePath == nil {
		return nil, validationError("upload the main manuscript file before paying the processing charge")
	}

	// Reuse an open charge rather than stacking pending records.
	var existing models.PaymentRecord
	err := s.db.Where("manuscript_id = ? AND status = ?", manuscriptID, models.PaymentPending).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := models.PaymentRecord{
		ManuscriptID: manuscriptID,
		Reference:    uuid.NewString(),
		Amount:       apcAmount(),
		Currency:     apcCurrency(),
		Status:       models.PaymentPending,
		CreatedAt:    time.Now(),
	}
	if err := s.db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ConfirmPayment handles "payment confirmed for manuscript X" from the
// processor webhook: it marks the charge confirmed and submits the
// manuscript. Re-delivery of a confirmed reference is a no-op success.
func (s *PaymentService) ConfirmPayment(reference string) (*models.Manuscript, error) {
	var manuscript models.Manuscript
	alreadyConfirmed := false

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var record models.PaymentRecord
		if err := tx.Where("reference = ?", reference).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("payment reference %s not found", reference)
			}
			return err
		}

		if err := tx.Where("manuscript_id = ?", record.ManuscriptID).First(&manuscript).Error; err != nil {
			return err
		}

		// Webhooks retry; a second delivery of the same confirmation succeeds
		// without repeating the transition.
		if record.Status == models.PaymentConfirmed {
			alreadyConfirmed = true
			return nil
		}

		if manuscript.MainFilePath == nil {
			return validationError("manuscript %d has no main file; cannot submit", manuscript.ManuscriptID)
		}

		now := time.Now()
		res := tx.Model(&models.PaymentRecord{}).
			Where("payment_id = ? AND status = ?", record.PaymentID, models.PaymentPending).
			Updates(map[string]interface{}{
				"status":       models.PaymentConfirmed,
				"confirmed_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// A concurrent delivery confirmed the charge between our read and
			// the update. Its transaction owns the transition.
			alreadyConfirmed = true
			return nil
		}
		actor := Actor{UserID: manuscript.AuthorID, RoleID: models.RoleAuthor}
		return s.workflow.ApplyTransition(tx, &manuscript, models.StatusSubmitted, actor, "processing charge confirmed")
	})
	if err != nil {
		return nil, err
	}

	if alreadyConfirmed {
		// Return the post-transition state written by the delivery that won.
		if err := s.db.Where("manuscript_id = ?", manuscript.ManuscriptID).First(&manuscript).Error; err != nil {
			return nil, err
		}
		return &manuscript, nil
	}

	s.dispatch.Dispatch([]Intent{{
		Type:         IntentNotifyAuthor,
		UserID:       manuscript.AuthorID,
		ManuscriptID: manuscript.ManuscriptID,
		Title:        "Manuscript submitted",
		Message:      "Your processing charge was received and manuscript " + manuscript.SubmissionNumber + " has entered the editorial queue.",
	}})

	return &manuscript, nil
}
