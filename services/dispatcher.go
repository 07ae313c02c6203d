package services

import (
	"log"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

// Intent types emitted by the workflow engine. The dispatcher decides how
// each one is delivered; the engine only states what should happen.
const (
	IntentNotifyAuthor           = "notify_author"
	IntentNotifyReviewer         = "notify_reviewer"
	IntentReviewInvitation       = "review_invitation"
	IntentReviewReminder         = "review_reminder"
	IntentSchedulePublication    = "schedule_publication"
	IntentAssignProductionEditor = "assign_production_editor"
	IntentGenerateDOI            = "generate_doi"
	IntentSendToProduction       = "send_to_production"
	IntentScheduleFollowUp       = "schedule_follow_up"
	IntentUrgentFlag             = "urgent_flag"
)

// Intent is one requested side effect. Intents are individually failable:
// the operation that emitted them has already committed.
type Intent struct {
	Type         string
	UserID       int
	ManuscriptID int
	Title        string
	Message      string
	Email        string
	Data         map[string]string
}

// IntentResult reports whether a single intent was queued.
type IntentResult struct {
	Type   string `json:"type"`
	Queued bool   `json:"queued"`
	Error  string `json:"error,omitempty"`
}

// Dispatcher consumes intents emitted by the engine. Implementations must
// never panic and must swallow delivery failures into the result list.
type Dispatcher interface {
	Dispatch(intents []Intent) []IntentResult
}

// NotificationDispatcher is the default Dispatcher. Notification intents
// become rows in the notifications table plus a best-effort email; production
// and scheduling intents are logged for the production tooling to pick up.
type NotificationDispatcher struct {
	db *gorm.DB
}

// NewNotificationDispatcher constructs the default dispatcher.
func NewNotificationDispatcher(db *gorm.DB) *NotificationDispatcher {
	if db == nil {
		db = config.DB
	}
	return &NotificationDispatcher{db: db}
}

// Dispatch delivers each intent independently and reports per-intent results.
// A failed intent is logged and marked unqueued; it never aborts the batch.
func (d *NotificationDispatcher) Dispatch(intents []Intent) []IntentResult {
	results := make([]IntentResult, 0, len(intents))
	for _, intent := range intents {
		err := d.dispatchOne(intent)
		result := IntentResult{Type: intent.Type, Queued: err == nil}
		if err != nil {
			result.Error = err.Error()
			log.Printf("dispatch %s for manuscript %d failed: %v", intent.Type, intent.ManuscriptID, err)
		}
		results = append(results, result)
	}
	return results
}

func (d *NotificationDispatcher) dispatchOne(intent Intent) error {
	switch intent.Type {
	case IntentNotifyAuthor, IntentNotifyReviewer, IntentReviewInvitation, IntentReviewReminder, IntentUrgentFlag:
		return d.notify(intent)
	default:
		// Production-side intents have no in-process consumer yet; the audit
		// row is the handoff point for the production tooling.
		entry := models.ActivityLog{
			UserID:       intent.UserID,
			Action:       "intent_" + intent.Type,
			Details:      intent.Message,
			ManuscriptID: intPtrOrNil(intent.ManuscriptID),
			CreatedAt:    time.Now(),
		}
		return d.db.Create(&entry).Error
	}
}

func (d *NotificationDispatcher) notify(intent Intent) error {
	notifType := "info"
	if intent.Type == IntentUrgentFlag {
		notifType = "urgent"
	}
	notification := models.Notification{
		UserID:   uint(intent.UserID),
		Title:    intent.Title,
		Message:  intent.Message,
		Type:     notifType,
		CreateAt: time.Now(),
	}
	if intent.ManuscriptID > 0 {
		id := uint(intent.ManuscriptID)
		notification.RelatedManuscriptID = &id
	}
	if err := d.db.Create(&notification).Error; err != nil {
		return err
	}
	if intent.Email != "" {
		sendMailSafe([]string{intent.Email}, intent.Title, intent.Message)
	}
	return nil
}

// sendMailSafe delivers email without letting SMTP failures reach the caller.
func sendMailSafe(to []string, subject, body string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("mail delivery panic: %v", r)
			}
		}()
		if err := config.SendMail(to, subject, body); err != nil {
			log.Printf("mail delivery to %v failed: %v", to, err)
		}
	}()
}

func intPtrOrNil(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
