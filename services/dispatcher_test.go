package services

import (
	"testing"

	"journal-management-api/models"
)

func TestNotificationDispatcherWritesNotificationRows(t *testing.T) {
	db := newTestDB(t)
	dispatcher := NewNotificationDispatcher(db)

	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusWithEditor)

	results := dispatcher.Dispatch([]Intent{
		{
			Type:         IntentNotifyAuthor,
			UserID:       author.UserID,
			ManuscriptID: manuscript.ManuscriptID,
			Title:        "Decision on your manuscript",
			Message:      "Your manuscript has been accepted.",
		},
		{
			Type:         IntentUrgentFlag,
			UserID:       author.UserID,
			ManuscriptID: manuscript.ManuscriptID,
			Title:        "Review flagged",
			Message:      "A review needs attention.",
		},
	})

	for _, r := range results {
		if !r.Queued {
			t.Fatalf("intent %s should queue, got %+v", r.Type, r)
		}
	}

	var rows []models.Notification
	if err := db.Where("user_id = ?", author.UserID).Order("notification_id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("notification read failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 notification rows, got %d", len(rows))
	}
	if rows[0].Type != "info" || rows[1].Type != "urgent" {
		t.Fatalf("notification types wrong: %s %s", rows[0].Type, rows[1].Type)
	}
	if rows[0].RelatedManuscriptID == nil || int(*rows[0].RelatedManuscriptID) != manuscript.ManuscriptID {
		t.Fatalf("notification should link the manuscript: %+v", rows[0])
	}
	if rows[0].IsRead {
		t.Fatalf("new notifications start unread")
	}
}

func TestNotificationDispatcherLogsProductionIntents(t *testing.T) {
	db := newTestDB(t)
	dispatcher := NewNotificationDispatcher(db)

	editor := seedUser(t, db, models.RoleEditor)
	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusAccepted)

	results := dispatcher.Dispatch([]Intent{{
		Type:         IntentGenerateDOI,
		UserID:       editor.UserID,
		ManuscriptID: manuscript.ManuscriptID,
		Message:      "DOI generation requested",
	}})
	if len(results) != 1 || !results[0].Queued {
		t.Fatalf("production intent should queue, got %+v", results)
	}

	var entry models.ActivityLog
	if err := db.Where("action = ?", "intent_"+IntentGenerateDOI).First(&entry).Error; err != nil {
		t.Fatalf("production intent should land in the audit log: %v", err)
	}
	if entry.ManuscriptID == nil || *entry.ManuscriptID != manuscript.ManuscriptID {
		t.Fatalf("audit row should link the manuscript: %+v", entry)
	}
}
