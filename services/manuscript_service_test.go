package services

import (
	"fmt"
	"testing"
	"time"

	"journal-management-api/models"
)

func TestCreateDraftGeneratesSequentialNumbers(t *testing.T) {
	db := newTestDB(t)
	service := NewManuscriptService(db)

	author := seedUser(t, db, models.RoleAuthor)
	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}

	first, err := service.CreateDraft(actor, ManuscriptInput{Title: "First", Abstract: "A."})
	if err != nil {
		t.Fatalf("draft creation failed: %v", err)
	}
	second, err := service.CreateDraft(actor, ManuscriptInput{Title: "Second", Abstract: "B."})
	if err != nil {
		t.Fatalf("draft creation failed: %v", err)
	}

	year := time.Now().Year()
	if first.SubmissionNumber != fmt.Sprintf("MS-%d-0001", year) {
		t.Fatalf("unexpected first number %s", first.SubmissionNumber)
	}
	if second.SubmissionNumber != fmt.Sprintf("MS-%d-0002", year) {
		t.Fatalf("unexpected second number %s", second.SubmissionNumber)
	}
	if first.Status != models.StatusDraft {
		t.Fatalf("new manuscript should start in draft, got %s", first.Status)
	}

	_, err = service.CreateDraft(actor, ManuscriptInput{Title: "  ", Abstract: "C."})
	assertCode(t, err, CodeValidation)
}

func TestUpdateDraftOnlyWhileEditable(t *testing.T) {
	db := newTestDB(t)
	service := NewManuscriptService(db)

	author := seedUser(t, db, models.RoleAuthor)
	other := seedUser(t, db, models.RoleAuthor)
	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}

	draft, err := service.CreateDraft(actor, ManuscriptInput{Title: "Original", Abstract: "A."})
	if err != nil {
		t.Fatalf("draft creation failed: %v", err)
	}

	updated, err := service.UpdateDraft(actor, draft.ManuscriptID, ManuscriptInput{Title: "Revised title"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "Revised title" || updated.Abstract != "A." {
		t.Fatalf("partial update wrong: %+v", updated)
	}

	_, err = service.UpdateDraft(Actor{UserID: other.UserID, RoleID: models.RoleAuthor}, draft.ManuscriptID, ManuscriptInput{Title: "Hijack"})
	assertCode(t, err, CodeForbidden)

	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", draft.ManuscriptID).
		Update("status", models.StatusUnderReview).Error; err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	_, err = service.UpdateDraft(actor, draft.ManuscriptID, ManuscriptInput{Title: "Too late"})
	assertCode(t, err, CodeInvalidTransition)
}

func TestGetVisibility(t *testing.T) {
	db := newTestDB(t)
	service := NewManuscriptService(db)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	reviewer := seedUser(t, db, models.RoleReviewer)
	stranger := seedUser(t, db, models.RoleReviewer)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusUnderReview)
	seedAssignment(t, db, manuscript.ManuscriptID, reviewer.UserID, editor.UserID, models.AssignmentAccepted)

	if _, err := service.Get(Actor{UserID: author.UserID, RoleID: models.RoleAuthor}, manuscript.ManuscriptID); err != nil {
		t.Fatalf("author should see own manuscript: %v", err)
	}
	if _, err := service.Get(Actor{UserID: editor.UserID, RoleID: models.RoleEditor}, manuscript.ManuscriptID); err != nil {
		t.Fatalf("editor should see manuscript: %v", err)
	}
	if _, err := service.Get(Actor{UserID: reviewer.UserID, RoleID: models.RoleReviewer}, manuscript.ManuscriptID); err != nil {
		t.Fatalf("assigned reviewer should see manuscript: %v", err)
	}

	// Unrelated users get not_found, not forbidden, to avoid leaking existence.
	_, err := service.Get(Actor{UserID: stranger.UserID, RoleID: models.RoleReviewer}, manuscript.ManuscriptID)
	assertCode(t, err, CodeNotFound)
}

func TestEditorQueueScopingAndUrgency(t *testing.T) {
	db := newTestDB(t)
	service := NewManuscriptService(db)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	colleague := seedUser(t, db, models.RoleEditor)
	admin := seedUser(t, db, models.RoleAdmin)

	unassigned := seedManuscript(t, db, author.UserID, models.StatusSubmitted)
	mine := seedManuscript(t, db, author.UserID, models.StatusWithEditor)
	assignEditorTo(t, db, mine.ManuscriptID, editor.UserID)
	theirs := seedManuscript(t, db, author.UserID, models.StatusUnderReview)
	assignEditorTo(t, db, theirs.ManuscriptID, colleague.UserID)
	seedManuscript(t, db, author.UserID, models.StatusPublished)

	// Age the unassigned submission past the urgency threshold.
	submitted := time.Now().AddDate(0, 0, -4)
	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", unassigned.ManuscriptID).
		Update("submitted_at", submitted).Error; err != nil {
		t.Fatalf("backdating failed: %v", err)
	}

	entries, err := service.EditorQueue(Actor{UserID: editor.UserID, RoleID: models.RoleEditor}, time.Now())
	if err != nil {
		t.Fatalf("queue read failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("editor should see unassigned plus own, got %d entries", len(entries))
	}

	var flagged *QueueEntry
	for i := range entries {
		if entries[i].Manuscript.ManuscriptID == unassigned.ManuscriptID {
			flagged = &entries[i]
		}
		if entries[i].Manuscript.ManuscriptID == theirs.ManuscriptID {
			t.Fatalf("editor must not see a colleague's manuscript")
		}
	}
	if flagged == nil {
		t.Fatalf("unassigned manuscript missing from queue")
	}
	if flagged.Urgency == nil || flagged.Urgency.Level != UrgencyHigh || flagged.Urgency.Note != "Needs assignment" {
		t.Fatalf("4-day-old submission should be high urgency, got %+v", flagged.Urgency)
	}

	// Admins see every pending manuscript; published ones never appear.
	entries, err = service.EditorQueue(Actor{UserID: admin.UserID, RoleID: models.RoleAdmin}, time.Now())
	if err != nil {
		t.Fatalf("admin queue read failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("admin should see all 3 pending manuscripts, got %d", len(entries))
	}

	_, err = service.EditorQueue(Actor{UserID: author.UserID, RoleID: models.RoleAuthor}, time.Now())
	assertCode(t, err, CodeForbidden)
}

func TestActivityTrail(t *testing.T) {
	db := newTestDB(t)
	service := NewManuscriptService(db)

	author := seedUser(t, db, models.RoleAuthor)
	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}

	draft, err := service.CreateDraft(actor, ManuscriptInput{Title: "Audited", Abstract: "A."})
	if err != nil {
		t.Fatalf("draft creation failed: %v", err)
	}
	if err := service.AttachMainFile(actor, draft.ManuscriptID, "uploads/manuscripts/audited.pdf"); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	trail, err := service.ActivityTrail(actor, draft.ManuscriptID)
	if err != nil {
		t.Fatalf("trail read failed: %v", err)
	}
	if len(trail) == 0 || trail[len(trail)-1].Action != "manuscript_created" {
		t.Fatalf("creation should be audited, got %+v", trail)
	}
}
