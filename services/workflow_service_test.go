package services

import (
	"testing"

	"journal-management-api/models"
)

func TestCanTransition(t *testing.T) {
	db := newTestDB(t)
	service := NewWorkflowService(db)

	allowed := [][2]string{
		{models.StatusDraft, models.StatusSubmitted},
		{models.StatusSubmitted, models.StatusWithEditor},
		{models.StatusWithEditor, models.StatusUnderReview},
		{models.StatusWithEditor, models.StatusRejected},
		{models.StatusUnderReview, models.StatusRevisionsRequested},
		{models.StatusUnderReview, models.StatusAccepted},
		{models.StatusRevisionsRequested, models.StatusUnderReview},
		{models.StatusAccepted, models.StatusPublished},
	}
	for _, pair := range allowed {
		if !service.CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{models.StatusDraft, models.StatusUnderReview},
		{models.StatusSubmitted, models.StatusAccepted},
		{models.StatusRevisionsRequested, models.StatusAccepted},
		{models.StatusRejected, models.StatusSubmitted},
		{models.StatusPublished, models.StatusWithEditor},
		{models.StatusAccepted, models.StatusRejected},
	}
	for _, pair := range denied {
		if service.CanTransition(pair[0], pair[1]) {
			t.Fatalf("%s -> %s should be denied", pair[0], pair[1])
		}
	}
}

func TestApplyTransitionRecordsHistory(t *testing.T) {
	db := newTestDB(t)
	service := NewWorkflowService(db)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusSubmitted)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	if err := service.ApplyTransition(db, &manuscript, models.StatusWithEditor, actor, "editor assigned"); err != nil {
		t.Fatalf("transition failed: %v", err)
	}
	if manuscript.Status != models.StatusWithEditor {
		t.Fatalf("in-memory status not updated, got %s", manuscript.Status)
	}

	history, err := service.StatusHistory(manuscript.ManuscriptID)
	if err != nil {
		t.Fatalf("history read failed: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].NewStatus != models.StatusWithEditor || history[0].OldStatus == nil || *history[0].OldStatus != models.StatusSubmitted {
		t.Fatalf("history row wrong: %+v", history[0])
	}
	if history[0].ChangedBy != editor.UserID {
		t.Fatalf("history should record the acting user, got %d", history[0].ChangedBy)
	}

	var audit int64
	if err := db.Model(&models.ActivityLog{}).
		Where("manuscript_id = ? AND action = ?", manuscript.ManuscriptID, "status_transition").
		Count(&audit).Error; err != nil {
		t.Fatalf("audit count failed: %v", err)
	}
	if audit != 1 {
		t.Fatalf("expected 1 audit row, got %d", audit)
	}
}

func TestApplyTransitionRejectsIllegalMove(t *testing.T) {
	db := newTestDB(t)
	service := NewWorkflowService(db)

	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusDraft)

	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}
	err := service.ApplyTransition(db, &manuscript, models.StatusAccepted, actor, "")
	assertCode(t, err, CodeInvalidTransition)

	// Nothing was written.
	var stored models.Manuscript
	if err := db.First(&stored, manuscript.ManuscriptID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.Status != models.StatusDraft {
		t.Fatalf("failed transition must not change status, got %s", stored.Status)
	}
}

func TestRevisionRoundCap(t *testing.T) {
	t.Setenv("MAX_REVISION_ROUNDS", "2")
	db := newTestDB(t)
	service := NewWorkflowService(db)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusUnderReview)

	editorActor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	authorActor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}

	for round := 1; round <= 2; round++ {
		if err := service.ApplyTransition(db, &manuscript, models.StatusRevisionsRequested, editorActor, "revise"); err != nil {
			t.Fatalf("round %d request failed: %v", round, err)
		}
		if err := service.ApplyTransition(db, &manuscript, models.StatusUnderReview, authorActor, "resubmitted"); err != nil {
			t.Fatalf("round %d resubmission failed: %v", round, err)
		}
		if manuscript.RevisionRound != round {
			t.Fatalf("expected revision round %d, got %d", round, manuscript.RevisionRound)
		}
	}

	if err := service.ApplyTransition(db, &manuscript, models.StatusRevisionsRequested, editorActor, "revise again"); err != nil {
		t.Fatalf("third revision request failed: %v", err)
	}
	err := service.ApplyTransition(db, &manuscript, models.StatusUnderReview, authorActor, "resubmitted")
	assertCode(t, err, CodeInvalidTransition)
}

func TestAssignEditorSelfAssignOnly(t *testing.T) {
	db := newTestDB(t)
	service := NewWorkflowService(db)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	colleague := seedUser(t, db, models.RoleEditor)
	admin := seedUser(t, db, models.RoleAdmin)

	m1 := seedManuscript(t, db, author.UserID, models.StatusSubmitted)
	m2 := seedManuscript(t, db, author.UserID, models.StatusSubmitted)

	editorActor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	_, err := service.AssignEditor(editorActor, m1.ManuscriptID, colleague.UserID)
	assertCode(t, err, CodeForbidden)

	got, err := service.AssignEditor(editorActor, m1.ManuscriptID, editor.UserID)
	if err != nil {
		t.Fatalf("self-assign failed: %v", err)
	}
	if got.Status != models.StatusWithEditor || got.EditorID == nil || *got.EditorID != editor.UserID {
		t.Fatalf("assignment not applied: %+v", got)
	}

	// A second editor cannot take over an owned manuscript.
	_, err = service.AssignEditor(Actor{UserID: colleague.UserID, RoleID: models.RoleEditor}, m1.ManuscriptID, colleague.UserID)
	assertCode(t, err, CodeInvalidTransition)

	// Admins may assign any editor.
	adminActor := Actor{UserID: admin.UserID, RoleID: models.RoleAdmin}
	got, err = service.AssignEditor(adminActor, m2.ManuscriptID, colleague.UserID)
	if err != nil {
		t.Fatalf("admin assign failed: %v", err)
	}
	if got.EditorID == nil || *got.EditorID != colleague.UserID {
		t.Fatalf("admin assignment not applied: %+v", got)
	}
}
