package services

import (
	"testing"

	"journal-management-api/models"
)

func TestProcessDecisionFinalRequiresAuthorLetter(t *testing.T) {
	db := newTestDB(t)
	service := NewDecisionService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusWithEditor)
	assignEditorTo(t, db, manuscript.ManuscriptID, editor.UserID)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	input := DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionAccepted,
		Components:   models.DecisionComponents{AuthorLetter: "   "},
	}

	_, err := service.ProcessDecision(actor, input)
	assertCode(t, err, CodeValidation)

	// The same partial content is acceptable as a draft.
	input.IsDraft = true
	result, err := service.ProcessDecision(actor, input)
	if err != nil {
		t.Fatalf("draft save failed: %v", err)
	}
	if result.DecisionID == 0 {
		t.Fatalf("draft should be persisted with an id")
	}
	if result.Status != models.StatusWithEditor {
		t.Fatalf("draft must not move the manuscript, got %s", result.Status)
	}
}

func TestProcessDecisionFinalTransitionsAndQueuesActions(t *testing.T) {
	db := newTestDB(t)
	dispatch := &stubDispatcher{}
	service := NewDecisionService(db, dispatch)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	reviewer := seedUser(t, db, models.RoleReviewer)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusWithEditor)
	assignEditorTo(t, db, manuscript.ManuscriptID, editor.UserID)
	seedAssignment(t, db, manuscript.ManuscriptID, reviewer.UserID, editor.UserID, models.AssignmentCompleted)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	result, err := service.ProcessDecision(actor, DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionAccepted,
		Components:   models.DecisionComponents{AuthorLetter: "We are pleased to accept your manuscript."},
		Actions: models.DecisionActions{
			NotifyAuthor:        true,
			NotifyReviewers:     true,
			SchedulePublication: true,
		},
	})
	if err != nil {
		t.Fatalf("decision failed: %v", err)
	}
	if result.Status != models.StatusAccepted {
		t.Fatalf("accept decision should move manuscript to accepted, got %s", result.Status)
	}
	if len(result.QueuedActions) != 3 || len(result.FailedActions) != 0 {
		t.Fatalf("expected 3 queued actions, got %+v", result)
	}

	if got := len(dispatch.byType(IntentNotifyAuthor)); got != 1 {
		t.Fatalf("expected 1 author notification, got %d", got)
	}
	reviewerIntents := dispatch.byType(IntentNotifyReviewer)
	if len(reviewerIntents) != 1 || reviewerIntents[0].UserID != reviewer.UserID {
		t.Fatalf("completed reviewer should be notified, got %+v", reviewerIntents)
	}

	var stored models.EditorialDecision
	if err := db.First(&stored, result.DecisionID).Error; err != nil {
		t.Fatalf("decision reload failed: %v", err)
	}
	if stored.IsDraft || stored.FinalizedAt == nil {
		t.Fatalf("decision should be finalized: %+v", stored)
	}
}

func TestProcessDecisionSideEffectFailureDoesNotRollBack(t *testing.T) {
	db := newTestDB(t)
	dispatch := &stubDispatcher{failTypes: map[string]bool{IntentNotifyAuthor: true}}
	service := NewDecisionService(db, dispatch)

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusWithEditor)
	assignEditorTo(t, db, manuscript.ManuscriptID, editor.UserID)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	result, err := service.ProcessDecision(actor, DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionRejected,
		Components:   models.DecisionComponents{AuthorLetter: "We regret to inform you."},
		Actions:      models.DecisionActions{NotifyAuthor: true, GenerateDOI: true},
	})
	if err != nil {
		t.Fatalf("decision must succeed despite delivery failure: %v", err)
	}
	if result.Status != models.StatusRejected {
		t.Fatalf("manuscript should be rejected, got %s", result.Status)
	}
	if len(result.QueuedActions) != 1 || result.QueuedActions[0] != IntentGenerateDOI {
		t.Fatalf("only the DOI action should be queued, got %v", result.QueuedActions)
	}
	if len(result.FailedActions) != 1 || result.FailedActions[0].Type != IntentNotifyAuthor {
		t.Fatalf("author notification should be reported failed, got %+v", result.FailedActions)
	}

	var stored models.Manuscript
	if err := db.First(&stored, manuscript.ManuscriptID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if stored.Status != models.StatusRejected {
		t.Fatalf("recorded decision must survive delivery failure, got %s", stored.Status)
	}
}

func TestSubmitFinalDecisionPromotesDraft(t *testing.T) {
	db := newTestDB(t)
	service := NewDecisionService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusUnderReview)
	assignEditorTo(t, db, manuscript.ManuscriptID, editor.UserID)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	components := models.DecisionComponents{
		AuthorLetter:  "Please address the attached reviewer comments.",
		EditorSummary: "Both reviewers ask for clarification of the methods.",
		Conditions:    []string{"Expand the methods section", "Add the missing ablation"},
	}
	draft, err := service.ProcessDecision(actor, DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionRevisionsRequested,
		Components:   components,
		Actions:      models.DecisionActions{NotifyAuthor: true},
		IsDraft:      true,
	})
	if err != nil {
		t.Fatalf("draft save failed: %v", err)
	}

	result, err := service.SubmitFinalDecision(actor, draft.DecisionID)
	if err != nil {
		t.Fatalf("draft promotion failed: %v", err)
	}
	if result.DecisionID != draft.DecisionID {
		t.Fatalf("promotion should reuse the draft row, got %d want %d", result.DecisionID, draft.DecisionID)
	}
	if result.Status != models.StatusRevisionsRequested {
		t.Fatalf("expected revisions_requested, got %s", result.Status)
	}

	// Components survive the round trip untouched.
	var stored models.EditorialDecision
	if err := db.First(&stored, draft.DecisionID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := stored.Components.Data()
	if got.AuthorLetter != components.AuthorLetter || got.EditorSummary != components.EditorSummary {
		t.Fatalf("components changed in the round trip: %+v", got)
	}
	if len(got.Conditions) != 2 || got.Conditions[0] != components.Conditions[0] {
		t.Fatalf("conditions changed in the round trip: %+v", got.Conditions)
	}
	if stored.IsDraft || stored.FinalizedAt == nil {
		t.Fatalf("promoted draft should be finalized: %+v", stored)
	}

	// A promoted draft cannot be promoted twice.
	_, err = service.SubmitFinalDecision(actor, draft.DecisionID)
	assertCode(t, err, CodeNotFound)
}

func TestSubmitFinalDecisionScopedToOwningEditor(t *testing.T) {
	db := newTestDB(t)
	service := NewDecisionService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	colleague := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusWithEditor)
	assignEditorTo(t, db, manuscript.ManuscriptID, editor.UserID)

	owner := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	draft, err := service.ProcessDecision(owner, DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionRejected,
		Components:   models.DecisionComponents{AuthorLetter: "Draft letter."},
		IsDraft:      true,
	})
	if err != nil {
		t.Fatalf("draft save failed: %v", err)
	}

	_, err = service.SubmitFinalDecision(Actor{UserID: colleague.UserID, RoleID: models.RoleEditor}, draft.DecisionID)
	assertCode(t, err, CodeNotFound)
}

func TestFinalizeGuardsManuscriptStatus(t *testing.T) {
	db := newTestDB(t)
	service := NewDecisionService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	editor := seedUser(t, db, models.RoleEditor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusRejected)

	actor := Actor{UserID: editor.UserID, RoleID: models.RoleEditor}
	input := DecisionInput{
		ManuscriptID: manuscript.ManuscriptID,
		Decision:     models.DecisionAccepted,
		Components:   models.DecisionComponents{AuthorLetter: "Letter."},
	}
	_, err := service.ProcessDecision(actor, input)
	assertCode(t, err, CodeInvalidTransition)

	// Published manuscripts are just as closed as rejected ones.
	published := seedManuscript(t, db, author.UserID, models.StatusPublished)
	input.ManuscriptID = published.ManuscriptID
	_, err = service.ProcessDecision(actor, input)
	assertCode(t, err, CodeInvalidTransition)

	// Accepted is not terminal but carries no further decision either.
	accepted := seedManuscript(t, db, author.UserID, models.StatusAccepted)
	input.ManuscriptID = accepted.ManuscriptID
	_, err = service.ProcessDecision(actor, input)
	assertCode(t, err, CodeInvalidTransition)
}
