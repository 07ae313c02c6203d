package services

import (
	"testing"

	"journal-management-api/models"
)

func TestCreateChargeRequiresMainFile(t *testing.T) {
	db := newTestDB(t)
	service := NewPaymentService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusDraft)

	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}
	_, err := service.CreateCharge(actor, manuscript.ManuscriptID)
	assertCode(t, err, CodeValidation)

	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Update("main_file_path", "uploads/manuscripts/draft.pdf").Error; err != nil {
		t.Fatalf("failed to attach file: %v", err)
	}

	record, err := service.CreateCharge(actor, manuscript.ManuscriptID)
	if err != nil {
		t.Fatalf("charge creation failed: %v", err)
	}
	if record.Status != models.PaymentPending || record.Reference == "" {
		t.Fatalf("unexpected charge: %+v", record)
	}
	if record.Amount != 1500 || record.Currency != "USD" {
		t.Fatalf("default processing charge wrong: %+v", record)
	}

	// A second request reuses the open charge.
	again, err := service.CreateCharge(actor, manuscript.ManuscriptID)
	if err != nil {
		t.Fatalf("second charge request failed: %v", err)
	}
	if again.Reference != record.Reference {
		t.Fatalf("open charge should be reused, got a new reference")
	}
}

func TestCreateChargeOnlyForAuthorDrafts(t *testing.T) {
	db := newTestDB(t)
	service := NewPaymentService(db, &stubDispatcher{})

	author := seedUser(t, db, models.RoleAuthor)
	other := seedUser(t, db, models.RoleAuthor)
	submitted := seedManuscript(t, db, author.UserID, models.StatusSubmitted)

	_, err := service.CreateCharge(Actor{UserID: other.UserID, RoleID: models.RoleAuthor}, submitted.ManuscriptID)
	assertCode(t, err, CodeForbidden)

	_, err = service.CreateCharge(Actor{UserID: author.UserID, RoleID: models.RoleAuthor}, submitted.ManuscriptID)
	assertCode(t, err, CodeInvalidTransition)
}

func TestConfirmPaymentSubmitsManuscriptOnce(t *testing.T) {
	db := newTestDB(t)
	dispatch := &stubDispatcher{}
	service := NewPaymentService(db, dispatch)

	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusDraft)
	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Update("main_file_path", "uploads/manuscripts/draft.pdf").Error; err != nil {
		t.Fatalf("failed to attach file: %v", err)
	}

	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}
	record, err := service.CreateCharge(actor, manuscript.ManuscriptID)
	if err != nil {
		t.Fatalf("charge creation failed: %v", err)
	}

	confirmed, err := service.ConfirmPayment(record.Reference)
	if err != nil {
		t.Fatalf("confirmation failed: %v", err)
	}
	if confirmed.Status != models.StatusSubmitted || confirmed.SubmittedAt == nil {
		t.Fatalf("confirmation should submit the manuscript: %+v", confirmed)
	}

	var storedRecord models.PaymentRecord
	if err := db.First(&storedRecord, record.PaymentID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if storedRecord.Status != models.PaymentConfirmed || storedRecord.ConfirmedAt == nil {
		t.Fatalf("charge should be confirmed: %+v", storedRecord)
	}

	// Webhook retries are a no-op success.
	again, err := service.ConfirmPayment(record.Reference)
	if err != nil {
		t.Fatalf("re-delivery should succeed: %v", err)
	}
	if again.Status != models.StatusSubmitted {
		t.Fatalf("re-delivery changed status: %s", again.Status)
	}

	var history int64
	if err := db.Model(&models.ManuscriptStatusHistory{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Count(&history).Error; err != nil {
		t.Fatalf("history count failed: %v", err)
	}
	if history != 1 {
		t.Fatalf("transition must happen exactly once, got %d history rows", history)
	}

	if got := len(dispatch.byType(IntentNotifyAuthor)); got != 1 {
		t.Fatalf("author should be notified once, got %d", got)
	}
}

func TestConfirmPaymentSkipsTransitionWhenChargeAlreadyConfirmed(t *testing.T) {
	db := newTestDB(t)
	dispatch := &stubDispatcher{}
	service := NewPaymentService(db, dispatch)

	author := seedUser(t, db, models.RoleAuthor)
	manuscript := seedManuscript(t, db, author.UserID, models.StatusDraft)
	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Update("main_file_path", "uploads/manuscripts/draft.pdf").Error; err != nil {
		t.Fatalf("failed to attach file: %v", err)
	}

	actor := Actor{UserID: author.UserID, RoleID: models.RoleAuthor}
	record, err := service.CreateCharge(actor, manuscript.ManuscriptID)
	if err != nil {
		t.Fatalf("charge creation failed: %v", err)
	}

	// Another delivery of the same webhook confirms the charge first.
	if err := db.Model(&models.PaymentRecord{}).
		Where("payment_id = ?", record.PaymentID).
		Update("status", models.PaymentConfirmed).Error; err != nil {
		t.Fatalf("failed to confirm charge: %v", err)
	}

	if _, err := service.ConfirmPayment(record.Reference); err != nil {
		t.Fatalf("duplicate delivery should succeed: %v", err)
	}

	var history int64
	if err := db.Model(&models.ManuscriptStatusHistory{}).
		Where("manuscript_id = ?", manuscript.ManuscriptID).
		Count(&history).Error; err != nil {
		t.Fatalf("history count failed: %v", err)
	}
	if history != 0 {
		t.Fatalf("duplicate delivery must not transition the manuscript, got %d history rows", history)
	}
	if got := len(dispatch.byType(IntentNotifyAuthor)); got != 0 {
		t.Fatalf("duplicate delivery must not notify the author, got %d intents", got)
	}
}

func TestConfirmPaymentUnknownReference(t *testing.T) {
	db := newTestDB(t)
	service := NewPaymentService(db, &stubDispatcher{})

	_, err := service.ConfirmPayment("no-such-reference")
	assertCode(t, err, CodeNotFound)
}
