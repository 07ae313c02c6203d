package services

import (
	"fmt"
	"testing"
	"time"

	"journal-management-api/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int

// newTestDB opens a fresh in-memory database with the full schema. Each call
// gets its own named shared-cache database so parallel connections inside a
// test see the same data while tests stay isolated from each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	testDBSeq++
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Manuscript{},
		&models.ManuscriptStatusHistory{},
		&models.ReviewAssignment{},
		&models.ReviewerProfile{},
		&models.Review{},
		&models.EditorialDecision{},
		&models.QualityReport{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.PaymentRecord{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}
	return db
}

var testUserSeq int

func seedUser(t *testing.T, db *gorm.DB, roleID int) models.User {
	t.Helper()
	testUserSeq++
	user := models.User{
		UserFname: "Test",
		UserLname: fmt.Sprintf("User%d", testUserSeq),
		Email:     fmt.Sprintf("user%d-%s@example.org", testUserSeq, t.Name()),
		RoleID:    roleID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

var testManuscriptSeq int

func seedManuscript(t *testing.T, db *gorm.DB, authorID int, status string) models.Manuscript {
	t.Helper()
	testManuscriptSeq++
	now := time.Now()
	manuscript := models.Manuscript{
		SubmissionNumber: fmt.Sprintf("MS-%d-%04d", now.Year(), testManuscriptSeq),
		Title:            "On the Behavior of Test Manuscripts",
		Abstract:         "An abstract.",
		Status:           status,
		Priority:         models.PriorityNormal,
		AuthorID:         authorID,
		CreatedAt:        now,
	}
	if status != models.StatusDraft {
		manuscript.SubmittedAt = &now
	}
	if err := db.Create(&manuscript).Error; err != nil {
		t.Fatalf("failed to seed manuscript: %v", err)
	}
	return manuscript
}

func assignEditorTo(t *testing.T, db *gorm.DB, manuscriptID, editorID int) {
	t.Helper()
	if err := db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscriptID).
		Update("editor_id", editorID).Error; err != nil {
		t.Fatalf("failed to set editor: %v", err)
	}
}

func seedProfile(t *testing.T, db *gorm.DB, userID, maxPerMonth int, availability string) models.ReviewerProfile {
	t.Helper()
	profile := models.ReviewerProfile{
		UserID:                  userID,
		AvailabilityStatus:      availability,
		MaxReviewsPerMonth:      maxPerMonth,
		PreferredTurnaroundDays: 14,
		CreateAt:                time.Now(),
	}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("failed to seed reviewer profile: %v", err)
	}
	return profile
}

func seedAssignment(t *testing.T, db *gorm.DB, manuscriptID, reviewerID, assignedBy int, status string) models.ReviewAssignment {
	t.Helper()
	now := time.Now()
	assignment := models.ReviewAssignment{
		ManuscriptID: manuscriptID,
		ReviewerID:   reviewerID,
		AssignedBy:   assignedBy,
		Status:       status,
		InvitedAt:    now,
		DueDate:      now.AddDate(0, 0, 14),
	}
	if assignment.IsActive() {
		active := 1
		assignment.ActiveFlag = &active
	}
	if status == models.AssignmentCompleted {
		done := now
		assignment.CompletedAt = &done
	}
	if err := db.Create(&assignment).Error; err != nil {
		t.Fatalf("failed to seed assignment: %v", err)
	}
	return assignment
}

// stubDispatcher records intents and can be told to fail specific types.
type stubDispatcher struct {
	intents   []Intent
	failTypes map[string]bool
}

func (d *stubDispatcher) Dispatch(intents []Intent) []IntentResult {
	results := make([]IntentResult, 0, len(intents))
	for _, intent := range intents {
		d.intents = append(d.intents, intent)
		if d.failTypes[intent.Type] {
			results = append(results, IntentResult{Type: intent.Type, Queued: false, Error: "delivery failed"})
			continue
		}
		results = append(results, IntentResult{Type: intent.Type, Queued: true})
	}
	return results
}

// assertCode fails unless err carries the expected workflow error code.
func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	if got := ErrorCode(err); got != code {
		t.Fatalf("expected error code %s, got %s (%v)", code, got, err)
	}
}

func (d *stubDispatcher) byType(intentType string) []Intent {
	var matched []Intent
	for _, intent := range d.intents {
		if intent.Type == intentType {
			matched = append(matched, intent)
		}
	}
	return matched
}
