package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"journal-management-api/config"
	"journal-management-api/models"

	"gorm.io/gorm"
)

var submissionNumberMutex sync.Mutex

// ManuscriptInput is the author-editable portion of a manuscript.
type ManuscriptInput struct {
	Title        string `json:"title"`
	Abstract     string `json:"abstract"`
	Keywords     string `json:"keywords"`
	FieldOfStudy string `json:"field_of_study"`
}

// QueueEntry is one row of the editorial queue: a manuscript plus its
// recomputed urgency flag.
type QueueEntry struct {
	Manuscript models.Manuscript `json:"manuscript"`
	Urgency    *UrgencyFlag      `json:"urgency,omitempty"`
}

// ManuscriptService owns manuscript records and the editorial queue view.
type ManuscriptService struct {
	db *gorm.DB
}

// NewManuscriptService constructs a ManuscriptService.
func NewManuscriptService(db *gorm.DB) *ManuscriptService {
	if db == nil {
		db = config.DB
	}
	return &ManuscriptService{db: db}
}

// CreateDraft creates a manuscript in draft for the calling author.
func (s *ManuscriptService) CreateDraft(actor Actor, input ManuscriptInput) (*models.Manuscript, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, validationError("title is required")
	}
	if strings.TrimSpace(input.Abstract) == "" {
		return nil, validationError("abstract is required")
	}

	now := time.Now()
	manuscript := models.Manuscript{
		SubmissionNumber: s.generateSubmissionNumber(now),
		Title:            strings.TrimSpace(input.Title),
		Abstract:         strings.TrimSpace(input.Abstract),
		Keywords:         strings.TrimSpace(input.Keywords),
		FieldOfStudy:     strings.TrimSpace(input.FieldOfStudy),
		Status:           models.StatusDraft,
		Priority:         models.PriorityNormal,
		AuthorID:         actor.UserID,
		CreatedAt:        now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&manuscript).Error; err != nil {
			return err
		}
		return logActivity(tx, actor.UserID, "manuscript_created",
			"number="+manuscript.SubmissionNumber, &manuscript.ManuscriptID)
	})
	if err != nil {
		return nil, err
	}
	return &manuscript, nil
}

// generateSubmissionNumber produces MS-<year>-<seq>, serialized behind a
// mutex so concurrent drafts in the same process cannot collide.
func (s *ManuscriptService) generateSubmissionNumber(now time.Time) string {
	submissionNumberMutex.Lock()
	defer submissionNumberMutex.Unlock()

	year := now.Year()
	var count int64
	s.db.Model(&models.Manuscript{}).
		Where("submission_number LIKE ?", fmt.Sprintf("MS-%d-%%", year)).
		Count(&count)
	return fmt.Sprintf("MS-%d-%04d", year, count+1)
}

// UpdateDraft modifies an author's manuscript while it is still editable
// (draft or awaiting revised files).
func (s *ManuscriptService) UpdateDraft(actor Actor, manuscriptID int, input ManuscriptInput) (*models.Manuscript, error) {
	manuscript, err := s.load(manuscriptID)
	if err != nil {
		return nil, err
	}
	if manuscript.AuthorID != actor.UserID && !actor.IsAdmin() {
		return nil, forbiddenError("only the submitting author may edit the manuscript")
	}
	if manuscript.Status != models.StatusDraft && manuscript.Status != models.StatusRevisionsRequested {
		return nil, invalidTransitionError("manuscript in status %s is not editable", manuscript.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{"updated_at": now}
	if strings.TrimSpace(input.Title) != "" {
		updates["title"] = strings.TrimSpace(input.Title)
	}
	if strings.TrimSpace(input.Abstract) != "" {
		updates["abstract"] = strings.TrimSpace(input.Abstract)
	}
	if input.Keywords != "" {
		updates["keywords"] = strings.TrimSpace(input.Keywords)
	}
	if input.FieldOfStudy != "" {
		updates["field_of_study"] = strings.TrimSpace(input.FieldOfStudy)
	}

	if err := s.db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscriptID).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.load(manuscriptID)
}

// AttachMainFile records the stored path of the main manuscript file. The
// upload mechanics live outside the engine; submission requires this to be
// set.
func (s *ManuscriptService) AttachMainFile(actor Actor, manuscriptID int, storedPath string) error {
	manuscript, err := s.load(manuscriptID)
	if err != nil {
		return err
	}
	if manuscript.AuthorID != actor.UserID && !actor.IsAdmin() {
		return forbiddenError("only the submitting author may attach files")
	}
	if strings.TrimSpace(storedPath) == "" {
		return validationError("stored path is required")
	}
	return s.db.Model(&models.Manuscript{}).
		Where("manuscript_id = ?", manuscriptID).
		Updates(map[string]interface{}{
			"main_file_path": storedPath,
			"updated_at":     time.Now(),
		}).Error
}

// Get returns a manuscript visible to the actor: the author, any editorial
// role, or a reviewer holding an assignment on it.
func (s *ManuscriptService) Get(actor Actor, manuscriptID int) (*models.Manuscript, error) {
	manuscript, err := s.load(manuscriptID)
	if err != nil {
		return nil, err
	}
	if manuscript.AuthorID == actor.UserID || actor.IsEditorial() {
		return manuscript, nil
	}

	var count int64
	s.db.Model(&models.ReviewAssignment{}).
		Where("manuscript_id = ? AND reviewer_id = ?", manuscriptID, actor.UserID).
		Count(&count)
	if count == 0 {
		return nil, notFoundError("manuscript %d not found", manuscriptID)
	}
	return manuscript, nil
}

// ListForAuthor returns the actor's own manuscripts, newest first.
func (s *ManuscriptService) ListForAuthor(actor Actor) ([]models.Manuscript, error) {
	var rows []models.Manuscript
	if err := s.db.Where("author_id = ? AND delete_at IS NULL", actor.UserID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// EditorQueue lists manuscripts awaiting editorial action with their urgency
// flags recomputed as of now. Editors see unassigned manuscripts plus their
// own; admins see everything pending.
func (s *ManuscriptService) EditorQueue(actor Actor, now time.Time) ([]QueueEntry, error) {
	if err := requireEditorial(actor); err != nil {
		return nil, err
	}

	pending := []string{models.StatusSubmitted, models.StatusWithEditor, models.StatusUnderReview, models.StatusRevisionsRequested}
	query := s.db.Preload("Author").
		Where("status IN ? AND delete_at IS NULL", pending)
	if !actor.IsAdmin() {
		query = query.Where("editor_id IS NULL OR editor_id = ?", actor.UserID)
	}

	var manuscripts []models.Manuscript
	if err := query.Order("submitted_at ASC").Find(&manuscripts).Error; err != nil {
		return nil, err
	}

	entries := make([]QueueEntry, 0, len(manuscripts))
	for _, m := range manuscripts {
		entries = append(entries, QueueEntry{
			Manuscript: m,
			Urgency:    UrgencyFor(&m, now),
		})
	}
	return entries, nil
}

// ActivityTrail returns the audit rows for a manuscript, newest first.
func (s *ManuscriptService) ActivityTrail(actor Actor, manuscriptID int) ([]models.ActivityLog, error) {
	if _, err := s.Get(actor, manuscriptID); err != nil {
		return nil, err
	}
	var rows []models.ActivityLog
	if err := s.db.Where("manuscript_id = ?", manuscriptID).
		Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ManuscriptService) load(manuscriptID int) (*models.Manuscript, error) {
	var manuscript models.Manuscript
	if err := s.db.Where("manuscript_id = ? AND delete_at IS NULL", manuscriptID).First(&manuscript).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("manuscript %d not found", manuscriptID)
		}
		return nil, err
	}
	return &manuscript, nil
}
