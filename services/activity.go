package services

import (
	"time"

	"journal-management-api/models"

	"gorm.io/gorm"
)

// logActivity appends one audit row. Called inside the same transaction as
// the state change it records, so an aborted operation leaves no trail.
func logActivity(tx *gorm.DB, userID int, action, details string, manuscriptID *int) error {
	entry := models.ActivityLog{
		UserID:       userID,
		Action:       action,
		Details:      details,
		ManuscriptID: manuscriptID,
		CreatedAt:    time.Now(),
	}
	return tx.Create(&entry).Error
}
