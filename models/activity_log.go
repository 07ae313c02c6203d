package models

import "time"

// ActivityLog is the append-only audit trail. Every state-changing operation
// in the workflow engine writes one row; rows are never updated or deleted.
type ActivityLog struct {
	LogID        int       `gorm:"primaryKey;column:log_id" json:"log_id"`
	UserID       int       `gorm:"column:user_id" json:"user_id"`
	Action       string    `gorm:"column:action" json:"action"`
	Details      string    `gorm:"column:details" json:"details"`
	ManuscriptID *int      `gorm:"column:manuscript_id" json:"manuscript_id,omitempty"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for ActivityLog.
func (ActivityLog) TableName() string {
	return "activity_logs"
}
