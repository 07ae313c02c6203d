package models

import "time"

// Payment statuses for article processing charges.
const (
	PaymentPending   = "pending"
	PaymentConfirmed = "confirmed"
	PaymentFailed    = "failed"
)

// PaymentRecord represents the payment_records table. One pending charge is
// created per submission attempt; the processor's webhook confirms it by
// reference.
type PaymentRecord struct {
	PaymentID    int        `gorm:"primaryKey;column:payment_id" json:"payment_id"`
	ManuscriptID int        `gorm:"column:manuscript_id" json:"manuscript_id"`
	Reference    string     `gorm:"column:reference;unique" json:"reference"`
	Amount       float64    `gorm:"column:amount" json:"amount"`
	Currency     string     `gorm:"column:currency" json:"currency"`
	Status       string     `gorm:"column:status" json:"status"`
	CreatedAt    time.Time  `gorm:"column:created_at" json:"created_at"`
	ConfirmedAt  *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
}

// TableName specifies the table name for PaymentRecord.
func (PaymentRecord) TableName() string {
	return "payment_records"
}
