package models

import (
	"time"

	"gorm.io/datatypes"
)

// Outbox event statuses.
const (
	OutboxPending   = "pending"
	OutboxDelivered = "delivered"
	OutboxFailed    = "failed"
)

// Outbox event types.
const (
	EventApplicationCreated = "application.created"
	EventCreditsPurchased   = "credits.purchased"
)

// OutboxEvent is committed in the same transaction as the operation that
// produced it. A background dispatcher delivers pending events to the message
// broker and mailer, so delivery failures never reach the API caller.
type OutboxEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	EventID     string         `gorm:"size:64;uniqueIndex;not null" json:"event_id"`
	Type        string         `gorm:"size:64;not null;index" json:"type"`
	Payload     datatypes.JSON `gorm:"type:json;not null" json:"payload"`
	Status      string         `gorm:"size:32;not null;default:pending;index" json:"status"`
	Attempts    int            `gorm:"not null;default:0" json:"attempts"`
	LastError   string         `gorm:"type:text" json:"last_error"`
	DeliveredAt *time.Time     `json:"delivered_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
