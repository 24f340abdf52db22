package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// WebhookEvent is the delivery log entry stored for every inbound provider webhook.
type WebhookEvent struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	Provider      string         `json:"provider" gorm:"type:text;not null"`
	TransactionID string         `json:"transaction_id" gorm:"type:text"`
	Status        string         `json:"status" gorm:"type:text"`
	Outcome       string         `json:"outcome" gorm:"type:text;not null"`
	OrderID       string         `json:"order_id" gorm:"type:text"`
	Payload       datatypes.JSON `json:"payload" gorm:"type:text"`
	ReceivedAt    time.Time      `json:"received_at" gorm:"not null"`
	ProcessedAt   *time.Time     `json:"processed_at"`
}

func (WebhookEvent) TableName() string { return "payment_webhook_events" }

const (
	WebhookOutcomeReceived = "received"
	WebhookOutcomeApplied  = "applied"
	WebhookOutcomeNoop     = "noop"
	// WebhookOutcomeSuperseded marks a delivery for a replaced payment attempt.
	WebhookOutcomeSuperseded = "superseded"
)
