package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, event *WebhookEvent) error
	MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, outcome string, orderID string, processedAt time.Time) error
	ListByTransaction(ctx context.Context, db *gorm.DB, provider string, transactionID string) ([]*WebhookEvent, error)
}
