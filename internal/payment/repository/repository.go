package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *paymentdomain.WebhookEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_webhook_events (id, provider, transaction_id, status, outcome, order_id, payload, received_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Provider,
		event.TransactionID,
		event.Status,
		event.Outcome,
		event.OrderID,
		event.Payload,
		event.ReceivedAt,
	).Error
}

func (r *repo) MarkProcessed(ctx context.Context, db *gorm.DB, id snowflake.ID, outcome string, orderID string, processedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_webhook_events
		 SET outcome = ?, order_id = COALESCE(NULLIF(?, ''), order_id), processed_at = ?
		 WHERE id = ?`,
		outcome,
		orderID,
		processedAt,
		id,
	).Error
}

func (r *repo) ListByTransaction(ctx context.Context, db *gorm.DB, provider string, transactionID string) ([]*paymentdomain.WebhookEvent, error) {
	var events []*paymentdomain.WebhookEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, transaction_id, status, outcome, order_id, payload, received_at, processed_at
		 FROM payment_webhook_events
		 WHERE provider = ? AND transaction_id = ?
		 ORDER BY received_at ASC, id ASC`,
		strings.ToLower(strings.TrimSpace(provider)),
		strings.TrimSpace(transactionID),
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
