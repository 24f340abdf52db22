package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Event describes a payment event to store in the outbox.
type Event struct {
	OrderID   string
	Type      string
	Payload   map[string]any
	DedupeKey string
}

// Record is an outbox row as read back by the relay.
type Record struct {
	ID        snowflake.ID
	OrderID   string
	EventType string
	Payload   string
	DedupeKey *string
	CreatedAt time.Time
}

// Decode unmarshals the stored payload.
func (r Record) Decode() (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(r.Payload) == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(r.Payload), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Outbox inserts payment events into the payment_outbox table.
type Outbox struct {
	db    *gorm.DB
	genID *snowflake.Node
}

func NewOutbox(db *gorm.DB, genID *snowflake.Node) *Outbox {
	return &Outbox{db: db, genID: genID}
}

// Publish stores an event using the default database connection.
func (o *Outbox) Publish(ctx context.Context, event Event) error {
	if o == nil {
		return errors.New("outbox_unavailable")
	}
	return o.publish(ctx, o.db, event)
}

// PublishTx stores an event using an existing transaction.
func (o *Outbox) PublishTx(ctx context.Context, tx *gorm.DB, event Event) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	return o.publish(ctx, tx, event)
}

func (o *Outbox) publish(ctx context.Context, db *gorm.DB, event Event) error {
	if o == nil || db == nil || o.genID == nil {
		return errors.New("outbox_unavailable")
	}
	orderID := strings.TrimSpace(event.OrderID)
	if orderID == "" {
		return errors.New("invalid_order_id")
	}
	name := strings.TrimSpace(event.Type)
	if name == "" {
		return errors.New("missing_event_type")
	}

	payload := datatypes.JSONMap{}
	for key, value := range event.Payload {
		if strings.TrimSpace(key) == "" {
			continue
		}
		payload[key] = value
	}

	dedupe := strings.TrimSpace(event.DedupeKey)
	var dedupeValue any
	if dedupe != "" {
		dedupeValue = dedupe
	}

	now := time.Now().UTC()
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_outbox (id, order_id, event_type, payload, dedupe_key, published, created_at)
		 VALUES (?, ?, ?, ?, ?, false, ?)
		 ON CONFLICT (order_id, dedupe_key) DO NOTHING`,
		o.genID.Generate(),
		orderID,
		name,
		payload,
		dedupeValue,
		now,
	).Error
}

// FetchPending returns unpublished rows oldest first.
func (o *Outbox) FetchPending(ctx context.Context, limit int) ([]Record, error) {
	if o == nil || o.db == nil {
		return nil, errors.New("outbox_unavailable")
	}
	if limit <= 0 {
		limit = 100
	}
	var records []Record
	err := o.db.WithContext(ctx).Raw(
		`SELECT id, order_id, event_type, payload, dedupe_key, created_at
		 FROM payment_outbox
		 WHERE published = false
		 ORDER BY created_at ASC, id ASC
		 LIMIT ?`,
		limit,
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarkPublished flags rows as delivered.
func (o *Outbox) MarkPublished(ctx context.Context, ids []snowflake.ID) error {
	if o == nil || o.db == nil {
		return errors.New("outbox_unavailable")
	}
	if len(ids) == 0 {
		return nil
	}
	return o.db.WithContext(ctx).Exec(
		`UPDATE payment_outbox SET published = true WHERE id IN ?`,
		ids,
	).Error
}
