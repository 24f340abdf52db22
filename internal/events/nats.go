package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

const defaultSubjectPrefix = "paygate.payments"

var errNotConnected = errors.New("nats_not_connected")

// natsMessage is the body consumers receive. Payload is the stored outbox
// JSON, passed through untouched.
type natsMessage struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NATSPublisher sends outbox records to <prefix>.<event type>, e.g.
// paygate.payments.payment.completed. The record id travels in the
// Nats-Msg-Id header so JetStream streams can drop redeliveries.
type NATSPublisher struct {
	url    string
	prefix string
	conn   *nats.Conn
}

func NewNATSPublisher(url, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = defaultSubjectPrefix
	}
	return &NATSPublisher{url: strings.TrimSpace(url), prefix: prefix}
}

func (p *NATSPublisher) Connect() error {
	conn, err := nats.Connect(p.url,
		nats.Name("paygate-outbox"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return err
	}
	p.conn = conn
	return nil
}

// Close drains buffered messages before closing the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}

func (p *NATSPublisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATSPublisher) Publish(ctx context.Context, record Record) error {
	if p.conn == nil {
		return errNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := encodeNATSMessage(record)
	if err != nil {
		return err
	}
	msg := nats.NewMsg(p.Subject(record.EventType))
	msg.Header.Set(nats.MsgIdHdr, record.ID.String())
	msg.Data = body
	if err := p.conn.PublishMsg(msg); err != nil {
		return err
	}
	// The row is marked published only once the server has the message.
	return p.conn.FlushWithContext(ctx)
}

func encodeNATSMessage(record Record) ([]byte, error) {
	msg := natsMessage{
		ID:        record.ID.String(),
		OrderID:   record.OrderID,
		EventType: record.EventType,
		CreatedAt: record.CreatedAt.UTC(),
	}
	if payload := strings.TrimSpace(record.Payload); payload != "" {
		if !json.Valid([]byte(payload)) {
			return nil, errors.New("outbox payload is not valid JSON")
		}
		msg.Payload = json.RawMessage(payload)
	}
	return json.Marshal(msg)
}
