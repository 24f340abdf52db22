package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNATSPublisherSubject(t *testing.T) {
	require.Equal(t, "paygate.payments.payment.completed", NewNATSPublisher("", "").Subject(EventPaymentCompleted))
	require.Equal(t, "shop.events.payment.refunded", NewNATSPublisher("", " shop.events. ").Subject(EventPaymentRefunded))
}

func TestNATSPublisherRequiresConnection(t *testing.T) {
	err := NewNATSPublisher("nats://127.0.0.1:4222", "").Publish(context.Background(), Record{OrderID: "ORD-1"})
	require.ErrorIs(t, err, errNotConnected)
	require.NoError(t, NewNATSPublisher("", "").Close())
}

func TestEncodeNATSMessage(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	body, err := encodeNATSMessage(Record{
		ID:        42,
		OrderID:   "ORD-1001",
		EventType: EventPaymentCompleted,
		Payload:   `{"status":"completed"}`,
		CreatedAt: created,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	require.Equal(t, "42", decoded["id"])
	require.Equal(t, "ORD-1001", decoded["order_id"])
	require.Equal(t, map[string]any{"status": "completed"}, decoded["payload"])

	_, err = encodeNATSMessage(Record{Payload: "{broken"})
	require.Error(t, err)
}
