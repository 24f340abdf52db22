package events

import (
	"context"
	"errors"
	"testing"

	"github.com/smallbiznis/paygate/internal/testkit"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOutboxPublishDeduplicates(t *testing.T) {
	db := testkit.NewDB(t)
	outbox := NewOutbox(db, testkit.NewNode(t))
	ctx := context.Background()

	payload := PaymentStatusPayload{
		OrderID:        "ORD-1001",
		Provider:       "paymob",
		PreviousStatus: "pending",
		Status:         "completed",
		OrderStatus:    "processing",
		Source:         "webhook",
	}
	event := Event{
		OrderID:   payload.OrderID,
		Type:      EventPaymentCompleted,
		Payload:   payload.ToMap(),
		DedupeKey: payload.DedupeKey(),
	}
	require.NoError(t, outbox.Publish(ctx, event))
	require.NoError(t, outbox.Publish(ctx, event))

	pending, err := outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, EventPaymentCompleted, pending[0].EventType)

	decoded, err := pending[0].Decode()
	require.NoError(t, err)
	require.Equal(t, "completed", decoded["status"])
}

func TestOutboxRejectsMissingOrder(t *testing.T) {
	outbox := NewOutbox(testkit.NewDB(t), testkit.NewNode(t))
	err := outbox.Publish(context.Background(), Event{Type: EventPaymentFailed})
	require.EqualError(t, err, "invalid_order_id")
}

type flakyPublisher struct {
	failOn string
	seen   []string
}

func (p *flakyPublisher) Publish(_ context.Context, record Record) error {
	if record.OrderID == p.failOn {
		return errors.New("broker_down")
	}
	p.seen = append(p.seen, record.OrderID)
	return nil
}

func TestRelayRunOnceMarksDelivered(t *testing.T) {
	db := testkit.NewDB(t)
	outbox := NewOutbox(db, testkit.NewNode(t))
	ctx := context.Background()

	for _, orderID := range []string{"ORD-1", "ORD-2", "ORD-3"} {
		require.NoError(t, outbox.Publish(ctx, Event{OrderID: orderID, Type: EventPaymentCompleted, DedupeKey: "pending->completed"}))
	}

	pub := &flakyPublisher{failOn: "ORD-3"}
	relay := NewRelay(outbox, pub, zap.NewNop(), 0, 10)

	n, err := relay.RunOnce(ctx)
	require.EqualError(t, err, "broker_down")
	require.Equal(t, 2, n)

	pending, err := outbox.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "ORD-3", pending[0].OrderID)

	pub.failOn = ""
	n, err = relay.RunOnce(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestEventTypeForStatus(t *testing.T) {
	name, ok := EventTypeForStatus("refunded")
	require.True(t, ok)
	require.Equal(t, EventPaymentRefunded, name)

	_, ok = EventTypeForStatus("bogus")
	require.False(t, ok)
}
