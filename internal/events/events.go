package events

import (
	"time"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

// Payment event types written to the outbox on applied reconciliations.
const (
	EventPaymentProcessing = "payment.processing"
	EventPaymentCompleted  = "payment.completed"
	EventPaymentFailed     = "payment.failed"
	EventPaymentCancelled  = "payment.cancelled"
	EventPaymentRefunded   = "payment.refunded"
	EventPaymentExpired    = "payment.expired"
	EventPaymentPending    = "payment.pending"
)

var eventTypeByStatus = map[paymentdomain.PaymentStatus]string{
	paymentdomain.PaymentStatusPending:    EventPaymentPending,
	paymentdomain.PaymentStatusProcessing: EventPaymentProcessing,
	paymentdomain.PaymentStatusCompleted:  EventPaymentCompleted,
	paymentdomain.PaymentStatusFailed:     EventPaymentFailed,
	paymentdomain.PaymentStatusCancelled:  EventPaymentCancelled,
	paymentdomain.PaymentStatusRefunded:   EventPaymentRefunded,
	paymentdomain.PaymentStatusExpired:    EventPaymentExpired,
}

// EventTypeForStatus returns the outbox event type for a payment status.
func EventTypeForStatus(status paymentdomain.PaymentStatus) (string, bool) {
	name, ok := eventTypeByStatus[status]
	return name, ok
}

// PaymentStatusPayload captures what downstream consumers need to react to a
// status change.
type PaymentStatusPayload struct {
	OrderID        string     `json:"order_id"`
	Provider       string     `json:"provider"`
	TransactionID  string     `json:"transaction_id,omitempty"`
	PreviousStatus string     `json:"previous_status"`
	Status         string     `json:"status"`
	OrderStatus    string     `json:"order_status"`
	Source         string     `json:"source"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PaymentStatusPayload) ToMap() map[string]any {
	payload := map[string]any{
		"order_id":        p.OrderID,
		"provider":        p.Provider,
		"previous_status": p.PreviousStatus,
		"status":          p.Status,
		"order_status":    p.OrderStatus,
		"source":          p.Source,
	}
	if p.TransactionID != "" {
		payload["transaction_id"] = p.TransactionID
	}
	if p.PaidAt != nil {
		payload["paid_at"] = p.PaidAt.UTC().Format(time.RFC3339)
	}
	return payload
}

// DedupeKey makes one status transition per payment attempt produce one
// outbox row.
func (p PaymentStatusPayload) DedupeKey() string {
	return p.TransactionID + ":" + p.PreviousStatus + "->" + p.Status
}
