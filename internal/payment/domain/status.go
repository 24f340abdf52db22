package domain

import "strings"

// PaymentStatus is the provider-agnostic payment state stored on an order.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
	PaymentStatusExpired    PaymentStatus = "expired"
)

var terminalStatuses = map[PaymentStatus]bool{
	PaymentStatusCompleted: true,
	PaymentStatusFailed:    true,
	PaymentStatusCancelled: true,
	PaymentStatusRefunded:  true,
	PaymentStatusExpired:   true,
}

// IsTerminal reports whether no further transition is expected except a follow-on.
func (s PaymentStatus) IsTerminal() bool {
	return terminalStatuses[s]
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusProcessing:
		return true
	default:
		return terminalStatuses[s]
	}
}

func (s PaymentStatus) String() string { return string(s) }

// ParsePaymentStatus normalizes a canonical status string.
func ParsePaymentStatus(value string) (PaymentStatus, bool) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(value)))
	if !status.Valid() {
		return "", false
	}
	return status, true
}
