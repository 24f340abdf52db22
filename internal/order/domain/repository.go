package domain

import (
	"context"
	"time"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"gorm.io/gorm"
)

// PaymentKeys are the identifiers an inbound callback may carry.
type PaymentKeys struct {
	TransactionID   string
	ReferenceNumber string
	OrderID         string
}

// PaymentUpdate is the set of fields written by a reconciliation.
type PaymentUpdate struct {
	PaymentStatus paymentdomain.PaymentStatus
	OrderStatus   OrderStatus
	PaidAt        *time.Time
	// ReferenceNumber fills payment_reference_number only while it is empty.
	ReferenceNumber string
	UpdatedAt       time.Time
}

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Order, error)
	// FindByPaymentKeys matches any key in a single read.
	FindByPaymentKeys(ctx context.Context, db *gorm.DB, keys PaymentKeys) ([]*Order, error)
	// SetPayment overwrites the payment sub-document unconditionally.
	SetPayment(ctx context.Context, db *gorm.DB, id string, payment Payment, updatedAt time.Time) error
	// CompareAndSwapPayment applies update only while payment status still equals expected.
	CompareAndSwapPayment(ctx context.Context, db *gorm.DB, id string, expected paymentdomain.PaymentStatus, update PaymentUpdate) (bool, error)
}
