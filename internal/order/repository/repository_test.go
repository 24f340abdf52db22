package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/testkit"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, id string, payment orderdomain.Payment) {
	t.Helper()
	require.NoError(t, db.Exec(
		`INSERT INTO customers (id, first_name, email) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		"CUS-1", "Mona", "mona@example.com",
	).Error)
	now := time.Now().UTC()
	require.NoError(t, db.Create(&orderdomain.Order{
		ID:         id,
		CustomerID: "CUS-1",
		Status:     orderdomain.OrderStatusPending,
		Currency:   "EGP",
		Subtotal:   decimal.NewFromInt(100),
		Total:      decimal.NewFromInt(100),
		Payment:    payment,
		Items: []orderdomain.OrderItem{
			{ID: id + "-1", ProductID: "SKU-1", Name: "Mug", Quantity: 1, UnitPrice: decimal.NewFromInt(100), Total: decimal.NewFromInt(100)},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}).Error)
}

func TestFindByIDLoadsItems(t *testing.T) {
	db := testkit.NewDB(t)
	seedOrder(t, db, "ORD-1", orderdomain.Payment{Status: paymentdomain.PaymentStatusPending})
	repo := Provide()

	order, err := repo.FindByID(context.Background(), db, "ORD-1")
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1)
	require.True(t, decimal.NewFromInt(100).Equal(order.Total))

	missing, err := repo.FindByID(context.Background(), db, "ORD-404")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestFindByPaymentKeysMatchesAnyKey(t *testing.T) {
	db := testkit.NewDB(t)
	seedOrder(t, db, "ORD-1", orderdomain.Payment{Status: paymentdomain.PaymentStatusPending, TransactionID: "TXN1", ReferenceNumber: "REF1"})
	seedOrder(t, db, "ORD-2", orderdomain.Payment{Status: paymentdomain.PaymentStatusPending})
	repo := Provide()
	ctx := context.Background()

	for _, keys := range []orderdomain.PaymentKeys{
		{TransactionID: "TXN1"},
		{ReferenceNumber: "REF1"},
		{TransactionID: "REF1"},
		{TransactionID: "unknown", OrderID: "ORD-1"},
	} {
		orders, err := repo.FindByPaymentKeys(ctx, db, keys)
		require.NoError(t, err)
		require.Len(t, orders, 1, "keys %+v", keys)
		require.Equal(t, "ORD-1", orders[0].ID)
	}

	orders, err := repo.FindByPaymentKeys(ctx, db, orderdomain.PaymentKeys{})
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestSetPaymentMissingOrder(t *testing.T) {
	db := testkit.NewDB(t)
	err := Provide().SetPayment(context.Background(), db, "ORD-404", orderdomain.Payment{Status: paymentdomain.PaymentStatusPending}, time.Now())
	require.ErrorIs(t, err, paymentdomain.ErrOrderNotFound)
}

func TestCompareAndSwapPayment(t *testing.T) {
	db := testkit.NewDB(t)
	seedOrder(t, db, "ORD-1", orderdomain.Payment{Status: paymentdomain.PaymentStatusPending, TransactionID: "TXN1"})
	repo := Provide()
	ctx := context.Background()

	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ok, err := repo.CompareAndSwapPayment(ctx, db, "ORD-1", paymentdomain.PaymentStatusPending, orderdomain.PaymentUpdate{
		PaymentStatus:   paymentdomain.PaymentStatusCompleted,
		OrderStatus:     orderdomain.OrderStatusProcessing,
		PaidAt:          &first,
		ReferenceNumber: "REF1",
		UpdatedAt:       first,
	})
	require.NoError(t, err)
	require.True(t, ok)

	// Stale expectation does not write.
	ok, err = repo.CompareAndSwapPayment(ctx, db, "ORD-1", paymentdomain.PaymentStatusPending, orderdomain.PaymentUpdate{
		PaymentStatus: paymentdomain.PaymentStatusFailed,
		OrderStatus:   orderdomain.OrderStatusCancelled,
		UpdatedAt:     first,
	})
	require.NoError(t, err)
	require.False(t, ok)

	later := first.Add(time.Hour)
	ok, err = repo.CompareAndSwapPayment(ctx, db, "ORD-1", paymentdomain.PaymentStatusCompleted, orderdomain.PaymentUpdate{
		PaymentStatus:   paymentdomain.PaymentStatusRefunded,
		OrderStatus:     orderdomain.OrderStatusRefunded,
		PaidAt:          &later,
		ReferenceNumber: "REF2",
		UpdatedAt:       later,
	})
	require.NoError(t, err)
	require.True(t, ok)

	order, err := repo.FindByID(ctx, db, "ORD-1")
	require.NoError(t, err)
	require.Equal(t, paymentdomain.PaymentStatusRefunded, order.Payment.Status)
	require.Equal(t, orderdomain.OrderStatusRefunded, order.Status)
	require.Equal(t, "REF1", order.Payment.ReferenceNumber)
	require.NotNil(t, order.PaidAt)
	require.True(t, first.Equal(*order.PaidAt))
}
