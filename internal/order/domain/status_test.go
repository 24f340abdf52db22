package domain

import (
	"testing"

	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
)

func TestEveryPaymentStatusHasOrderStatus(t *testing.T) {
	cases := map[paymentdomain.PaymentStatus]OrderStatus{
		paymentdomain.PaymentStatusPending:    OrderStatusPending,
		paymentdomain.PaymentStatusProcessing: OrderStatusPending,
		paymentdomain.PaymentStatusCompleted:  OrderStatusProcessing,
		paymentdomain.PaymentStatusFailed:     OrderStatusCancelled,
		paymentdomain.PaymentStatusExpired:    OrderStatusCancelled,
		paymentdomain.PaymentStatusCancelled:  OrderStatusCancelled,
		paymentdomain.PaymentStatusRefunded:   OrderStatusRefunded,
	}
	for payment, want := range cases {
		got, ok := OrderStatusFor(payment)
		if !ok {
			t.Fatalf("missing order status for %s", payment)
		}
		if got != want {
			t.Fatalf("payment %s: expected %s, got %s", payment, want, got)
		}
	}
	if _, ok := OrderStatusFor("bogus"); ok {
		t.Fatalf("expected unknown payment status to have no mapping")
	}
}
