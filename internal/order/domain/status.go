package domain

import paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"

// orderStatusByPayment maps every canonical payment status to the order lifecycle status it implies.
var orderStatusByPayment = map[paymentdomain.PaymentStatus]OrderStatus{
	paymentdomain.PaymentStatusPending:    OrderStatusPending,
	paymentdomain.PaymentStatusProcessing: OrderStatusPending,
	paymentdomain.PaymentStatusCompleted:  OrderStatusProcessing,
	paymentdomain.PaymentStatusFailed:     OrderStatusCancelled,
	paymentdomain.PaymentStatusExpired:    OrderStatusCancelled,
	paymentdomain.PaymentStatusCancelled:  OrderStatusCancelled,
	paymentdomain.PaymentStatusRefunded:   OrderStatusRefunded,
}

// OrderStatusFor returns the order status implied by a payment status.
func OrderStatusFor(status paymentdomain.PaymentStatus) (OrderStatus, bool) {
	value, ok := orderStatusByPayment[status]
	return value, ok
}
