package reconciler

import (
	"context"
	"strings"

	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"gorm.io/gorm"
)

const (
	rankTransaction = iota
	rankReference
	rankOrderID
	rankNone
)

// Lookup resolves the order a callback refers to with one read. Candidates are
// ranked transaction id match, then reference number match, then order id.
func Lookup(ctx context.Context, db *gorm.DB, orders orderdomain.Repository, cb *paymentdomain.PaymentCallback) (*orderdomain.Order, error) {
	keys := keysFor(cb)
	candidates, err := orders.FindByPaymentKeys(ctx, db, keys)
	if err != nil {
		return nil, err
	}

	var best *orderdomain.Order
	bestRank := rankNone
	for _, candidate := range candidates {
		if r := rank(candidate, keys); r < bestRank {
			best, bestRank = candidate, r
		}
	}
	if best == nil {
		return nil, paymentdomain.ErrOrderNotFound
	}
	return best, nil
}

// Superseded reports that cb belongs to an attempt the order has replaced: it
// names a transaction, the order holds a different one, and only the order id
// tied them together. Callbacks without a transaction id cannot be told apart
// and are never superseded.
func Superseded(o *orderdomain.Order, cb *paymentdomain.PaymentCallback) bool {
	keys := keysFor(cb)
	return keys.TransactionID != "" &&
		strings.TrimSpace(o.Payment.TransactionID) != "" &&
		rank(o, keys) == rankOrderID
}

func keysFor(cb *paymentdomain.PaymentCallback) orderdomain.PaymentKeys {
	return orderdomain.PaymentKeys{
		TransactionID:   strings.TrimSpace(cb.TransactionID),
		ReferenceNumber: strings.TrimSpace(cb.ReferenceNumber),
		OrderID:         strings.TrimSpace(cb.OrderID),
	}
}

func rank(o *orderdomain.Order, keys orderdomain.PaymentKeys) int {
	txn, ref := o.Payment.TransactionID, o.Payment.ReferenceNumber
	switch {
	case keys.TransactionID != "" && txn == keys.TransactionID:
		return rankTransaction
	case keys.ReferenceNumber != "" && (ref == keys.ReferenceNumber || txn == keys.ReferenceNumber),
		keys.TransactionID != "" && ref == keys.TransactionID:
		return rankReference
	case keys.OrderID != "" && o.ID == keys.OrderID:
		return rankOrderID
	default:
		return rankNone
	}
}
