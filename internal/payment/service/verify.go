package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/paygate/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/payment/reconciler"
	"go.uber.org/zap"
)

// VerifyPayment asks the provider for the authoritative status of
// transactionID and merges it through the reconciler. The returned status is
// read back from the order, not taken from the provider response.
func (s *Service) VerifyPayment(ctx context.Context, transactionID string, provider string) (*paymentdomain.VerifyResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = s.registry.DetectProvider(transactionID)
		if provider == "" {
			return nil, paymentdomain.ErrAmbiguousProvider
		}
	}
	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		return nil, err
	}

	log := logger.With(s.log, ctx).With(
		zap.String("provider", provider),
		zap.String("transaction_id", transactionID),
	)

	var cb *paymentdomain.PaymentCallback
	err = s.callProvider(ctx, provider, "verify_payment", func(callCtx context.Context) error {
		var callErr error
		cb, callErr = adapter.VerifyPayment(callCtx, transactionID)
		return callErr
	})
	if err != nil {
		log.Warn("payment verification failed", zap.Error(err))
		return nil, err
	}
	if cb == nil {
		return nil, &paymentdomain.ProviderError{Provider: provider, Op: "verify_payment", Err: errors.New("empty result")}
	}
	cb.Provider = provider
	if cb.TransactionID == "" {
		cb.TransactionID = transactionID
	}

	persistCtx := context.WithoutCancel(ctx)
	outcome, err := s.reconciler.Reconcile(persistCtx, reconciler.SourceVerify, cb)
	if err != nil {
		if !errors.Is(err, paymentdomain.ErrOrderNotFound) {
			log.Error("payment verification could not be reconciled", zap.Error(err))
		}
		return nil, err
	}

	order, err := s.orders.FindByID(persistCtx, s.db, outcome.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, paymentdomain.ErrOrderNotFound
	}

	return &paymentdomain.VerifyResult{
		TransactionID: transactionID,
		OrderID:       order.ID,
		Status:        order.Payment.Status,
		Amount:        order.Total,
		Currency:      order.Currency,
		PaidAt:        order.PaidAt,
	}, nil
}
