package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/smallbiznis/paygate/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.uber.org/zap"
)

// ResolveRedirect reads what the browser redirect claims. It never touches
// the order; only webhooks and verification move payment state.
func (s *Service) ResolveRedirect(ctx context.Context, provider string, payload paymentdomain.WebhookPayload) (*paymentdomain.RedirectResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		return nil, err
	}

	var result paymentdomain.RedirectResult
	if parser, ok := adapter.(paymentdomain.RedirectParser); ok {
		result = parser.ParseRedirect(payload.Query)
	} else {
		result = genericRedirect(payload.Query)
	}

	logger.With(s.log, ctx).Debug("payment redirect resolved",
		zap.String("provider", provider),
		zap.String("order_id", result.OrderID),
		zap.String("transaction_id", result.TransactionID),
		zap.Bool("success", result.Success),
	)
	return &result, nil
}

func genericRedirect(query url.Values) paymentdomain.RedirectResult {
	success := strings.ToLower(firstOf(query, "success", "status"))
	return paymentdomain.RedirectResult{
		Success:       success == "true" || success == "success" || success == "paid",
		OrderID:       firstOf(query, "orderId", "order_id", "merchant_order_id"),
		TransactionID: firstOf(query, "transactionId", "transaction_id", "id"),
	}
}

func firstOf(query url.Values, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(query.Get(key)); value != "" {
			return value
		}
	}
	return ""
}
