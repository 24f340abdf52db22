package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paygate/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/payment/reconciler"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// IngestWebhook authenticates and reconciles one provider notification. Only
// an unknown provider is reported as an error; every other outcome is folded
// into the acknowledgement so the provider stops retrying.
func (s *Service) IngestWebhook(ctx context.Context, provider string, payload paymentdomain.WebhookPayload) (*paymentdomain.WebhookAck, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	adapter, err := s.registry.Adapter(provider)
	if err != nil {
		return nil, err
	}

	log := logger.With(s.log, ctx).With(zap.String("provider", provider))
	receivedAt := s.clock.Now()

	cb, err := adapter.ParseWebhook(ctx, payload)
	if err != nil {
		status := ackStatusFor(err)
		switch status {
		case paymentdomain.AckStatusRejected:
			log.Warn("webhook rejected", zap.Error(err))
		case paymentdomain.AckStatusError:
			log.Error("webhook could not be parsed", zap.Error(err))
		default:
			log.Info("webhook not processed", zap.String("status", status))
		}
		s.recordDelivery(ctx, log, &paymentdomain.WebhookEvent{
			Provider:    provider,
			Outcome:     status,
			ReceivedAt:  receivedAt,
			ProcessedAt: &receivedAt,
		}, nil)
		s.metrics.IncWebhook(provider, status)
		return &paymentdomain.WebhookAck{Received: true, Status: status}, nil
	}
	cb.Provider = provider

	log = log.With(
		zap.String("transaction_id", cb.TransactionID),
		zap.String("status", cb.Status.String()),
	)
	deliveryKey := cb.TransactionID
	if deliveryKey == "" {
		deliveryKey = cb.ReferenceNumber
	}
	eventID, logged := s.recordDelivery(ctx, log, &paymentdomain.WebhookEvent{
		Provider:      provider,
		TransactionID: deliveryKey,
		Status:        cb.Status.String(),
		Outcome:       paymentdomain.WebhookOutcomeReceived,
		OrderID:       cb.OrderID,
		ReceivedAt:    receivedAt,
	}, payload.Body)

	outcome, err := s.reconciler.Reconcile(context.WithoutCancel(ctx), reconciler.SourceWebhook, cb)
	if err != nil {
		status := paymentdomain.AckStatusError
		if errors.Is(err, paymentdomain.ErrOrderNotFound) {
			status = paymentdomain.AckStatusOrderNotFound
			log.Warn("webhook references unknown order", zap.String("order_id", cb.OrderID))
		} else {
			log.Error("webhook reconciliation failed", zap.Error(err))
		}
		if logged {
			s.markDelivery(ctx, log, eventID, status, "")
		}
		s.metrics.IncWebhook(provider, status)
		return &paymentdomain.WebhookAck{Received: true, Status: status}, nil
	}

	result := paymentdomain.WebhookOutcomeNoop
	switch {
	case outcome.Decision.Applied():
		result = paymentdomain.WebhookOutcomeApplied
	case outcome.Decision == reconciler.DecisionSuperseded:
		result = paymentdomain.WebhookOutcomeSuperseded
	}
	if logged {
		s.markDelivery(ctx, log, eventID, result, outcome.OrderID)
	}
	s.metrics.IncWebhook(provider, result)

	return &paymentdomain.WebhookAck{
		Received: true,
		OrderID:  outcome.OrderID,
		Status:   outcome.Status.String(),
	}, nil
}

// ListDeliveries returns the webhook delivery log for one provider transaction.
func (s *Service) ListDeliveries(ctx context.Context, provider, transactionID string) ([]*paymentdomain.WebhookEvent, error) {
	provider = strings.TrimSpace(provider)
	transactionID = strings.TrimSpace(transactionID)
	if provider == "" {
		return nil, paymentdomain.ErrInvalidProvider
	}
	if transactionID == "" {
		return nil, paymentdomain.ErrInvalidTransaction
	}
	return s.events.ListByTransaction(ctx, s.db, provider, transactionID)
}

func ackStatusFor(err error) string {
	switch {
	case errors.Is(err, paymentdomain.ErrWebhookUnsupported):
		return paymentdomain.AckStatusUnsupported
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return paymentdomain.AckStatusRejected
	case errors.Is(err, paymentdomain.ErrEventIgnored):
		return paymentdomain.AckStatusIgnored
	case errors.Is(err, paymentdomain.ErrInvalidPayload):
		return paymentdomain.AckStatusInvalidPayload
	default:
		return paymentdomain.AckStatusError
	}
}

// recordDelivery appends to the delivery log. The body is stored only for
// deliveries that passed authentication. Failures are logged and swallowed.
func (s *Service) recordDelivery(ctx context.Context, log *zap.Logger, event *paymentdomain.WebhookEvent, body []byte) (snowflake.ID, bool) {
	if s.events == nil || s.genID == nil {
		return 0, false
	}
	event.ID = s.genID.Generate()
	if len(body) > 0 && json.Valid(body) {
		event.Payload = datatypes.JSON(body)
	}
	if err := s.events.InsertEvent(context.WithoutCancel(ctx), s.db, event); err != nil {
		log.Warn("failed to record webhook delivery", zap.Error(err))
		return 0, false
	}
	return event.ID, true
}

func (s *Service) markDelivery(ctx context.Context, log *zap.Logger, id snowflake.ID, outcome, orderID string) {
	if err := s.events.MarkProcessed(context.WithoutCancel(ctx), s.db, id, outcome, orderID, s.clock.Now()); err != nil {
		log.Warn("failed to update webhook delivery", zap.Error(err))
	}
}
