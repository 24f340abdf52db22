package reconciler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/paygate/internal/clock"
	"github.com/smallbiznis/paygate/internal/config"
	"github.com/smallbiznis/paygate/internal/events"
	"github.com/smallbiznis/paygate/internal/observability/metrics"
	"github.com/smallbiznis/paygate/internal/observability/tracing"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Source names the path a callback arrived through.
type Source string

const (
	SourceWebhook Source = "webhook"
	SourceVerify  Source = "verify"
)

// Outcome describes what a reconciliation did to the order.
type Outcome struct {
	OrderID     string
	Decision    Decision
	Previous    paymentdomain.PaymentStatus
	Status      paymentdomain.PaymentStatus
	OrderStatus orderdomain.OrderStatus
	PaidAt      *time.Time
}

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Cfg     config.Config
	Orders  orderdomain.Repository
	Outbox  *events.Outbox
	Metrics *metrics.PaymentMetrics `optional:"true"`
}

// Reconciler is the single write path for provider-reported payment status.
type Reconciler struct {
	db          *gorm.DB
	log         *zap.Logger
	clock       clock.Clock
	orders      orderdomain.Repository
	outbox      *events.Outbox
	metrics     *metrics.PaymentMetrics
	maxAttempts int
}

func New(p Params) *Reconciler {
	attempts := p.Cfg.Payment.ReconcileMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Reconciler{
		db:          p.DB,
		log:         p.Log.Named("payment.reconciler"),
		clock:       c,
		orders:      p.Orders,
		outbox:      p.Outbox,
		metrics:     p.Metrics,
		maxAttempts: attempts,
	}
}

var errCASConflict = errors.New("cas_conflict")

// Reconcile merges cb into the order it refers to. The status write is a
// compare-and-swap retried against a fresh read; the outbox row commits in
// the same transaction.
func (r *Reconciler) Reconcile(ctx context.Context, source Source, cb *paymentdomain.PaymentCallback) (*Outcome, error) {
	if cb == nil || !cb.Status.Valid() {
		return nil, paymentdomain.ErrInvalidPayload
	}

	ctx, span := otel.Tracer("paygate/reconciler").Start(ctx, "payment.reconcile")
	defer span.End()
	span.SetAttributes(tracing.PaymentAttributes(cb.Provider, cb.OrderID, cb.TransactionID)...)
	span.SetAttributes(tracing.AttrStatus.String(cb.Status.String()))

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		var outcome *Outcome
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			outcome, err = r.attempt(ctx, tx, source, cb)
			return err
		})
		if errors.Is(err, errCASConflict) {
			r.metrics.IncReconcileConflict(string(source))
			r.log.Debug("payment status changed concurrently, retrying",
				zap.String("provider", cb.Provider),
				zap.String("transaction_id", cb.TransactionID),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			if !errors.Is(err, paymentdomain.ErrOrderNotFound) {
				span.RecordError(tracing.SafeError(err))
				span.SetStatus(codes.Error, "reconcile failed")
			}
			return nil, err
		}

		span.SetAttributes(tracing.AttrOrderID.String(outcome.OrderID), tracing.AttrDecision.String(string(outcome.Decision)))
		r.metrics.IncReconcileDecision(string(source), string(outcome.Decision))
		if outcome.Decision == DecisionSuperseded {
			r.log.Info("callback for a replaced payment attempt ignored",
				zap.String("source", string(source)),
				zap.String("provider", cb.Provider),
				zap.String("order_id", outcome.OrderID),
				zap.String("transaction_id", cb.TransactionID),
				zap.String("incoming", cb.Status.String()),
			)
			return outcome, nil
		}
		r.log.Info("payment reconciled",
			zap.String("source", string(source)),
			zap.String("provider", cb.Provider),
			zap.String("order_id", outcome.OrderID),
			zap.String("previous", outcome.Previous.String()),
			zap.String("incoming", cb.Status.String()),
			zap.String("decision", string(outcome.Decision)),
		)
		return outcome, nil
	}

	span.SetStatus(codes.Error, "concurrent update")
	return nil, paymentdomain.ErrConcurrentUpdate
}

func (r *Reconciler) attempt(ctx context.Context, tx *gorm.DB, source Source, cb *paymentdomain.PaymentCallback) (*Outcome, error) {
	order, err := Lookup(ctx, tx, r.orders, cb)
	if err != nil {
		return nil, err
	}

	current := order.Payment.Status
	decision := Decide(current, cb.Status)
	if Superseded(order, cb) {
		decision = DecisionSuperseded
	}
	outcome := &Outcome{
		OrderID:     order.ID,
		Decision:    decision,
		Previous:    current,
		Status:      current,
		OrderStatus: order.Status,
		PaidAt:      order.PaidAt,
	}
	if !decision.Applied() {
		return outcome, nil
	}

	orderStatus, ok := orderdomain.OrderStatusFor(cb.Status)
	if !ok {
		return nil, paymentdomain.ErrInvalidPayload
	}
	now := r.clock.Now()

	var paidAt *time.Time
	if cb.Status == paymentdomain.PaymentStatusCompleted && order.PaidAt == nil {
		at := now
		if cb.PaidAt != nil {
			at = cb.PaidAt.UTC()
		}
		paidAt = &at
	}

	swapped, err := r.orders.CompareAndSwapPayment(ctx, tx, order.ID, current, orderdomain.PaymentUpdate{
		PaymentStatus:   cb.Status,
		OrderStatus:     orderStatus,
		PaidAt:          paidAt,
		ReferenceNumber: cb.ReferenceNumber,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if !swapped {
		return nil, errCASConflict
	}

	if order.PaidAt != nil {
		paidAt = order.PaidAt
	}
	outcome.Status = cb.Status
	outcome.OrderStatus = orderStatus
	outcome.PaidAt = paidAt

	if err := r.publish(ctx, tx, source, order, cb, outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func (r *Reconciler) publish(ctx context.Context, tx *gorm.DB, source Source, order *orderdomain.Order, cb *paymentdomain.PaymentCallback, outcome *Outcome) error {
	if r.outbox == nil {
		return nil
	}
	eventType, ok := events.EventTypeForStatus(outcome.Status)
	if !ok {
		return nil
	}
	payload := events.PaymentStatusPayload{
		OrderID:        order.ID,
		Provider:       cb.Provider,
		TransactionID:  cb.TransactionID,
		PreviousStatus: outcome.Previous.String(),
		Status:         outcome.Status.String(),
		OrderStatus:    string(outcome.OrderStatus),
		Source:         string(source),
		PaidAt:         outcome.PaidAt,
	}
	return r.outbox.PublishTx(ctx, tx, events.Event{
		OrderID:   order.ID,
		Type:      eventType,
		Payload:   payload.ToMap(),
		DedupeKey: payload.DedupeKey(),
	})
}
