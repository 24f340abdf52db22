// Package scheduler re-verifies payments that have been waiting on the
// provider for too long. It is meant to be run periodically from outside the
// process (cron, a Kubernetes CronJob), not as an in-process loop.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/paygate/internal/clock"
	"github.com/smallbiznis/paygate/internal/config"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Verifier is the subset of the payment service the scheduler drives.
type Verifier interface {
	VerifyPayment(ctx context.Context, transactionID string, provider string) (*paymentdomain.VerifyResult, error)
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	Verifier paymentdomain.Service
}

type Scheduler struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	verifier Verifier
	cfg      config.SchedulerConfig
}

// WorkPayment is an order whose payment has not reached a terminal status.
type WorkPayment struct {
	OrderID       string
	Provider      string
	TransactionID string
	Status        paymentdomain.PaymentStatus
	UpdatedAt     time.Time
	CheckedAt     *time.Time
}

// RunResult summarizes one verification pass.
type RunResult struct {
	Checked  int
	Settled  int
	Failures int
}

func New(p Params) *Scheduler {
	return NewWithVerifier(p.DB, p.Log, p.Cfg, p.Clock, p.Verifier)
}

func NewWithVerifier(db *gorm.DB, log *zap.Logger, cfg config.Config, c clock.Clock, verifier Verifier) *Scheduler {
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Scheduler{
		db:       db,
		log:      log.Named("scheduler"),
		clock:    c,
		verifier: verifier,
		cfg:      cfg.Scheduler,
	}
}

// lastTouched is the later of the last write and the last verification.
// A verification that changes nothing still moves the payment to the back of
// the queue.
const lastTouched = `CASE WHEN payment_checked_at IS NOT NULL AND payment_checked_at > updated_at
		THEN payment_checked_at ELSE updated_at END`

// FetchPaymentsForWork returns up to limit non-terminal payments that have
// been neither updated nor verified within the configured stale age, least
// recently touched first.
func (s *Scheduler) FetchPaymentsForWork(ctx context.Context, limit int) ([]WorkPayment, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	cutoff := s.clock.Now().Add(-s.cfg.StaleAfter)

	var payments []WorkPayment
	err := s.db.WithContext(ctx).Raw(
		`SELECT id AS order_id, payment_provider AS provider, payment_transaction_id AS transaction_id,
		        payment_status AS status, updated_at, payment_checked_at AS checked_at
		 FROM orders
		 WHERE payment_status IN (?, ?)
		   AND payment_provider <> '' AND payment_transaction_id <> ''
		   AND `+lastTouched+` < ?
		 ORDER BY `+lastTouched+` ASC, id ASC
		 LIMIT ?`,
		paymentdomain.PaymentStatusPending,
		paymentdomain.PaymentStatusProcessing,
		cutoff,
		limit,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// RunPendingVerification verifies one batch. A failure on one payment is
// logged and does not stop the batch.
func (s *Scheduler) RunPendingVerification(ctx context.Context) (RunResult, error) {
	var result RunResult
	payments, err := s.FetchPaymentsForWork(ctx, 0)
	if err != nil {
		return result, err
	}

	for _, p := range payments {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++
		log := s.log.With(
			zap.String("order_id", p.OrderID),
			zap.String("provider", p.Provider),
			zap.String("transaction_id", p.TransactionID),
		)

		verified, err := s.verifier.VerifyPayment(ctx, p.TransactionID, p.Provider)
		s.markChecked(ctx, log, p.OrderID)
		if err != nil {
			result.Failures++
			if errors.Is(err, paymentdomain.ErrProviderTimeout) || errors.Is(err, paymentdomain.ErrProviderTransport) {
				log.Warn("provider unavailable during verification", zap.Error(err))
			} else {
				log.Error("pending payment verification failed", zap.Error(err))
			}
			continue
		}
		if verified.Status.IsTerminal() {
			result.Settled++
			log.Info("pending payment settled", zap.String("status", verified.Status.String()))
		}
	}
	return result, nil
}

// markChecked stamps the verification time whatever the outcome, so payments
// the provider keeps reporting as pending rotate behind the rest of the queue.
func (s *Scheduler) markChecked(ctx context.Context, log *zap.Logger, orderID string) {
	err := s.db.WithContext(context.WithoutCancel(ctx)).
		Exec(`UPDATE orders SET payment_checked_at = ? WHERE id = ?`, s.clock.Now().UTC(), orderID).Error
	if err != nil {
		log.Warn("failed to record payment check", zap.Error(err))
	}
}
