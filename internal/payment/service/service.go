package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paygate/internal/cache"
	"github.com/smallbiznis/paygate/internal/clock"
	"github.com/smallbiznis/paygate/internal/config"
	customerdomain "github.com/smallbiznis/paygate/internal/customer/domain"
	"github.com/smallbiznis/paygate/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/paygate/internal/order/domain"
	"github.com/smallbiznis/paygate/internal/payment/adapters"
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/payment/reconciler"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const methodsCacheKey = "methods"

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Cfg        config.Config
	Clock      clock.Clock
	Registry   *adapters.Registry
	Orders     orderdomain.Repository
	Customers  customerdomain.Repository
	Events     paymentdomain.Repository
	Reconciler *reconciler.Reconciler
	Metrics    *metrics.PaymentMetrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	cfg        config.Config
	clock      clock.Clock
	registry   *adapters.Registry
	orders     orderdomain.Repository
	customers  customerdomain.Repository
	events     paymentdomain.Repository
	reconciler *reconciler.Reconciler
	metrics    *metrics.PaymentMetrics
	methods    *cache.TTLCache[string, []paymentdomain.AvailableMethod]
}

func New(p Params) *Service {
	c := p.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.service"),
		genID:      p.GenID,
		cfg:        p.Cfg,
		clock:      c,
		registry:   p.Registry,
		orders:     p.Orders,
		customers:  p.Customers,
		events:     p.Events,
		reconciler: p.Reconciler,
		metrics:    p.Metrics,
		methods:    cache.NewTTLCacheWithClock[string, []paymentdomain.AvailableMethod](c.Now),
	}
}

func (s *Service) ListAvailableMethods(ctx context.Context) ([]paymentdomain.AvailableMethod, error) {
	return s.methods.GetOrLoad(methodsCacheKey, s.cfg.Payment.MethodsCacheTTL, func() ([]paymentdomain.AvailableMethod, error) {
		return s.registry.ListAvailableMethods(), nil
	})
}

// callProvider bounds fn by the provider timeout. The call runs detached from
// ctx so a client disconnect does not abandon a request the provider may
// already have recorded.
func (s *Service) callProvider(ctx context.Context, provider, op string, fn func(context.Context) error) error {
	timeout := s.cfg.Payment.ProviderTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		var perr *paymentdomain.ProviderError
		if !errors.As(err, &perr) || !perr.Timeout {
			err = &paymentdomain.ProviderError{Provider: provider, Op: op, Timeout: true, Err: err}
		}
	}
	s.metrics.ObserveProviderCall(provider, op, callResult(err), time.Since(start))
	return err
}

func callResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, paymentdomain.ErrProviderTimeout):
		return "timeout"
	case errors.Is(err, paymentdomain.ErrProviderTransport):
		return "transport_error"
	default:
		return "error"
	}
}
