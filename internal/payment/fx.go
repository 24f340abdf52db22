package payment

import (
	paymentdomain "github.com/smallbiznis/paygate/internal/payment/domain"
	"github.com/smallbiznis/paygate/internal/payment/reconciler"
	"github.com/smallbiznis/paygate/internal/payment/repository"
	"github.com/smallbiznis/paygate/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(repository.Provide),
	fx.Provide(NewRegistry),
	fx.Provide(reconciler.New),
	fx.Provide(service.New),
	fx.Provide(func(svc *service.Service) paymentdomain.Service { return svc }),
)
