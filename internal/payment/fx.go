package payment

import (
	"github.com/smallbiznis/jobboard/internal/payment/adapters/paypal"
	"github.com/smallbiznis/jobboard/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(paypal.Provide),
	fx.Provide(service.New),
)
