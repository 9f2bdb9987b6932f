package policy

import (
	"github.com/smallbiznis/payrail/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.service",
	fx.Provide(service.NewService),
)
