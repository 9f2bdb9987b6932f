package disbursement

import (
	"github.com/smallbiznis/payrail/internal/disbursement/adapters"
	"github.com/smallbiznis/payrail/internal/disbursement/adapters/sandbox"
	"github.com/smallbiznis/payrail/internal/disbursement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("disbursement.service",
	fx.Provide(newRegistry),
	fx.Provide(service.NewService),
)

func newRegistry() *adapters.Registry {
	return adapters.NewRegistry(sandbox.New())
}
