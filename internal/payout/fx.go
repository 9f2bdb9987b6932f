package payout

import (
	"github.com/smallbiznis/payrail/internal/payout/repository"
	"github.com/smallbiznis/payrail/internal/payout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payout.service",
	fx.Provide(repository.NewDirectory),
	fx.Provide(service.NewService),
)
