package organization

import (
	"github.com/societyos/upkeep/internal/organization/repository"
	"github.com/societyos/upkeep/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
