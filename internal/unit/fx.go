package unit

import (
	"github.com/societyos/upkeep/internal/unit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("unit.service",
	fx.Provide(service.NewService),
)
