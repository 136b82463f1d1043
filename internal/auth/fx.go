package auth

import (
	"github.com/societyos/upkeep/internal/auth/repository"
	"github.com/societyos/upkeep/internal/auth/service"
	"github.com/societyos/upkeep/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
	fx.Provide(session.NewManager),
)
