package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/societyos/upkeep/internal/auth"
	"github.com/societyos/upkeep/internal/authorization"
	"github.com/societyos/upkeep/internal/billing"
	"github.com/societyos/upkeep/internal/clock"
	"github.com/societyos/upkeep/internal/config"
	"github.com/societyos/upkeep/internal/expense"
	"github.com/societyos/upkeep/internal/income"
	"github.com/societyos/upkeep/internal/logger"
	"github.com/societyos/upkeep/internal/migration"
	"github.com/societyos/upkeep/internal/organization"
	"github.com/societyos/upkeep/internal/providers"
	"github.com/societyos/upkeep/internal/ratelimit"
	"github.com/societyos/upkeep/internal/scheduler"
	"github.com/societyos/upkeep/internal/server"
	"github.com/societyos/upkeep/internal/storage"
	"github.com/societyos/upkeep/internal/unit"
	"github.com/societyos/upkeep/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		auth.Module,
		authorization.Module,
		organization.Module,
		unit.Module,
		billing.Module,
		expense.Module,
		income.Module,

		// Supporting services
		storage.Module,
		providers.Module,
		ratelimit.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
