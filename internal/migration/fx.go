package migration

import (
	"strings"

	authdomain "github.com/societyos/upkeep/internal/auth/domain"
	billingdomain "github.com/societyos/upkeep/internal/billing/domain"
	"github.com/societyos/upkeep/internal/config"
	expensedomain "github.com/societyos/upkeep/internal/expense/domain"
	incomedomain "github.com/societyos/upkeep/internal/income/domain"
	orgdomain "github.com/societyos/upkeep/internal/organization/domain"
	"github.com/societyos/upkeep/internal/seed"
	unitdomain "github.com/societyos/upkeep/internal/unit/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if strings.EqualFold(cfg.DBType, "postgres") {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&orgdomain.Organization{},
				&unitdomain.Unit{},
				&authdomain.User{},
				&authdomain.Session{},
				&billingdomain.MaintenanceBill{},
				&expensedomain.Expense{},
				&incomedomain.Income{},
			); err != nil {
				return err
			}
		}

		if _, err := seed.EnsureDefaultOrg(conn, cfg.DefaultOrgName); err != nil {
			return err
		}
		if cfg.BootstrapAdmin {
			return seed.EnsureOwnerAdmin(conn, cfg.DefaultAdmin)
		}
		return nil
	}),
)
