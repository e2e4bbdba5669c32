package migration

import (
	"github.com/smallbiznis/facture/internal/config"
	identitydomain "github.com/smallbiznis/facture/internal/identity/domain"
	orgdomain "github.com/smallbiznis/facture/internal/organization/domain"
	subuserdomain "github.com/smallbiznis/facture/internal/subuser/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module applies the embedded SQL migrations on postgres. Other dialects
// fall back to AutoMigrate, which covers the sqlite path used in local runs.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&identitydomain.Account{},
				&orgdomain.Organization{},
				&subuserdomain.SubUser{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
