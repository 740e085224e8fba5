package migration

import (
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/entity"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// versioned SQL migrations are written for postgres; other dialects
		// (local sqlite, mysql) migrate from the model definitions
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(entity.All()...)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
