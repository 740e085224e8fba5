package warehouse

import (
	"errors"
	"fmt"

	"github.com/storably/stashsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrMissingDSN = errors.New("warehouse DSN is required")

// NewFromConfig opens a dedicated read-only handle for the analytics dataset.
// The warehouse connection is separate from the primary store so analytical
// scans never compete with the reconciler's pooled connections.
func NewFromConfig(cfg config.Config, log *zap.Logger) (*Client, error) {
	if cfg.WarehouseDSN == "" {
		return nil, ErrMissingDSN
	}

	db, err := gorm.Open(postgres.Open(cfg.WarehouseDSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)

	return New(db, cfg.WarehouseDataset, log), nil
}

var Module = fx.Provide(NewFromConfig)
