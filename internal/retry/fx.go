package retry

import (
	"github.com/storably/stashsync/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(func(cfg config.Config, log *zap.Logger) *Executor {
	return New(cfg.Retry, log)
})
