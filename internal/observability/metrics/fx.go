package metrics

import (
	"github.com/storably/stashsync/internal/clock"
	appconfig "github.com/storably/stashsync/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("observability.metrics",
	fx.Provide(NewProvider),
	fx.Provide(NewInstruments),
	fx.Provide(provideTracker),
)

func provideTracker(clk clock.Clock, cfg appconfig.Config, instruments *Instruments) *Tracker {
	return NewTracker(clk, cfg.Sync.FreshnessWindow, appconfig.JobNames(), instruments)
}
