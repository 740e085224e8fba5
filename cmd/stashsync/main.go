package main

import (
	"github.com/storably/stashsync/internal/clock"
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/migration"
	"github.com/storably/stashsync/internal/observability/metrics"
	"github.com/storably/stashsync/internal/pms"
	"github.com/storably/stashsync/internal/retry"
	"github.com/storably/stashsync/internal/scheduler"
	"github.com/storably/stashsync/internal/server"
	"github.com/storably/stashsync/internal/store"
	"github.com/storably/stashsync/internal/syncsvc"
	"github.com/storably/stashsync/internal/warehouse"
	"github.com/storably/stashsync/pkg/db"
	"github.com/storably/stashsync/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
		clock.Module,

		db.Module,
		migration.Module,
		warehouse.Module,

		retry.Module,
		pms.Module,
		store.Module,
		metrics.Module,

		syncsvc.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}
