// Package scheduler drives the recurring sync jobs. Each job name gets one
// cron entry; an entry still running when its next tick fires is skipped
// rather than stacked, and panics inside a job are recovered so one bad run
// cannot take the process down.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/syncsvc"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// jobTimeout bounds a single scheduled run.
const jobTimeout = 30 * time.Minute

// Syncer runs one sync job by name.
type Syncer interface {
	SyncEntity(ctx context.Context, name string) (syncsvc.Result, error)
}

type Scheduler struct {
	cron *cron.Cron
	svc  Syncer
	log  *zap.Logger
}

// cronLogger adapts zap to the cron logging interface.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Infow(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}

// New registers one entry per configured job. A job with an empty expression
// is left unscheduled; an unparseable expression fails construction.
func New(cfg config.Config, svc Syncer, log *zap.Logger) (*Scheduler, error) {
	clog := cronLogger{log: log.Named("cron").Sugar()}
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(clog),
			cron.Recover(clog),
		)),
		svc: svc,
		log: log.Named("scheduler"),
	}

	for _, job := range config.JobNames() {
		expr := cfg.Sync.Crons[job]
		if expr == "" {
			s.log.Warn("job left unscheduled", zap.String("job", job))
			continue
		}
		job := job
		if _, err := s.cron.AddFunc(expr, func() { s.run(job) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", job, expr, err)
		}
	}
	return s, nil
}

func (s *Scheduler) run(job string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if _, err := s.svc.SyncEntity(ctx, job); err != nil {
		// the run already reported itself to the tracker; this is the
		// scheduler-side trace of the failure
		s.log.Error("scheduled sync failed",
			zap.String("job", job),
			zap.Error(err),
		)
	}
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.log.Info("starting scheduler", zap.Int("jobs", s.Entries()))
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var Module = fx.Module("scheduler",
	fx.Provide(func(cfg config.Config, svc *syncsvc.Service, log *zap.Logger) (*Scheduler, error) {
		return New(cfg, svc, log)
	}),
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}
