// Package server exposes the HTTP surface: health and metrics, manual sync
// triggers, the PMS webhook receiver and read access to synced facilities
// and tenants.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/storably/stashsync/internal/config"
	"github.com/storably/stashsync/internal/observability/metrics"
	"github.com/storably/stashsync/internal/pms"
	"github.com/storably/stashsync/internal/store"
	"github.com/storably/stashsync/internal/syncsvc"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Server struct {
	engine  *gin.Engine
	cfg     config.Config
	store   *store.Store
	svc     *syncsvc.Service
	pms     *pms.Client
	tracker *metrics.Tracker
	log     *zap.Logger
}

type Params struct {
	fx.In

	Engine  *gin.Engine
	Cfg     config.Config
	Store   *store.Store
	Svc     *syncsvc.Service
	PMS     *pms.Client
	Tracker *metrics.Tracker
	Log     *zap.Logger
}

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log.Named("http")))
	return r
}

func NewServer(p Params) *Server {
	return &Server{
		engine:  p.Engine,
		cfg:     p.Cfg,
		store:   p.Store,
		svc:     p.Svc,
		pms:     p.PMS,
		tracker: p.Tracker,
		log:     p.Log.Named("server"),
	}
}

func (s *Server) RegisterRoutes() {
	r := s.engine

	r.GET("/healthz", s.health)
	r.GET("/metrics", s.metrics)
	r.GET("/metrics/prometheus", gin.WrapH(promhttp.Handler()))

	r.POST("/sync/:entity", s.triggerSync)
	r.POST("/webhooks/pms", s.webhook)
	r.GET("/pms/health", s.pmsHealth)

	r.GET("/facilities", s.listFacilities)
	r.GET("/facilities/:id", s.getFacility)
	r.GET("/facilities/:id/tenants", s.listFacilityTenants)
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down http server")
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)
