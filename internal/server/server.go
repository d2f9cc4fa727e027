package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aibes/standsight/internal/config"
	"github.com/aibes/standsight/internal/dashboard"
	"github.com/aibes/standsight/internal/dbsession"
	"github.com/aibes/standsight/internal/metrics"
	"github.com/aibes/standsight/internal/notify"
	"github.com/aibes/standsight/internal/report"
	reportdomain "github.com/aibes/standsight/internal/reportstore/domain"
	settingsdomain "github.com/aibes/standsight/internal/settings/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	sessions     *dbsession.Manager
	dashboardSvc *dashboard.Service
	assembler    *report.Assembler
	reportStore  reportdomain.Store
	settingsSvc  settingsdomain.Service
	dispatcher   *notify.Dispatcher
	metrics      *metrics.Metrics
	log          *zap.Logger
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Sessions     *dbsession.Manager
	DashboardSvc *dashboard.Service
	Assembler    *report.Assembler
	ReportStore  reportdomain.Store
	SettingsSvc  settingsdomain.Service
	Dispatcher   *notify.Dispatcher
	Metrics      *metrics.Metrics
	Log          *zap.Logger
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		sessions:     p.Sessions,
		dashboardSvc: p.DashboardSvc,
		assembler:    p.Assembler,
		reportStore:  p.ReportStore,
		settingsSvc:  p.SettingsSvc,
		dispatcher:   p.Dispatcher,
		metrics:      p.Metrics,
		log:          p.Log.Named("http.server"),
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Database sessions --------
	api.POST("/session/connect", s.Connect)
	api.DELETE("/session", s.SessionRequired(), s.Disconnect)

	// -------- Dashboard --------
	api.GET("/dashboard/overview", s.SessionRequired(), s.GetOverview)
	api.GET("/dashboard/trend", s.SessionRequired(), s.GetTrend)
	api.GET("/dashboard/forecast", s.SessionRequired(), s.GetForecast)

	// -------- Analysis --------
	api.GET("/analysis/sales", s.SessionRequired(), s.GetSalesAnalysis)
	api.GET("/analysis/landbank", s.SessionRequired(), s.GetLandBankAnalysis)
	api.GET("/analysis/projects", s.SessionRequired(), s.GetProjectAnalysis)

	// -------- Reports --------
	api.POST("/reports", s.SessionRequired(), s.GenerateReport)
	api.GET("/reports", s.ListReports)
	api.GET("/reports/:filename", s.DownloadReport)
	api.DELETE("/reports/:filename", s.DeleteReport)
	api.POST("/reports/:filename/send", s.SendReport)

	// -------- Settings --------
	api.GET("/settings/company", s.GetCompanySettings)
	api.PUT("/settings/company", s.UpdateCompanySettings)
	api.GET("/settings/email", s.GetEmailSettings)
	api.PUT("/settings/email", s.UpdateEmailSettings)
}
