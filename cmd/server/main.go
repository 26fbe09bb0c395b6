package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/personnel_accounting/configs"
	_ "github.com/personnel_accounting/docs"
	"github.com/personnel_accounting/internal/app"
	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/handlers"
	"github.com/personnel_accounting/internal/routes"
	"github.com/personnel_accounting/pkg/db"
	"github.com/personnel_accounting/pkg/logger"
	"github.com/personnel_accounting/pkg/metrics"
	"github.com/personnel_accounting/pkg/utils"
)

//go:generate swag init -g cmd/server/main.go -o docs

// @title ASOOS OBRIG API
// @version 1.0
// @description Personnel records, staffing, orders and audit trail.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	configs.LoadConfig()
	cfg := configs.AppConfig
	if err := logger.Setup(cfg.LogLevel, cfg.LogFormat, os.Stdout); err != nil {
		logrus.WithError(err).Fatal("invalid log settings")
	}
	gin.SetMode(cfg.GinMode)

	if err := db.InitDB(cfg.Database, logger.GormLogger(cfg.LogLevel)); err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}
	defer func() {
		if err := db.CloseDB(); err != nil {
			logrus.WithError(err).Warn("failed to close database")
		}
	}()

	if err := utils.RegisterValidators(); err != nil {
		logrus.WithError(err).Fatal("failed to register validators")
	}

	rdb, err := app.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to redis")
	}
	if rdb != nil {
		defer rdb.Close()
	}

	svc := app.NewServices(db.GetDB(), cfg, app.Denylist(rdb))

	authorizer, err := auth.NewAuthorizer()
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize authorization")
	}
	store, err := auth.NewLimiterStore(rdb)
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize rate limit store")
	}
	loginLimiter, err := auth.RateLimit(cfg.LoginRateLimit, store)
	if err != nil {
		logrus.WithError(err).Fatal("invalid LOGIN_RATE_LIMIT")
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logrus.WithError(err).Fatal("invalid TRUSTED_PROXIES")
	}
	router.Use(gin.Recovery(), logger.Middleware())
	if cfg.MetricsEnabled {
		router.Use(metrics.Middleware())
	}

	deps := routes.Deps{
		Auth:         handlers.NewAuthHandler(svc.Auth),
		Personnel:    handlers.NewPersonnelHandler(svc.Personnel, svc.Staffing),
		Staffing:     handlers.NewStaffingHandler(svc.Staffing),
		Orders:       handlers.NewOrderHandler(svc.Orders),
		Documents:    handlers.NewDocumentHandler(svc.Documents),
		Reporting:    handlers.NewReportingHandler(svc.Reporting),
		Audit:        handlers.NewAuditHandler(svc.Audit),
		Issuer:       svc.Issuer,
		Denylist:     svc.Denylist,
		Authorizer:   authorizer,
		LoginLimiter: loginLimiter,
		Swagger:      cfg.GinMode != gin.ReleaseMode,
	}
	if cfg.MetricsEnabled {
		deps.MetricsPath = cfg.MetricsPath
	}
	routes.SetupRoutes(router, deps)

	logrus.WithField("port", cfg.ServerPort).Info("server starting")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logrus.WithError(err).Fatal("failed to run server")
	}
}
