// Package app wires configuration, storage and services for the server and CLI.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/personnel_accounting/configs"
	"github.com/personnel_accounting/internal/audit"
	"github.com/personnel_accounting/internal/auth"
	"github.com/personnel_accounting/internal/services"
)

// Services bundles every service built on one database handle.
type Services struct {
	DB          *gorm.DB
	Recorder    *audit.Recorder
	Transitions services.TransitionService
	Personnel   services.PersonnelService
	Staffing    services.StaffingService
	Orders      services.OrderService
	Documents   services.DocumentService
	Reporting   services.ReportingService
	Audit       services.AuditService
	Auth        services.AuthService

	Issuer   *auth.TokenIssuer
	Denylist auth.Denylist
}

// NewServices builds the service graph. A nil denylist selects the in-memory one.
func NewServices(db *gorm.DB, cfg configs.Configuration, denylist auth.Denylist) *Services {
	if denylist == nil {
		denylist = auth.NewMemoryDenylist()
	}
	recorder := audit.NewRecorder()
	transitions := services.NewTransitionService(db, recorder)
	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	return &Services{
		DB:          db,
		Recorder:    recorder,
		Transitions: transitions,
		Personnel:   services.NewPersonnelService(db, recorder, transitions),
		Staffing:    services.NewStaffingService(db, recorder),
		Orders:      services.NewOrderService(db, recorder, transitions),
		Documents:   services.NewDocumentService(db, recorder, cfg.MediaRoot, cfg.MaxUploadSize),
		Reporting:   services.NewReportingService(db, recorder),
		Audit:       services.NewAuditService(db),
		Auth:        services.NewAuthService(db, recorder, issuer, denylist),
		Issuer:      issuer,
		Denylist:    denylist,
	}
}

// NewRedis connects to REDIS_URL. It returns nil when no URL is configured.
func NewRedis(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	logrus.WithField("addr", opts.Addr).Info("redis connected")
	return client, nil
}

// Denylist picks the redis denylist when client is set.
func Denylist(client *redis.Client) auth.Denylist {
	if client == nil {
		return auth.NewMemoryDenylist()
	}
	return auth.NewRedisDenylist(client)
}
