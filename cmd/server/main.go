package main

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	firebase "firebase.google.com/go/v4"
	"github.com/shopspring/decimal"
	"google.golang.org/api/option"

	"github.com/rdvnburton-lab/istasyon-sub003/internal/authz"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/config"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/db"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/handler"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/notify"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/repository"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/server"
	"github.com/rdvnburton-lab/istasyon-sub003/internal/service"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect database", "err", err)
		os.Exit(1)
	}
	defer pg.Close()

	// repositories
	userRepo := repository.UserRepository{DB: pg}
	stationRepo := repository.StationRepository{DB: pg}
	employeeRepo := repository.EmployeeRepository{DB: pg}
	auditRepo := repository.AuditLogRepository{DB: pg}
	shiftRepo := repository.ShiftRepository{DB: pg, Audit: auditRepo, Currency: cfg.DefaultCurrency}
	salesRepo := repository.SalesLineRepository{DB: pg, Currency: cfg.DefaultCurrency}
	collectionRepo := repository.CollectionRepository{DB: pg, Currency: cfg.DefaultCurrency}
	grantRepo := repository.GrantRepository{DB: pg}
	tokenRepo := repository.DeviceTokenRepository{DB: pg}

	// permission resolver, refreshed from storage
	resolver := authz.NewResolver()
	refresher := service.GrantRefresher{
		Source:   grantRepo,
		Resolver: resolver,
		Logger:   logger,
		Period:   cfg.GrantRefreshPeriod,
	}
	go refresher.Run(ctx)

	// notifications (optional)
	var notifier service.Notifier
	if cfg.FirebaseProjectID != "" {
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, firebaseOptions(cfg)...)
		if err != nil {
			logger.Error("failed to init firebase app", "err", err)
			os.Exit(1)
		}
		fcm, err := notify.NewFCMNotifier(ctx, app, tokenRepo, logger)
		if err != nil {
			logger.Error("failed to init fcm notifier", "err", err)
			os.Exit(1)
		}
		notifier = fcm
	}

	// services
	authSvc := service.AuthService{Config: cfg, Users: userRepo, Logger: logger}
	reconcileSvc := service.ReconcileService{Shifts: shiftRepo, Currency: cfg.DefaultCurrency}
	workflowSvc := service.WorkflowService{
		Shifts:   shiftRepo,
		Resolver: resolver,
		Notifier: notifier,
		Logger:   logger,
	}

	// handlers
	healthHandler := handler.HealthHandler{DB: pg}
	authHandler := handler.AuthHandler{Service: &authSvc}
	shiftHandler := handler.ShiftHandler{
		Repo:        shiftRepo,
		Sales:       salesRepo,
		Collections: collectionRepo,
		Audit:       auditRepo,
		Workflow:    workflowSvc,
		Currency:    cfg.DefaultCurrency,
	}
	reconciliationHandler := handler.ReconciliationHandler{
		Service:  reconcileSvc,
		Shifts:   shiftRepo,
		Stations: stationRepo,
		Defaults: service.Thresholds{
			Mode:     service.ThresholdMode(cfg.ReconThresholdMode),
			Warn:     decimal.New(cfg.ReconWarn, 0),
			Critical: decimal.New(cfg.ReconCritical, 0),
		},
	}
	employeeHandler := handler.EmployeeHandler{Repo: employeeRepo}
	stationHandler := handler.StationHandler{Repo: stationRepo}
	notificationHandler := handler.NotificationHandler{Repo: tokenRepo}
	docsHandler := handler.DocsHandler{OpenAPIPath: "openapi.yaml"}

	router := server.NewRouter(cfg, logger,
		healthHandler, authHandler, shiftHandler, reconciliationHandler,
		employeeHandler, stationHandler, notificationHandler, docsHandler)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

func firebaseOptions(cfg config.Config) []option.ClientOption {
	if cfg.FirebaseCredFile == "" {
		return nil
	}

	cred := cfg.FirebaseCredFile
	// Allow inline JSON or base64-encoded JSON in env to avoid writing a file.
	if strings.HasPrefix(strings.TrimSpace(cred), "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cred))}
	}
	if decoded, err := base64.StdEncoding.DecodeString(cred); err == nil && strings.HasPrefix(strings.TrimSpace(string(decoded)), "{") {
		return []option.ClientOption{option.WithCredentialsJSON(decoded)}
	}

	return []option.ClientOption{option.WithCredentialsFile(cred)}
}
