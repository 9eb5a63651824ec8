package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/stationdash/internal/auth"
	"github.com/mamadbah2/stationdash/internal/cache"
	"github.com/mamadbah2/stationdash/internal/config"
	"github.com/mamadbah2/stationdash/internal/repository/mongodb"
	"github.com/mamadbah2/stationdash/internal/repository/sheets"
	"github.com/mamadbah2/stationdash/internal/scheduler"
	"github.com/mamadbah2/stationdash/internal/server/handlers"
	"github.com/mamadbah2/stationdash/internal/server/router"
	commandsvc "github.com/mamadbah2/stationdash/internal/service/commands"
	reportingsvc "github.com/mamadbah2/stationdash/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/stationdash/internal/service/whatsapp"
	"github.com/mamadbah2/stationdash/pkg/clients/stationapi"
	whatsappclient "github.com/mamadbah2/stationdash/pkg/clients/whatsapp"
	"github.com/mamadbah2/stationdash/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.NewWithLevel(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid reporting timezone", zap.Error(err))
	}

	session, err := auth.NewSession(cfg.API, auth.NewFileTokenStore(cfg.Auth.TokenFile), baseLogger.Named("auth"))
	if err != nil {
		baseLogger.Fatal("failed to load session", zap.Error(err))
	}
	session.OnExpired(func() {
		baseLogger.Warn("station api session expired, run `stationctl login` to sign in again")
	})

	apiClient := stationapi.NewClient(cfg.API, session, baseLogger.Named("client.stationapi"))

	recordCache, err := cache.NewRecordCache(cfg.Cache)
	if err != nil {
		baseLogger.Fatal("failed to init record cache", zap.Error(err))
	}
	defer func() {
		if err := recordCache.Close(); err != nil {
			baseLogger.Error("failed to close record cache", zap.Error(err))
		}
	}()

	source := cache.NewSource(apiClient, recordCache, baseLogger.Named("cache"))
	reportingSvc := reportingsvc.NewService(source, loc, baseLogger.Named("svc.reporting"),
		reportingsvc.WithDefaultMetric(cfg.Reporting.DefaultMetric))

	var (
		snapshotStore scheduler.SnapshotStore
		snapshotList  handlers.SnapshotLister
	)
	if cfg.MongoDB.Enabled() {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		snapshotStore, snapshotList = mongoRepo, mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, kpi history disabled")
	}

	var kpiSheet scheduler.SnapshotSheet
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		kpiSheet = sheets.NewKPISheet(sheetsRepo, cfg.Sheets.KPIRange, baseLogger.Named("repo.sheets"))
	}

	var (
		notifier       scheduler.Notifier
		webhookHandler *handlers.WebhookHandler
	)
	if cfg.WhatsApp.Enabled() {
		commandDispatcher := commandsvc.NewService(reportingSvc, baseLogger.Named("svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp, baseLogger.Named("client.whatsapp"))
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, baseLogger.Named("svc.whatsapp"))
		webhookHandler = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp access token missing, commands and digest disabled")
	}

	reportHandler := handlers.NewReportHandler(reportingSvc, snapshotList, baseLogger.Named("handlers.reports"))
	engine := router.New(reportHandler, webhookHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, reportingSvc, snapshotStore, kpiSheet, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
