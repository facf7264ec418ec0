package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"memefinder/internal/config"
	cronrunner "memefinder/internal/cron"
	"memefinder/internal/db"
	"memefinder/internal/logger"
	"memefinder/internal/marketdata"
	"memefinder/internal/models"
	"memefinder/internal/scanner"
	"memefinder/internal/socialdata"
	gormstorage "memefinder/internal/storage/gorm"
	"memefinder/internal/tracking"
)

func main() {
	cfgPath := os.Getenv("MF_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if raw := os.Getenv("MF_ENV_ONLY"); raw != "" {
		envOnly = strings.EqualFold(raw, "true") || raw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.Ping(dbConn); err != nil {
		log.Fatal("db ping failed", zap.Error(err))
	}

	if err := db.AutoMigrate(dbConn); err != nil {
		log.Fatal("auto-migrate failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	blobs := gormstorage.New(dbConn.Gorm)
	store := &tracking.PredictionStore{Blobs: blobs, Logger: log}

	market := marketdata.NewClient(&http.Client{Timeout: cfg.DexScreener.Timeout}, cfg.DexScreener.BaseURL)

	var mentions scanner.MentionSource
	if cfg.Reddit.Enabled {
		mentions = socialdata.NewClient(&http.Client{Timeout: cfg.Reddit.Timeout}, cfg.Reddit.BaseURL)
	}

	scan := &scanner.Scanner{
		Market:   market,
		Mentions: mentions,
		Store:    store,
		Logger:   log,
		Filter: models.SnapshotFilter{
			MinLiquidityUSD: cfg.Scanner.MinLiquidityUSD,
			MaxAgeHours:     cfg.Scanner.MaxAgeHours,
			MinVolume24h:    cfg.Scanner.MinVolume24h,
			MinMarketCap:    cfg.Scanner.MinMarketCap,
			MaxMarketCap:    cfg.Scanner.MaxMarketCap,
		},
	}

	scheduler := &tracking.OutcomeScheduler{
		Store:      store,
		Market:     market,
		Logger:     log,
		BatchLimit: cfg.Tracker.BatchLimit,
		FetchDelay: cfg.Tracker.FetchDelay,
	}

	analyzer := &tracking.WeightAnalyzer{Store: store, Logger: log}

	if cfg.Cron.Enabled {
		runner := cronrunner.New(log, ctx)
		if _, err := runner.Add(cfg.Cron.Scan, func(ctx context.Context) {
			scan.ScanOnce(ctx)
		}); err != nil {
			log.Fatal("schedule scan failed", zap.Error(err))
		}
		if _, err := runner.Add(cfg.Cron.OutcomeCheck, func(ctx context.Context) {
			scheduler.CheckOnce(ctx)
		}); err != nil {
			log.Fatal("schedule outcome check failed", zap.Error(err))
		}
		if _, err := runner.Add(cfg.Cron.Analyze, func(ctx context.Context) {
			if _, _, err := analyzer.Analyze(ctx); err != nil {
				log.Warn("analysis pass failed", zap.Error(err))
			}
		}); err != nil {
			log.Fatal("schedule analysis failed", zap.Error(err))
		}
		runner.Start()
		defer runner.Stop()
	}

	// First pass right away so a fresh deployment starts tracking without
	// waiting out a cron interval.
	scan.ScanOnce(ctx)
	scheduler.CheckOnce(ctx)

	log.Info("tracker running",
		zap.String("scan", cfg.Cron.Scan),
		zap.String("outcome_check", cfg.Cron.OutcomeCheck),
		zap.String("analyze", cfg.Cron.Analyze))

	<-ctx.Done()
	log.Info("shutting down")
}
