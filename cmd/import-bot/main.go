package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/driving-passion/import-bot/internal/analyzer"
	"github.com/driving-passion/import-bot/internal/arbitrage"
	"github.com/driving-passion/import-bot/internal/bpm"
	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/market"
	"github.com/driving-passion/import-bot/internal/postgres"
	"github.com/driving-passion/import-bot/internal/report"
	"github.com/driving-passion/import-bot/internal/scraper"
	"github.com/driving-passion/import-bot/internal/server"
	"github.com/driving-passion/import-bot/internal/valuation"
)

const (
	_cfgFilePath = "./configs/import-bot.yaml"
)

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(_cfgFilePath)
	if err != nil {
		zapLogger.Fatalf("%s: can't load config", err)
	}

	calc, err := bpm.NewCalculator(cfg.TaxSchedule)
	if err != nil {
		zapLogger.Fatalf("%s: can't build bpm calculator", err)
	}

	engine, err := arbitrage.NewEngine(cfg.ImportCosts, cfg.Thresholds, calc, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't build arbitrage engine", err)
	}

	var apify *scraper.ApifyClient
	if token := os.Getenv("APIFY_TOKEN"); token != "" {
		apify = scraper.NewApifyClient(cfg.Scraper, token, zapLogger)
	} else {
		zapLogger.Warnf("APIFY_TOKEN not set, scraping disabled")
	}

	scraperService := scraper.NewService(apify, cfg.Scraper, zapLogger)
	marketService := market.NewService(cfg.Market, cfg.Scraper, apify, zapLogger)

	var refiner analyzer.Refiner
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		refiner = valuation.NewService(cfg.Valuation, key, zapLogger)
	} else {
		zapLogger.Warnf("OPENROUTER_API_KEY not set, ai valuation disabled")
	}

	var store *report.Store
	pgConfig := postgres.NewConfigFromEnv().Setup()
	zapLogger.Debugf("trying to connect to db with: %s", pgConfig)
	db, err := postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Warnf("%s: can't connect to db, reports won't be persisted", err)
	} else {
		store, err = report.NewStore(db, zapLogger)
		if err != nil {
			zapLogger.Fatalf("%s: can't init report store", err)
		}
	}

	var reportStore analyzer.ReportStore
	var reportLister server.ReportLister
	if store != nil {
		reportStore = store
		reportLister = store
	}

	pipeline := analyzer.New(scraperService, marketService, refiner, engine, reportStore, zapLogger)
	handler := server.NewHandler(pipeline, calc, reportLister, zapLogger)

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	httpServer := server.NewHTTPServer(ctx, cfg.Server, handler.Router())
	if err := httpServer.Run(ctx); err != nil {
		zapLogger.Errorf("%s: http server stopped", err)
	}

	zapLogger.Infoln("start graceful shutdown")
}
