// One-shot analysis of a single German listing URL, printed to stdout.
package main

import (
	"context"
	"flag"
	"fmt"
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
	"github.com/driving-passion/import-bot/internal/scraper"
	"github.com/driving-passion/import-bot/internal/tools"
	"github.com/driving-passion/import-bot/internal/valuation"
)

const (
	_cfgFilePath = "./configs/import-bot.yaml"
)

func main() {
	url := flag.String("url", "", "mobile.de or autoscout24.de listing url")
	flag.Parse()
	if *url == "" {
		log.Fatalf("usage: analyze -url <listing url>")
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Warn)
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

	token := os.Getenv("APIFY_TOKEN")
	if token == "" {
		zapLogger.Fatalf("APIFY_TOKEN is required to scrape listings")
	}
	apify := scraper.NewApifyClient(cfg.Scraper, token, zapLogger)

	var refiner analyzer.Refiner
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		refiner = valuation.NewService(cfg.Valuation, key, zapLogger)
	}

	pipeline := analyzer.New(
		scraper.NewService(apify, cfg.Scraper, zapLogger),
		market.NewService(cfg.Market, cfg.Scraper, apify, zapLogger),
		refiner,
		engine,
		nil,
		zapLogger,
	)

	rep, err := pipeline.AnalyzeURL(ctx, analyzer.Request{URL: *url})
	if err != nil {
		zapLogger.Fatalf("%s: analysis failed", err)
	}

	printReport(rep)
}

func printReport(rep analyzer.Report) {
	v := rep.Data.Vehicle
	fmt.Printf("\n%s %s (%d), %d km, %s/%s\n", v.Make, v.Model, v.Year, v.MileageKM, v.FuelType, v.Transmission)
	fmt.Printf("%s\n\n", v.ListingURL)

	fmt.Printf("German asking price:  %s\n", tools.FormatEUR(rep.Data.Pricing.GermanPrice))
	fmt.Printf("Dutch market value:   %s (%d comparables from %v)\n",
		tools.FormatEUR(rep.Data.Pricing.DutchMarketValue),
		rep.Data.Pricing.ComparablesCount, rep.Data.Pricing.Sources)
	if r := rep.Data.Pricing.DutchMarketValueRange; r != nil {
		fmt.Printf("Value range:          %s - %s\n", tools.FormatEUR(r.Low), tools.FormatEUR(r.High))
	}

	fmt.Printf("\nBPM\n")
	fmt.Printf("  Gross BPM:          %s\n", tools.FormatEUR(rep.Data.BPM.TotalGrossBPM))
	fmt.Printf("  Depreciation:       %.0f%% (%d months)\n", rep.Data.BPM.DepreciationPercentage, rep.Data.BPM.VehicleAgeMonths)
	fmt.Printf("  Rest BPM:           %s\n", tools.FormatEUR(rep.Data.BPM.RestBPM))

	fmt.Printf("\nCosts\n")
	fmt.Printf("  Import costs:       %s\n", tools.FormatEUR(rep.Data.Costs.TotalImportCosts))
	fmt.Printf("  Total cost:         %s\n", tools.FormatEUR(rep.Data.Costs.TotalCost))

	fmt.Printf("\nResult\n")
	fmt.Printf("  Margin:             %s (%.1f%%)\n", tools.FormatEUR(rep.Data.Result.Margin), rep.Data.Result.MarginPercentage)
	fmt.Printf("  Safe margin:        %s\n", tools.FormatEUR(rep.Data.Result.SafeMargin))
	fmt.Printf("  Recommendation:     %s\n", rep.Data.Result.Recommendation)

	if ai := rep.Data.AIValuation; ai != nil {
		fmt.Printf("\nAI valuation (confidence %.0f%%)\n", ai.Confidence*100)
		fmt.Printf("  Retail:             %s\n", tools.FormatEUR(ai.EstimatedRetailPrice))
		fmt.Printf("  Quick sale:         %s\n", tools.FormatEUR(ai.EstimatedQuickSalePrice))
		if ai.Reasoning != "" {
			fmt.Printf("  %s\n", ai.Reasoning)
		}
	}
	fmt.Println()
}
