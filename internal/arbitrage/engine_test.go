package arbitrage

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/driving-passion/import-bot/internal/bpm"
	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	schedule := config.TaxScheduleConfig{}
	if err := schedule.Setup(); err != nil {
		t.Fatalf("can't setup schedule: %s", err)
	}
	calc, err := bpm.NewCalculatorWithClock(schedule, func() time.Time {
		return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("can't build calculator: %s", err)
	}

	costs := config.ImportCostsConfig{}
	if err := costs.Setup(); err != nil {
		t.Fatalf("can't setup costs: %s", err)
	}
	thresholds := config.ThresholdsConfig{}
	if err := thresholds.Setup(); err != nil {
		t.Fatalf("can't setup thresholds: %s", err)
	}

	engine, err := NewEngine(costs, thresholds, calc, nil)
	if err != nil {
		t.Fatalf("can't build engine: %s", err)
	}
	return engine
}

func testListing(price float64) model.Listing {
	return model.Listing{
		Make:                  "Volkswagen",
		Model:                 "Golf",
		Year:                  2021,
		PriceEUR:              price,
		FuelType:              model.Petrol,
		CO2GKM:                120,
		FirstRegistrationDate: time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestAnalyzeBreakdown(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Analyze(Input{
		Listing:     testListing(15000),
		Comparables: comps(24000, 25000, 26000),
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got.EstimatedMarketValue != 25000 {
		t.Errorf("market value = %g, want 25000", got.EstimatedMarketValue)
	}
	if got.ComparablesUsed != 3 {
		t.Errorf("comparables used = %d, want 3", got.ComparablesUsed)
	}

	// 450 + 85 + 50 + 200 + 12.95
	if got.Costs.TotalImportCosts != 797.95 {
		t.Errorf("import costs = %g, want 797.95", got.Costs.TotalImportCosts)
	}
	wantTotal := 15000 + got.Tax.RestBPM + 797.95
	if math.Abs(got.Costs.TotalCost-wantTotal) > 0.01 {
		t.Errorf("total cost = %g, want %g", got.Costs.TotalCost, wantTotal)
	}
	if math.Abs(got.Margin-(25000-wantTotal)) > 0.01 {
		t.Errorf("margin = %g, want %g", got.Margin, 25000-wantTotal)
	}
	if got.SafeMargin != got.Margin {
		t.Errorf("safe margin = %g without quick-sale input, want margin %g", got.SafeMargin, got.Margin)
	}
}

func TestAnalyzeRecommendationBoundaries(t *testing.T) {
	engine := newTestEngine(t)
	listing := testListing(10000)

	base, err := engine.Analyze(Input{Listing: listing, Comparables: comps(20000)})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	totalCost := base.Costs.TotalCost

	tests := []struct {
		name   string
		margin float64
		want   model.Recommendation
	}{
		{"well above go", 5000, model.Go},
		{"exactly at go", 2500, model.Go},
		{"just below go", 2499.99, model.Consider},
		{"exactly at consider", 1000, model.Consider},
		{"just below consider", 999.99, model.NoGo},
		{"negative margin", -1500, model.NoGo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := totalCost + tt.margin
			got, err := engine.Analyze(Input{
				Listing:     listing,
				MarketValue: &value,
			})
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if got.Margin != tt.margin {
				t.Fatalf("margin = %g, want %g", got.Margin, tt.margin)
			}
			if got.Recommendation != tt.want {
				t.Errorf("recommendation = %s, want %s", got.Recommendation, tt.want)
			}
		})
	}
}

func TestAnalyzeSafeMarginGate(t *testing.T) {
	engine := newTestEngine(t)
	listing := testListing(10000)

	base, err := engine.Analyze(Input{Listing: listing, Comparables: comps(20000)})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	totalCost := base.Costs.TotalCost

	value := totalCost + 3000

	// Quick sale barely above cost demotes a GO to CONSIDER.
	thinQuickSale := totalCost + 400
	got, err := engine.Analyze(Input{
		Listing:        listing,
		MarketValue:    &value,
		QuickSaleValue: &thinQuickSale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Recommendation != model.Consider {
		t.Errorf("recommendation = %s with thin quick-sale margin, want CONSIDER", got.Recommendation)
	}
	if got.SafeMargin != 400 {
		t.Errorf("safe margin = %g, want 400", got.SafeMargin)
	}

	// A healthy quick-sale margin keeps the GO.
	fatQuickSale := totalCost + 2000
	got, err = engine.Analyze(Input{
		Listing:        listing,
		MarketValue:    &value,
		QuickSaleValue: &fatQuickSale,
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Recommendation != model.Go {
		t.Errorf("recommendation = %s with healthy quick-sale margin, want GO", got.Recommendation)
	}
}

func TestAnalyzeCostOverrides(t *testing.T) {
	engine := newTestEngine(t)

	transport := 600.0
	other := 150.0
	got, err := engine.Analyze(Input{
		Listing:     testListing(15000),
		Comparables: comps(25000),
		CostOverrides: &config.ImportCostOverrides{
			Transport: &transport,
			Other:     &other,
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got.Costs.Transport != 600 {
		t.Errorf("transport = %g, want 600", got.Costs.Transport)
	}
	if got.Costs.Other != 150 {
		t.Errorf("other = %g, want 150", got.Costs.Other)
	}
	// 600 + 85 + 50 + 200 + 12.95 + 150
	if got.Costs.TotalImportCosts != 1097.95 {
		t.Errorf("import costs = %g, want 1097.95", got.Costs.TotalImportCosts)
	}

	negative := -10.0
	_, err = engine.Analyze(Input{
		Listing:       testListing(15000),
		Comparables:   comps(25000),
		CostOverrides: &config.ImportCostOverrides{Transport: &negative},
	})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("negative override: got %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeThresholdOverrides(t *testing.T) {
	engine := newTestEngine(t)
	listing := testListing(10000)

	base, err := engine.Analyze(Input{Listing: listing, Comparables: comps(20000)})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	value := base.Costs.TotalCost + 1500

	got, err := engine.Analyze(Input{
		Listing:     listing,
		MarketValue: &value,
		Thresholds:  &config.ThresholdsConfig{Go: 1200, Consider: 600, SafeMargin: 300},
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Recommendation != model.Go {
		t.Errorf("recommendation = %s with lowered thresholds, want GO", got.Recommendation)
	}

	_, err = engine.Analyze(Input{
		Listing:     listing,
		MarketValue: &value,
		Thresholds:  &config.ThresholdsConfig{Go: 500, Consider: 1000, SafeMargin: 100},
	})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("inverted thresholds: got %v, want ErrInvalidInput", err)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	engine := newTestEngine(t)

	_, err := engine.Analyze(Input{Listing: testListing(0), Comparables: comps(20000)})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero price: got %v, want ErrInvalidInput", err)
	}

	_, err = engine.Analyze(Input{Listing: testListing(15000)})
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("no comparables: got %v, want ErrInsufficientData", err)
	}

	future := testListing(15000)
	future.FirstRegistrationDate = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = engine.Analyze(Input{Listing: future, Comparables: comps(20000)})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("future registration: got %v, want ErrInvalidInput", err)
	}
}

func TestRecommendBoundaries(t *testing.T) {
	thresholds := config.ThresholdsConfig{Go: 2500, Consider: 1000, SafeMargin: 500}

	if got := Recommend(2500, thresholds); got != model.Go {
		t.Errorf("Recommend(2500) = %s, want GO", got)
	}
	if got := Recommend(1000, thresholds); got != model.Consider {
		t.Errorf("Recommend(1000) = %s, want CONSIDER", got)
	}
	if got := Recommend(999.99, thresholds); got != model.NoGo {
		t.Errorf("Recommend(999.99) = %s, want NO_GO", got)
	}
}
