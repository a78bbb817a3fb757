// Package analyzer ties the pipeline together: scrape a German
// listing, gather Dutch comparables, refine the valuation and run the
// arbitrage engine over the lot.
package analyzer

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/driving-passion/import-bot/internal/arbitrage"
	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/market"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/pricing"
	"github.com/driving-passion/import-bot/internal/report"
)

const _maxReportComparables = 10

type ListingSource interface {
	ScrapeListing(ctx context.Context, url string) (model.Listing, error)
}

type ComparablesSource interface {
	Search(ctx context.Context, listing model.Listing) ([]model.Comparable, error)
}

type Refiner interface {
	Valuate(ctx context.Context, listing model.Listing, comparables []model.Comparable) (model.Valuation, error)
}

type ReportStore interface {
	Save(ctx context.Context, r report.Report) error
}

// Report is the full analysis response for one listing.
type Report struct {
	Success   bool       `json:"success"`
	RequestID string     `json:"requestId"`
	Data      ReportData `json:"data"`
	Meta      ReportMeta `json:"meta"`
}

type ReportData struct {
	Vehicle     model.Listing             `json:"vehicle"`
	Pricing     PricingSummary            `json:"pricing"`
	BPM         model.TaxResult           `json:"bpm"`
	Costs       model.CostBreakdown       `json:"costs"`
	Result      ResultSummary             `json:"result"`
	AIValuation *model.Valuation          `json:"aiValuation,omitempty"`
	Comparables []pricing.ScoredComparable `json:"comparables"`
	MarketStats model.MarketStats         `json:"marketStats"`
}

type PricingSummary struct {
	GermanPrice           float64     `json:"germanPrice"`
	DutchMarketValue      float64     `json:"dutchMarketValue"`
	DutchMarketValueRange *ValueRange `json:"dutchMarketValueRange,omitempty"`
	ComparablesCount      int         `json:"comparablesCount"`
	Sources               []string    `json:"sources"`
}

type ValueRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

type ResultSummary struct {
	Margin           float64              `json:"margin"`
	MarginPercentage float64              `json:"marginPercentage"`
	SafeMargin       float64              `json:"safeMargin"`
	Recommendation   model.Recommendation `json:"recommendation"`
}

type ReportMeta struct {
	CalculatedAt     time.Time `json:"calculatedAt"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`
}

// Request carries per-call tweaks on top of a listing URL.
type Request struct {
	URL           string                      `json:"url"`
	CostOverrides *config.ImportCostOverrides `json:"costOverrides,omitempty"`
	Thresholds    *config.ThresholdsConfig    `json:"thresholds,omitempty"`
}

type Analyzer struct {
	listings    ListingSource
	comparables ComparablesSource
	refiner     Refiner
	engine      *arbitrage.Engine
	store       ReportStore

	now    func() time.Time
	logger logger.Logger
}

// New builds the pipeline. The refiner and the store are optional:
// without a refiner the engine uses the raw market estimate, without a
// store reports are not persisted.
func New(
	listings ListingSource,
	comparables ComparablesSource,
	refiner Refiner,
	engine *arbitrage.Engine,
	store ReportStore,
	logger logger.Logger,
) *Analyzer {
	return &Analyzer{
		listings:    listings,
		comparables: comparables,
		refiner:     refiner,
		engine:      engine,
		store:       store,
		now:         time.Now,
		logger:      logger,
	}
}

// AnalyzeURL runs the full pipeline for one listing URL.
func (a *Analyzer) AnalyzeURL(ctx context.Context, req Request) (Report, error) {
	started := a.now()

	listing, err := a.listings.ScrapeListing(ctx, req.URL)
	if err != nil {
		return Report{}, fmt.Errorf("%w: can't scrape listing", err)
	}
	a.logger.Infof("scraped %s %s (%d), asking %g EUR", listing.Make, listing.Model, listing.Year, listing.PriceEUR)

	comparables, err := a.comparables.Search(ctx, listing)
	if err != nil {
		return Report{}, fmt.Errorf("%w: can't search comparables", err)
	}
	a.logger.Infof("found %d comparables for %s %s", len(comparables), listing.Make, listing.Model)

	scored := pricing.ScoreComparables(listing.Year, listing.MileageKM, listing.Features, comparables)
	weighted := pricing.WeightedMarketValue(scored, 0.5)

	in := arbitrage.Input{
		Listing:       listing,
		Comparables:   comparables,
		CostOverrides: req.CostOverrides,
		Thresholds:    req.Thresholds,
	}
	if weighted.EstimatedValue > 0 {
		in.MarketValue = &weighted.EstimatedValue
	}

	var valuation *model.Valuation
	if a.refiner != nil {
		v, err := a.refiner.Valuate(ctx, listing, comparables)
		if err != nil {
			a.logger.Errorf("%s: valuation refiner failed, using market estimate", err)
		} else {
			valuation = &v
			if v.EstimatedRetailPrice > 0 {
				in.MarketValue = &v.EstimatedRetailPrice
			}
			if v.EstimatedQuickSalePrice > 0 {
				in.QuickSaleValue = &v.EstimatedQuickSalePrice
			}
		}
	}

	result, err := a.engine.Analyze(in)
	if err != nil {
		return Report{}, err
	}

	rep := a.buildReport(listing, comparables, scored, weighted, valuation, result, started)
	a.persist(ctx, rep)

	return rep, nil
}

func (a *Analyzer) buildReport(
	listing model.Listing,
	comparables []model.Comparable,
	scored []pricing.ScoredComparable,
	weighted pricing.MarketValue,
	valuation *model.Valuation,
	result model.ArbitrageResult,
	started time.Time,
) Report {
	prc := PricingSummary{
		GermanPrice:      listing.PriceEUR,
		DutchMarketValue: result.EstimatedMarketValue,
		ComparablesCount: len(comparables),
		Sources:          market.Sources(comparables),
	}
	if weighted.Low > 0 && weighted.High > 0 {
		prc.DutchMarketValueRange = &ValueRange{Low: weighted.Low, High: weighted.High}
	}

	if len(scored) > _maxReportComparables {
		scored = scored[:_maxReportComparables]
	}

	return Report{
		Success:   true,
		RequestID: newRequestID(),
		Data: ReportData{
			Vehicle: listing,
			Pricing: prc,
			BPM:     result.Tax,
			Costs:   result.Costs,
			Result: ResultSummary{
				Margin:           result.Margin,
				MarginPercentage: result.MarginPercentage,
				SafeMargin:       result.SafeMargin,
				Recommendation:   result.Recommendation,
			},
			AIValuation: valuation,
			Comparables: scored,
			MarketStats: market.ComputeStats(comparables),
		},
		Meta: ReportMeta{
			CalculatedAt:     a.now().UTC(),
			ProcessingTimeMs: a.now().Sub(started).Milliseconds(),
		},
	}
}

func (a *Analyzer) persist(ctx context.Context, rep Report) {
	if a.store == nil {
		return
	}

	payload, err := sonic.Marshal(rep)
	if err != nil {
		a.logger.Errorf("%s: can't marshal report %s", err, rep.RequestID)
		return
	}

	err = a.store.Save(ctx, report.Report{
		RequestID:      rep.RequestID,
		ListingURL:     rep.Data.Vehicle.ListingURL,
		Make:           rep.Data.Vehicle.Make,
		Model:          rep.Data.Vehicle.Model,
		Year:           rep.Data.Vehicle.Year,
		ListingPrice:   rep.Data.Pricing.GermanPrice,
		MarketValue:    rep.Data.Pricing.DutchMarketValue,
		Margin:         rep.Data.Result.Margin,
		MarginPct:      rep.Data.Result.MarginPercentage,
		Recommendation: string(rep.Data.Result.Recommendation),
		Payload:        payload,
	})
	if err != nil {
		a.logger.Errorf("%s: can't persist report %s", err, rep.RequestID)
	}
}

func newRequestID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
