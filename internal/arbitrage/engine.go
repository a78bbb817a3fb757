// Package arbitrage turns a German listing, Dutch comparables and the
// cost configuration into a buy/hold verdict with a full numeric
// breakdown.
package arbitrage

import (
	"fmt"

	"github.com/driving-passion/import-bot/internal/bpm"
	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

// Engine is a pure decision engine: no call mutates shared state, every
// result is recomputed from its inputs. Safe for concurrent use.
type Engine struct {
	costs      config.ImportCostsConfig
	thresholds config.ThresholdsConfig
	calc       *bpm.Calculator

	logger logger.Logger
}

func NewEngine(costs config.ImportCostsConfig, thresholds config.ThresholdsConfig, calc *bpm.Calculator, logger logger.Logger) (*Engine, error) {
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		costs:      costs,
		thresholds: thresholds,
		calc:       calc,
		logger:     logger,
	}, nil
}

// Input is one analysis request. MarketValue, when set, is an
// externally refined estimate that bypasses the engine's own
// estimation; QuickSaleValue additionally enables the safe-margin gate
// on a GO verdict.
type Input struct {
	Listing        model.Listing
	Comparables    []model.Comparable
	CostOverrides  *config.ImportCostOverrides
	Thresholds     *config.ThresholdsConfig
	MarketValue    *float64
	QuickSaleValue *float64
}

// Analyze computes the import margin and recommendation for a listing.
func (e *Engine) Analyze(in Input) (model.ArbitrageResult, error) {
	if in.Listing.PriceEUR <= 0 {
		return model.ArbitrageResult{}, fmt.Errorf("%w: non-positive listing price %g", model.ErrInvalidInput, in.Listing.PriceEUR)
	}

	thresholds := e.thresholds
	if in.Thresholds != nil {
		thresholds = *in.Thresholds
		if err := thresholds.Validate(); err != nil {
			return model.ArbitrageResult{}, err
		}
	}

	tax, err := e.calc.Calculate(in.Listing.CO2GKM, in.Listing.FuelType, in.Listing.FirstRegistrationDate)
	if err != nil {
		return model.ArbitrageResult{}, fmt.Errorf("%w: can't calculate bpm", err)
	}

	var (
		marketValue float64
		compsUsed   int
	)
	if in.MarketValue != nil {
		marketValue = *in.MarketValue
		compsUsed = len(in.Comparables)
	} else {
		marketValue, compsUsed, err = EstimateMarketValue(in.Comparables)
		if err != nil {
			return model.ArbitrageResult{}, err
		}
	}

	costs, err := e.costs.Merge(in.CostOverrides)
	if err != nil {
		return model.ArbitrageResult{}, err
	}

	totalImportCosts := costs.Total()
	totalCost := tools.RoundCurrency(in.Listing.PriceEUR + tax.RestBPM + totalImportCosts)
	if totalCost <= 0 {
		return model.ArbitrageResult{}, fmt.Errorf("%w: total cost %g", model.ErrDivisionUndefined, totalCost)
	}

	margin := tools.RoundCurrency(marketValue - totalCost)
	marginPct := tools.RoundCurrency(margin / totalCost * 100)

	safeMargin := margin
	recommendation := Recommend(margin, thresholds)
	if in.QuickSaleValue != nil {
		safeMargin = tools.RoundCurrency(*in.QuickSaleValue - totalCost)
		if recommendation == model.Go && safeMargin <= thresholds.SafeMargin {
			recommendation = model.Consider
		}
	}

	if e.logger != nil {
		e.logger.Debugf("analyzed %s %s: value=%g cost=%g margin=%g -> %s",
			in.Listing.Make, in.Listing.Model, marketValue, totalCost, margin, recommendation)
	}

	return model.ArbitrageResult{
		ListingPriceEUR:      in.Listing.PriceEUR,
		EstimatedMarketValue: marketValue,
		ComparablesUsed:      compsUsed,
		Tax:                  tax,
		Costs: model.CostBreakdown{
			GermanPrice:      in.Listing.PriceEUR,
			BPM:              tax.RestBPM,
			Transport:        costs.Transport,
			RDWInspection:    costs.RDWInspection,
			LicensePlates:    costs.LicensePlates,
			HandlingFee:      costs.HandlingFee,
			NAPCheck:         costs.NAPCheck,
			Other:            costs.Other,
			TotalImportCosts: totalImportCosts,
			TotalCost:        totalCost,
		},
		Margin:           margin,
		MarginPercentage: marginPct,
		SafeMargin:       safeMargin,
		Recommendation:   recommendation,
	}, nil
}

// Recommend classifies a margin against the thresholds. A margin
// exactly at a threshold counts as meeting it.
func Recommend(margin float64, t config.ThresholdsConfig) model.Recommendation {
	switch {
	case margin >= t.Go:
		return model.Go
	case margin >= t.Consider:
		return model.Consider
	default:
		return model.NoGo
	}
}
