package market

import (
	"slices"

	"github.com/driving-passion/import-bot/internal/arbitrage"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

// ComputeStats summarizes a comparable set with the same IQR outlier
// filter the estimator uses, so reported min/max/median describe the
// prices that actually informed the estimate.
func ComputeStats(comparables []model.Comparable) model.MarketStats {
	if len(comparables) == 0 {
		return model.MarketStats{}
	}

	prices := make([]float64, len(comparables))
	for i, c := range comparables {
		prices[i] = c.PriceEUR
	}
	slices.Sort(prices)

	filtered := arbitrage.FilterOutliers(prices)

	sum := 0.0
	for _, p := range filtered {
		sum += p
	}

	return model.MarketStats{
		Count:       len(comparables),
		AvgPrice:    tools.RoundCurrency(sum / float64(len(filtered))),
		MinPrice:    filtered[0],
		MaxPrice:    filtered[len(filtered)-1],
		MedianPrice: filtered[len(filtered)/2],
	}
}
