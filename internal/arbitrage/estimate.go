package arbitrage

import (
	"fmt"
	"slices"

	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

// FilterOutliers drops prices outside [Q1 - 1.5*IQR, Q3 + 1.5*IQR] from
// a sorted price slice. Quartiles are index-based, not interpolated:
// Q1 = prices[(n-1)/4], Q3 = prices[3(n-1)/4]. If the bounds exclude
// everything (a degenerate near-zero IQR), the unfiltered slice comes
// back.
func FilterOutliers(sorted []float64) []float64 {
	n := len(sorted)
	if n < 4 {
		return sorted
	}

	// The n-1 scale is load-bearing: indexing at n/4 and 3n/4 would put
	// Q3 at the maximum for n=4 and let an extreme price through the
	// fence (see "iqr drops the outlier" in estimate_test.go).
	q1 := sorted[(n-1)/4]
	q3 := sorted[3*(n-1)/4]
	iqr := q3 - q1

	lower := q1 - 1.5*iqr
	upper := q3 + 1.5*iqr

	kept := make([]float64, 0, n)
	for _, p := range sorted {
		if p >= lower && p <= upper {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		return sorted
	}
	return kept
}

// EstimateMarketValue estimates the Dutch market value of the subject
// vehicle from comparable prices. One comparable is taken at face
// value, up to three are averaged, four or more go through IQR outlier
// filtering first. The estimate is a whole euro amount and does not
// depend on input order. Returns the number of prices that survived
// filtering.
func EstimateMarketValue(comparables []model.Comparable) (float64, int, error) {
	if len(comparables) == 0 {
		return 0, 0, fmt.Errorf("%w: no comparable listings", model.ErrInsufficientData)
	}

	prices := make([]float64, len(comparables))
	for i, c := range comparables {
		prices[i] = c.PriceEUR
	}
	slices.Sort(prices)

	if len(prices) == 1 {
		return tools.RoundEuro(prices[0]), 1, nil
	}

	kept := FilterOutliers(prices)
	return tools.RoundEuro(mean(kept)), len(kept), nil
}

func mean(prices []float64) float64 {
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices))
}
