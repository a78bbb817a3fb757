// Package pricing scores and normalizes comparable listings so that a
// comparable from a different model year or mileage band still informs
// the valuation of the subject vehicle.
package pricing

import (
	"math"
	"slices"
	"strings"

	"github.com/driving-passion/import-bot/internal/model"
)

const (
	// Fallback annual depreciation applied when the comparable set is
	// too small to estimate one.
	_defaultAnnualRate = 0.08

	// Rough mileage value used when adjusting year-over-year price
	// deltas, in euro per km.
	_mileageValuePerKM = 0.02
)

// ScoredComparable is a comparable plus its relevance to the subject
// vehicle and its price normalized to the subject's model year.
type ScoredComparable struct {
	model.Comparable

	NormalizedPrice    float64 `json:"normalizedPrice"`
	RelevanceScore     float64 `json:"relevanceScore"`
	EquipmentScore     float64 `json:"equipmentScore"`
	YearDelta          int     `json:"yearDelta"`
	AnnualDepreciation float64 `json:"annualDepreciation"`
}

// MarketValue is the outcome of weighted valuation over scored
// comparables.
type MarketValue struct {
	EstimatedValue      float64 `json:"estimatedValue"`
	Low                 float64 `json:"low"`
	High                float64 `json:"high"`
	Confidence          float64 `json:"confidence"`
	ComparablesUsed     int     `json:"comparablesUsed"`
	DepreciationRate    float64 `json:"depreciationRate"`
	EquipmentAdjustment float64 `json:"equipmentAdjustment"`
	AvgEquipmentScore   float64 `json:"avgEquipmentScore"`
}

// AnnualDepreciationRate estimates how much value a car in this
// comparable set loses per year, from year-over-year price deltas
// adjusted for mileage. Falls back to a conservative default when the
// set carries too little year spread.
func AnnualDepreciationRate(comparables []model.Comparable) float64 {
	usable := make([]model.Comparable, 0, len(comparables))
	for _, c := range comparables {
		if c.Year > 0 && c.PriceEUR > 0 {
			usable = append(usable, c)
		}
	}
	if len(usable) < 2 {
		return _defaultAnnualRate
	}

	slices.SortFunc(usable, func(a, b model.Comparable) int {
		return a.Year - b.Year
	})

	var rates []float64
	for i := 0; i < len(usable)-1; i++ {
		older, newer := usable[i], usable[i+1]
		yearDiff := newer.Year - older.Year
		if yearDiff == 0 {
			continue
		}

		priceDiff := newer.PriceEUR - older.PriceEUR
		mileageAdjustment := float64(newer.MileageKM-older.MileageKM) * _mileageValuePerKM
		adjusted := priceDiff + mileageAdjustment

		if newer.PriceEUR <= 0 {
			continue
		}
		annual := adjusted / newer.PriceEUR / float64(yearDiff)
		// Sanity band: between -30% and +5% per year.
		if annual >= -0.30 && annual <= 0.05 {
			rates = append(rates, math.Abs(annual))
		}
	}

	if len(rates) == 0 {
		return _defaultAnnualRate
	}
	return median(rates)
}

// NormalizePriceToYear shifts a comparable's price onto the target
// model year using the depreciation rate: a newer target means the same
// car was worth more back then, an older target means less.
func NormalizePriceToYear(price float64, fromYear, toYear int, rate float64) float64 {
	delta := toYear - fromYear
	if delta == 0 {
		return price
	}

	if delta > 0 {
		return math.Trunc(price * math.Pow(1+rate, float64(delta)))
	}
	return math.Trunc(price * math.Pow(1-rate, float64(-delta)))
}

// EquipmentScore compares a comparable's equipment list against the
// subject's: 1.0 means equally or better equipped. Missing features
// cost 5% each, extras gain 2%, capped at 1.2.
func EquipmentScore(target, comparable []string) float64 {
	if len(target) == 0 {
		return 1.0
	}

	targetSet := make(map[string]struct{}, len(target))
	for _, f := range target {
		targetSet[strings.ToLower(f)] = struct{}{}
	}
	compSet := make(map[string]struct{}, len(comparable))
	for _, f := range comparable {
		compSet[strings.ToLower(f)] = struct{}{}
	}

	var common, missing int
	for f := range targetSet {
		if _, ok := compSet[f]; ok {
			common++
		} else {
			missing++
		}
	}
	var extra int
	for f := range compSet {
		if _, ok := targetSet[f]; !ok {
			extra++
		}
	}

	score := float64(common)/float64(len(targetSet)) - float64(missing)*0.05 + float64(extra)*0.02
	return math.Max(0, math.Min(1.2, score))
}

// ScoreComparables scores every comparable against the subject vehicle
// and returns them sorted most relevant first.
func ScoreComparables(targetYear, targetMileageKM int, targetEquipment []string, comparables []model.Comparable) []ScoredComparable {
	if len(comparables) == 0 {
		return nil
	}

	rate := AnnualDepreciationRate(comparables)

	scored := make([]ScoredComparable, 0, len(comparables))
	for _, c := range comparables {
		compYear := c.Year
		if compYear == 0 {
			compYear = targetYear
		}

		yearDelta := compYear - targetYear
		yearScore := 1.0 / (1.0 + math.Abs(float64(yearDelta))*0.3)
		mileageScore := 1.0 / (1.0 + math.Abs(float64(c.MileageKM-targetMileageKM))/50000)
		// Comparable listings carry no equipment breakdown; the score
		// defaults to parity and only weighs in once a source supplies
		// feature lists.
		equipmentScore := EquipmentScore(targetEquipment, nil)
		if len(targetEquipment) == 0 {
			equipmentScore = 1.0
		}

		scored = append(scored, ScoredComparable{
			Comparable:         c,
			NormalizedPrice:    NormalizePriceToYear(c.PriceEUR, compYear, targetYear, rate),
			RelevanceScore:     yearScore*0.4 + mileageScore*0.4 + equipmentScore*0.2,
			EquipmentScore:     equipmentScore,
			YearDelta:          yearDelta,
			AnnualDepreciation: rate,
		})
	}

	slices.SortFunc(scored, func(a, b ScoredComparable) int {
		switch {
		case a.RelevanceScore > b.RelevanceScore:
			return -1
		case a.RelevanceScore < b.RelevanceScore:
			return 1
		default:
			return 0
		}
	})

	return scored
}

// WeightedMarketValue derives a market value from scored comparables:
// a relevance-weighted average of normalized prices, nudged by the
// average equipment score, with a value range and a confidence figure.
func WeightedMarketValue(scored []ScoredComparable, confidenceThreshold float64) MarketValue {
	if len(scored) == 0 {
		return MarketValue{}
	}

	relevant := make([]ScoredComparable, 0, len(scored))
	for _, c := range scored {
		if c.RelevanceScore >= confidenceThreshold {
			relevant = append(relevant, c)
		}
	}
	if len(relevant) < 3 {
		relevant = scored[:min(5, len(scored))]
	}

	var totalWeight, weightedSum, equipmentSum, relevanceSum float64
	for _, c := range relevant {
		totalWeight += c.RelevanceScore
		weightedSum += c.NormalizedPrice * c.RelevanceScore
		equipmentSum += c.EquipmentScore
		relevanceSum += c.RelevanceScore
	}

	var weighted float64
	if totalWeight > 0 {
		weighted = weightedSum / totalWeight
	}

	avgEquipment := equipmentSum / float64(len(relevant))
	equipmentAdjustment := math.Trunc((avgEquipment - 1.0) * weighted * 0.1)
	estimated := math.Trunc(weighted + equipmentAdjustment)

	low, high := estimated*0.85, estimated*1.15
	if len(relevant) >= 3 {
		low, high = relevant[0].NormalizedPrice, relevant[0].NormalizedPrice
		for _, c := range relevant[1:] {
			low = math.Min(low, c.NormalizedPrice)
			high = math.Max(high, c.NormalizedPrice)
		}
	}

	confidence := math.Min(1.0,
		float64(len(relevant))/5.0*0.5+relevanceSum/float64(len(relevant))*0.5)

	return MarketValue{
		EstimatedValue:      estimated,
		Low:                 math.Trunc(low),
		High:                math.Trunc(high),
		Confidence:          math.Round(confidence*100) / 100,
		ComparablesUsed:     len(relevant),
		DepreciationRate:    math.Round(AnnualDepreciated(relevant)*1000) / 10,
		EquipmentAdjustment: equipmentAdjustment,
		AvgEquipmentScore:   math.Round(avgEquipment*100) / 100,
	}
}

// AnnualDepreciated returns the depreciation rate carried by the scored
// set (all entries share the one estimated over the full set).
func AnnualDepreciated(scored []ScoredComparable) float64 {
	if len(scored) == 0 {
		return 0
	}
	return scored[0].AnnualDepreciation
}

func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
