// Package bpm computes the Dutch vehicle registration tax (BPM) for an
// imported used car: a CO2-bracketed gross amount, a diesel surcharge
// and the forfaitaire age depreciation.
package bpm

import (
	"fmt"
	"math"
	"time"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

// Calculator is a pure tax engine over one immutable schedule. It is
// safe for concurrent use; the clock is injectable so computations stay
// reproducible in tests.
type Calculator struct {
	cfg config.TaxScheduleConfig
	now func() time.Time
}

func NewCalculator(cfg config.TaxScheduleConfig) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid tax schedule", err)
	}
	return &Calculator{
		cfg: cfg,
		now: time.Now,
	}, nil
}

func NewCalculatorWithClock(cfg config.TaxScheduleConfig, now func() time.Time) (*Calculator, error) {
	c, err := NewCalculator(cfg)
	if err != nil {
		return nil, err
	}
	c.now = now
	return c, nil
}

// Calculate computes the BPM breakdown with the evaluation date taken
// from the calculator's clock.
func (c *Calculator) Calculate(co2GKM float64, fuel model.FuelType, firstRegistration time.Time) (model.TaxResult, error) {
	return c.CalculateAt(co2GKM, fuel, firstRegistration, c.now())
}

// CalculateAt computes the BPM breakdown at an explicit evaluation
// date. Depreciation applies to gross plus surcharge combined, not to
// each part separately.
func (c *Calculator) CalculateAt(co2GKM float64, fuel model.FuelType, firstRegistration, evaluation time.Time) (model.TaxResult, error) {
	if co2GKM < 0 {
		return model.TaxResult{}, fmt.Errorf("%w: negative co2 emission %g", model.ErrInvalidInput, co2GKM)
	}
	if !fuel.Valid() {
		return model.TaxResult{}, fmt.Errorf("%w: unknown fuel type %q", model.ErrInvalidInput, fuel)
	}

	ageMonths, err := AgeMonths(firstRegistration, evaluation)
	if err != nil {
		return model.TaxResult{}, err
	}

	base, variable := c.grossBPM(co2GKM)
	gross := tools.RoundCurrency(base + variable)

	surcharge := c.dieselSurcharge(co2GKM, fuel)
	totalGross := tools.RoundCurrency(gross + surcharge)

	depreciation := c.depreciationPercentage(ageMonths)
	rest := tools.RoundCurrency(totalGross * (1 - depreciation/100))

	return model.TaxResult{
		BaseComponent:          base,
		VariableComponent:      variable,
		GrossBPM:               gross,
		DieselSurcharge:        surcharge,
		TotalGrossBPM:          totalGross,
		DepreciationPercentage: depreciation,
		RestBPM:                rest,
		VehicleAgeMonths:       ageMonths,
		CO2GKM:                 co2GKM,
		FuelType:               fuel,
	}, nil
}

// AgeMonths is the calendar month count between the two dates: twelve
// times the year difference plus the month difference. Day of month is
// deliberately ignored; the forfaitaire tabel works in whole calendar
// months.
func AgeMonths(firstRegistration, evaluation time.Time) (int, error) {
	months := (evaluation.Year()-firstRegistration.Year())*12 +
		int(evaluation.Month()) - int(firstRegistration.Month())
	if months < 0 {
		return 0, fmt.Errorf("%w: registration date %s after evaluation date %s",
			model.ErrInvalidInput, firstRegistration.Format("2006-01"), evaluation.Format("2006-01"))
	}
	return months, nil
}

// grossBPM returns the flat base and the bracket-accumulated variable
// component, the latter rounded to cents. Each gram is taxed at the rate
// of the band it falls into; a zero-emission vehicle pays the base only.
func (c *Calculator) grossBPM(co2GKM float64) (base, variable float64) {
	base = c.cfg.BaseAmount
	if co2GKM == 0 {
		return base, 0
	}

	for _, b := range c.cfg.Brackets {
		if co2GKM <= b.MinGrams {
			break
		}
		upper := co2GKM
		if !b.Unbounded() {
			upper = math.Min(co2GKM, b.MaxGrams)
		}
		variable += (upper - b.MinGrams) * b.RatePerGram
	}

	return base, tools.RoundCurrency(variable)
}

// dieselSurcharge is the per-gram levy above the diesel threshold. It is
// additive to the gross amount, not bracket-accumulated.
func (c *Calculator) dieselSurcharge(co2GKM float64, fuel model.FuelType) float64 {
	if fuel != model.Diesel {
		return 0
	}
	if co2GKM <= c.cfg.DieselSurchargeThreshold {
		return 0
	}
	return tools.RoundCurrency((co2GKM - c.cfg.DieselSurchargeThreshold) * c.cfg.DieselSurchargeRate)
}

// depreciationPercentage looks up the first step covering the age. The
// validated table always has an unbounded tail, so the fallback to the
// maximum percentage only fires on a table with gaps.
func (c *Calculator) depreciationPercentage(ageMonths int) float64 {
	for _, s := range c.cfg.Depreciation {
		if s.Unbounded() || ageMonths <= s.MaxAgeMonths {
			return s.Percentage
		}
	}
	return c.cfg.MaxDepreciation()
}
