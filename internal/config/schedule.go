package config

import (
	"fmt"
)

// TaxBracket is one band of the CO2 schedule. MinGrams is the breakpoint
// below the band: grams above MinGrams up to MaxGrams are taxed at
// RatePerGram. MaxGrams == 0 marks the open-ended tail band.
type TaxBracket struct {
	MinGrams    float64 `yaml:"min_grams"`
	MaxGrams    float64 `yaml:"max_grams"`
	RatePerGram float64 `yaml:"rate_per_gram"`
}

// Unbounded reports whether the bracket is the open-ended tail.
func (b TaxBracket) Unbounded() bool {
	return b.MaxGrams <= 0
}

// DepreciationStep is one row of the forfaitaire tabel: vehicles up to
// MaxAgeMonths old get Percentage off. MaxAgeMonths == 0 marks the
// open-ended tail row.
type DepreciationStep struct {
	MaxAgeMonths int     `yaml:"max_age_months"`
	Percentage   float64 `yaml:"percentage"`
}

func (s DepreciationStep) Unbounded() bool {
	return s.MaxAgeMonths <= 0
}

// TaxScheduleConfig carries one tax year's schedule: the flat base
// amount, the CO2 brackets, the diesel surcharge and the depreciation
// table. Schedules change year over year, so all of it is configuration.
type TaxScheduleConfig struct {
	BaseAmount               float64            `yaml:"base_amount"`
	Brackets                 []TaxBracket       `yaml:"brackets"`
	DieselSurchargeRate      float64            `yaml:"diesel_surcharge_rate"`
	DieselSurchargeThreshold float64            `yaml:"diesel_surcharge_threshold"`
	Depreciation             []DepreciationStep `yaml:"depreciation"`
}

const (
	_baseAmountDefault               = 667
	_dieselSurchargeRateDefault      = 109.87
	_dieselSurchargeThresholdDefault = 70
)

// 2026 Belastingdienst forfaitaire tabel.
func defaultBrackets() []TaxBracket {
	return []TaxBracket{
		{MinGrams: 0, MaxGrams: 79, RatePerGram: 0},
		{MinGrams: 79, MaxGrams: 124, RatePerGram: 6.68},
		{MinGrams: 124, MaxGrams: 169, RatePerGram: 67.40},
		{MinGrams: 169, MaxGrams: 199, RatePerGram: 159.61},
		{MinGrams: 199, RatePerGram: 490.91},
	}
}

func defaultDepreciation() []DepreciationStep {
	return []DepreciationStep{
		{MaxAgeMonths: 3, Percentage: 0},
		{MaxAgeMonths: 6, Percentage: 24},
		{MaxAgeMonths: 9, Percentage: 33},
		{MaxAgeMonths: 18, Percentage: 42},
		{MaxAgeMonths: 24, Percentage: 49},
		{MaxAgeMonths: 36, Percentage: 56},
		{MaxAgeMonths: 48, Percentage: 63},
		{MaxAgeMonths: 60, Percentage: 70},
		{MaxAgeMonths: 72, Percentage: 76},
		{MaxAgeMonths: 84, Percentage: 81},
		{MaxAgeMonths: 96, Percentage: 85},
		{MaxAgeMonths: 108, Percentage: 88},
		{MaxAgeMonths: 120, Percentage: 90},
		{Percentage: 92},
	}
}

func (c *TaxScheduleConfig) Setup() error {
	if c.BaseAmount <= 0 {
		c.BaseAmount = _baseAmountDefault
	}
	if len(c.Brackets) == 0 {
		c.Brackets = defaultBrackets()
	}
	if c.DieselSurchargeRate <= 0 {
		c.DieselSurchargeRate = _dieselSurchargeRateDefault
	}
	if c.DieselSurchargeThreshold <= 0 {
		c.DieselSurchargeThreshold = _dieselSurchargeThresholdDefault
	}
	if len(c.Depreciation) == 0 {
		c.Depreciation = defaultDepreciation()
	}

	return c.Validate()
}

// Validate checks the ordering invariants once at construction time so
// the linear scans in the calculator can stay unconditional.
func (c *TaxScheduleConfig) Validate() error {
	if len(c.Brackets) == 0 {
		return fmt.Errorf("empty co2 brackets")
	}
	if c.Brackets[0].MinGrams != 0 {
		return fmt.Errorf("first co2 bracket must start at 0, got %g", c.Brackets[0].MinGrams)
	}
	for i, b := range c.Brackets {
		if b.RatePerGram < 0 {
			return fmt.Errorf("negative rate %g in bracket %d", b.RatePerGram, i)
		}
		last := i == len(c.Brackets)-1
		if last {
			if !b.Unbounded() {
				return fmt.Errorf("last co2 bracket must be unbounded")
			}
			continue
		}
		if b.Unbounded() {
			return fmt.Errorf("unbounded co2 bracket %d before the last", i)
		}
		if b.MaxGrams <= b.MinGrams {
			return fmt.Errorf("co2 bracket %d has max %g <= min %g", i, b.MaxGrams, b.MinGrams)
		}
		if c.Brackets[i+1].MinGrams != b.MaxGrams {
			return fmt.Errorf("gap between co2 brackets %d and %d", i, i+1)
		}
	}

	if len(c.Depreciation) == 0 {
		return fmt.Errorf("empty depreciation table")
	}
	prevMax := 0
	prevPct := -1.0
	for i, s := range c.Depreciation {
		if s.Percentage < 0 || s.Percentage > 100 {
			return fmt.Errorf("depreciation percentage %g out of range in step %d", s.Percentage, i)
		}
		if s.Percentage < prevPct {
			return fmt.Errorf("depreciation percentage decreases at step %d", i)
		}
		prevPct = s.Percentage

		last := i == len(c.Depreciation)-1
		if last {
			if !s.Unbounded() {
				return fmt.Errorf("last depreciation step must be unbounded")
			}
			continue
		}
		if s.Unbounded() {
			return fmt.Errorf("unbounded depreciation step %d before the last", i)
		}
		if i > 0 && s.MaxAgeMonths <= prevMax {
			return fmt.Errorf("depreciation steps not increasing at step %d", i)
		}
		prevMax = s.MaxAgeMonths
	}

	return nil
}

// MaxDepreciation is the highest percentage the table defines.
func (c *TaxScheduleConfig) MaxDepreciation() float64 {
	max := 0.0
	for _, s := range c.Depreciation {
		if s.Percentage > max {
			max = s.Percentage
		}
	}
	return max
}
