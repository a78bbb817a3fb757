package config

import (
	"fmt"

	"github.com/driving-passion/import-bot/internal/model"
)

// ThresholdsConfig holds the margin cutoffs of the recommendation.
// Margin at or above Go advises GO, at or above Consider advises
// CONSIDER, anything below advises NO_GO. SafeMargin is the minimum
// quick-sale margin a GO additionally requires when an AI valuation
// supplied a quick-sale price.
type ThresholdsConfig struct {
	Go         float64 `yaml:"go" json:"go"`
	Consider   float64 `yaml:"consider" json:"consider"`
	SafeMargin float64 `yaml:"safe_margin" json:"safeMargin"`
}

const (
	_goThresholdDefault         = 2500
	_considerThresholdDefault   = 1000
	_safeMarginThresholdDefault = 500
)

func (c *ThresholdsConfig) Setup() error {
	if c.Go == 0 {
		c.Go = _goThresholdDefault
	}
	if c.Consider == 0 {
		c.Consider = _considerThresholdDefault
	}
	if c.SafeMargin == 0 {
		c.SafeMargin = _safeMarginThresholdDefault
	}

	return c.Validate()
}

func (c ThresholdsConfig) Validate() error {
	if c.Consider > c.Go {
		return fmt.Errorf("%w: consider threshold %g above go threshold %g", model.ErrInvalidInput, c.Consider, c.Go)
	}
	if c.SafeMargin > c.Consider {
		return fmt.Errorf("%w: safe margin threshold %g above consider threshold %g", model.ErrInvalidInput, c.SafeMargin, c.Consider)
	}
	return nil
}
