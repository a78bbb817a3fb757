package config

import (
	"fmt"

	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/tools"
)

// ImportCostsConfig holds the fixed cost line items of bringing a car
// across the border and through RDW registration.
type ImportCostsConfig struct {
	Transport     float64 `yaml:"transport"`
	RDWInspection float64 `yaml:"rdw_inspection"`
	LicensePlates float64 `yaml:"license_plates"`
	HandlingFee   float64 `yaml:"handling_fee"`
	NAPCheck      float64 `yaml:"nap_check"`
	Other         float64 `yaml:"other"`
}

const (
	_transportDefault     = 450
	_rdwInspectionDefault = 85
	_licensePlatesDefault = 50
	_handlingFeeDefault   = 200
	_napCheckDefault      = 12.95
)

func (c *ImportCostsConfig) Setup() error {
	if c.Transport <= 0 {
		c.Transport = _transportDefault
	}
	if c.RDWInspection <= 0 {
		c.RDWInspection = _rdwInspectionDefault
	}
	if c.LicensePlates <= 0 {
		c.LicensePlates = _licensePlatesDefault
	}
	if c.HandlingFee <= 0 {
		c.HandlingFee = _handlingFeeDefault
	}
	if c.NAPCheck <= 0 {
		c.NAPCheck = _napCheckDefault
	}
	if c.Other < 0 {
		return fmt.Errorf("negative other import cost %g", c.Other)
	}

	return nil
}

// ImportCostOverrides overrides cost line items per call, field by
// field; nil fields keep the configured value.
type ImportCostOverrides struct {
	Transport     *float64 `json:"transport,omitempty"`
	RDWInspection *float64 `json:"rdwInspection,omitempty"`
	LicensePlates *float64 `json:"licensePlates,omitempty"`
	HandlingFee   *float64 `json:"handlingFee,omitempty"`
	NAPCheck      *float64 `json:"napCheck,omitempty"`
	Other         *float64 `json:"other,omitempty"`
}

// Merge applies the overrides on top of the configured defaults and
// returns the resulting cost set. Negative overrides are invalid input.
func (c ImportCostsConfig) Merge(o *ImportCostOverrides) (ImportCostsConfig, error) {
	merged := c
	if o == nil {
		return merged, nil
	}

	apply := func(dst *float64, v *float64, name string) error {
		if v == nil {
			return nil
		}
		if *v < 0 {
			return fmt.Errorf("%w: negative %s cost %g", model.ErrInvalidInput, name, *v)
		}
		*dst = *v
		return nil
	}

	if err := apply(&merged.Transport, o.Transport, "transport"); err != nil {
		return merged, err
	}
	if err := apply(&merged.RDWInspection, o.RDWInspection, "rdw inspection"); err != nil {
		return merged, err
	}
	if err := apply(&merged.LicensePlates, o.LicensePlates, "license plates"); err != nil {
		return merged, err
	}
	if err := apply(&merged.HandlingFee, o.HandlingFee, "handling fee"); err != nil {
		return merged, err
	}
	if err := apply(&merged.NAPCheck, o.NAPCheck, "nap check"); err != nil {
		return merged, err
	}
	if err := apply(&merged.Other, o.Other, "other"); err != nil {
		return merged, err
	}

	return merged, nil
}

// Total sums all line items, rounded to cents.
func (c ImportCostsConfig) Total() float64 {
	return tools.RoundCurrency(c.Transport + c.RDWInspection + c.LicensePlates + c.HandlingFee + c.NAPCheck + c.Other)
}
