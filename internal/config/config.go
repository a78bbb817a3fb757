package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the whole service configuration. Every section falls back
// to working defaults, so a missing file yields the stock 2026 schedule
// and standard cost items.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	TaxSchedule TaxScheduleConfig `yaml:"tax_schedule"`
	ImportCosts ImportCostsConfig `yaml:"import_costs"`
	Thresholds  ThresholdsConfig  `yaml:"thresholds"`
	Scraper     ScraperConfig     `yaml:"scraper"`
	Market      MarketConfig      `yaml:"market"`
	Valuation   ValuationConfig   `yaml:"valuation"`
}

func (c *Config) ValidateAndSetup() error {
	if err := c.Server.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup server cfg", err)
	}
	if err := c.TaxSchedule.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup tax schedule", err)
	}
	if err := c.ImportCosts.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup import costs", err)
	}
	if err := c.Thresholds.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup thresholds", err)
	}
	if err := c.Scraper.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup scraper cfg", err)
	}
	if err := c.Market.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup market cfg", err)
	}
	if err := c.Valuation.Setup(); err != nil {
		return fmt.Errorf("%w: can't setup valuation cfg", err)
	}
	return nil
}

// LoadConfig reads the yaml config. A missing file is not an error:
// defaults cover everything.
func LoadConfig(filename string) (Config, error) {
	var cfg Config

	input, err := os.ReadFile(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: can't read file", err)
		}
	} else if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	if err := cfg.ValidateAndSetup(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
