package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

const (
	_portDefault = "8080"
	// A full analysis scrapes two marketplaces through Apify polling,
	// so the write timeout has to outlive the slowest handler.
	_readTimeoutDefault     = 1 * time.Minute
	_writeTimeoutDefault    = 6 * time.Minute
	_shutdownTimeoutDefault = 10 * time.Second
)

func (c *ServerConfig) Setup() error {
	if c.Port == "" {
		c.Port = _portDefault
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("%w: invalid port %q", err, c.Port)
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = _readTimeoutDefault
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = _writeTimeoutDefault
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = _shutdownTimeoutDefault
	}
	return nil
}

// ScraperConfig drives the Apify actor client that retrieves German
// listings and Marktplaats comparables.
type ScraperConfig struct {
	ApifyBaseURL      string        `yaml:"apify_base_url"`
	MobileDEActor     string        `yaml:"mobile_de_actor"`
	AutoScoutDEActor  string        `yaml:"autoscout_de_actor"`
	MarktplaatsActor  string        `yaml:"marktplaats_actor"`
	PollInterval      time.Duration `yaml:"poll_interval"`
	PollAttempts      int           `yaml:"poll_attempts"`
	RequestsPerMinute int           `yaml:"requests_per_minute"`
}

const (
	_apifyBaseURLDefault      = "https://api.apify.com"
	_mobileDEActorDefault     = "3x1t~mobile-de-scraper-ppr"
	_autoScoutDEActorDefault  = "3x1t~autoscout24-scraper-ppr"
	_marktplaatsActorDefault  = "ivanvs~marktplaats-scraper"
	_pollIntervalDefault      = 2 * time.Second
	_pollAttemptsDefault      = 30
	_requestsPerMinuteDefault = 30
)

func (c *ScraperConfig) Setup() error {
	if c.ApifyBaseURL == "" {
		c.ApifyBaseURL = _apifyBaseURLDefault
	}
	if _, err := url.Parse(c.ApifyBaseURL); err != nil {
		return fmt.Errorf("%w: invalid apify base url", err)
	}
	if c.MobileDEActor == "" {
		c.MobileDEActor = _mobileDEActorDefault
	}
	if c.AutoScoutDEActor == "" {
		c.AutoScoutDEActor = _autoScoutDEActorDefault
	}
	if c.MarktplaatsActor == "" {
		c.MarktplaatsActor = _marktplaatsActorDefault
	}
	if c.PollInterval <= 0 {
		c.PollInterval = _pollIntervalDefault
	}
	if c.PollAttempts <= 0 {
		c.PollAttempts = _pollAttemptsDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}
	return nil
}

// MarketConfig drives the Dutch comparables search.
type MarketConfig struct {
	AutoScoutBaseURL  string `yaml:"autoscout_base_url"`
	MaxComparables    int    `yaml:"max_comparables"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

const (
	_autoScoutBaseURLDefault = "https://www.autoscout24.nl"
	_maxComparablesDefault   = 20
)

func (c *MarketConfig) Setup() error {
	if c.AutoScoutBaseURL == "" {
		c.AutoScoutBaseURL = _autoScoutBaseURLDefault
	}
	if _, err := url.Parse(c.AutoScoutBaseURL); err != nil {
		return fmt.Errorf("%w: invalid autoscout base url", err)
	}
	if c.MaxComparables <= 0 {
		c.MaxComparables = _maxComparablesDefault
	}
	if c.RequestsPerMinute <= 0 {
		c.RequestsPerMinute = _requestsPerMinuteDefault
	}
	return nil
}

// ValuationConfig drives the optional OpenRouter valuation refiner.
type ValuationConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxComparables int     `yaml:"max_comparables"`
}

const (
	_valuationBaseURLDefault = "https://openrouter.ai"
	_valuationModelDefault   = "anthropic/claude-sonnet-4"
	_temperatureDefault      = 0.3
	_valuationCompsDefault   = 10
)

func (c *ValuationConfig) Setup() error {
	if c.BaseURL == "" {
		c.BaseURL = _valuationBaseURLDefault
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("%w: invalid valuation base url", err)
	}
	if c.Model == "" {
		c.Model = _valuationModelDefault
	}
	if c.Temperature <= 0 {
		c.Temperature = _temperatureDefault
	}
	if c.MaxComparables <= 0 {
		c.MaxComparables = _valuationCompsDefault
	}
	return nil
}
