// Package market finds comparable vehicles on the Dutch market, the
// input to market-value estimation. AutoScout24 NL is scraped directly;
// Marktplaats goes through an Apify actor when one is configured.
package market

import (
	"context"
	"slices"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/scraper"
)

type Service struct {
	asClient *resty.Client
	apify    *scraper.ApifyClient

	cfg        config.MarketConfig
	scraperCfg config.ScraperConfig

	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

// NewService builds the comparables source. A nil apify client disables
// the Marktplaats leg; AutoScout24 needs no token and always runs.
func NewService(cfg config.MarketConfig, scraperCfg config.ScraperConfig, apify *scraper.ApifyClient, logger logger.Logger) *Service {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.AutoScoutBaseURL)

	return &Service{
		asClient:    client,
		apify:       apify,
		cfg:         cfg,
		scraperCfg:  scraperCfg,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

// Search queries all configured sources and returns the merged
// comparables sorted by price. A failing source logs and degrades, it
// does not abort the search.
func (s *Service) Search(ctx context.Context, listing model.Listing) ([]model.Comparable, error) {
	var comparables []model.Comparable

	asComps, err := s.searchAutoScout(ctx, listing)
	if err != nil {
		s.logger.Errorf("%s: autoscout search failed", err)
	} else {
		s.logger.Infof("found %d comparables on autoscout24 nl", len(asComps))
		comparables = append(comparables, asComps...)
	}

	if s.apify != nil {
		mpComps, err := s.searchMarktplaats(ctx, listing)
		if err != nil {
			s.logger.Errorf("%s: marktplaats search failed", err)
		} else {
			s.logger.Infof("found %d comparables on marktplaats", len(mpComps))
			comparables = append(comparables, mpComps...)
		}
	}

	slices.SortFunc(comparables, func(a, b model.Comparable) int {
		switch {
		case a.PriceEUR < b.PriceEUR:
			return -1
		case a.PriceEUR > b.PriceEUR:
			return 1
		default:
			return 0
		}
	})

	if len(comparables) > s.cfg.MaxComparables {
		comparables = comparables[:s.cfg.MaxComparables]
	}

	return comparables, ctx.Err()
}

// Sources lists the distinct sources present in a comparable set.
func Sources(comparables []model.Comparable) []string {
	var sources []string
	for _, c := range comparables {
		if !slices.Contains(sources, c.Source) && c.Source != "" {
			sources = append(sources, c.Source)
		}
	}
	return sources
}
