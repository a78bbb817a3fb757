// Package report persists finished analyses so earlier verdicts on a
// listing can be looked up without re-scraping it.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/driving-passion/import-bot/internal/logger"
)

const _createReportsTable = `
	CREATE TABLE IF NOT EXISTS reports (
		id             BIGSERIAL PRIMARY KEY,
		request_id     TEXT             NOT NULL,
		listing_url    TEXT             NOT NULL,
		make           TEXT             NOT NULL,
		model          TEXT             NOT NULL,
		year           INTEGER          NOT NULL,
		listing_price  DOUBLE PRECISION NOT NULL,
		market_value   DOUBLE PRECISION NOT NULL,
		margin         DOUBLE PRECISION NOT NULL,
		margin_pct     DOUBLE PRECISION NOT NULL,
		recommendation TEXT             NOT NULL,
		payload        JSONB            NOT NULL,
		created_at     TIMESTAMPTZ      NOT NULL DEFAULT now()
	);
`

const _insertReport = `
	INSERT INTO reports (
		request_id, listing_url, make, model, year,
		listing_price, market_value, margin, margin_pct,
		recommendation, payload
	)
	VALUES (
		:request_id, :listing_url, :make, :model, :year,
		:listing_price, :market_value, :margin, :margin_pct,
		:recommendation, :payload
	);
`

const _queryRecentReports = `
	SELECT request_id, listing_url, make, model, year,
	       listing_price, market_value, margin, margin_pct,
	       recommendation, payload, created_at
	FROM reports
	ORDER BY created_at DESC
	LIMIT $1;
`

const _queryReportsByURL = `
	SELECT request_id, listing_url, make, model, year,
	       listing_price, market_value, margin, margin_pct,
	       recommendation, payload, created_at
	FROM reports
	WHERE listing_url = $1
	ORDER BY created_at DESC;
`

type Report struct {
	RequestID      string    `db:"request_id"`
	ListingURL     string    `db:"listing_url"`
	Make           string    `db:"make"`
	Model          string    `db:"model"`
	Year           int       `db:"year"`
	ListingPrice   float64   `db:"listing_price"`
	MarketValue    float64   `db:"market_value"`
	Margin         float64   `db:"margin"`
	MarginPct      float64   `db:"margin_pct"`
	Recommendation string    `db:"recommendation"`
	Payload        []byte    `db:"payload"`
	CreatedAt      time.Time `db:"created_at"`
}

type Store struct {
	db *sqlx.DB

	logger logger.Logger
}

func NewStore(db *sqlx.DB, logger logger.Logger) (*Store, error) {
	if _, err := db.Exec(_createReportsTable); err != nil {
		return nil, fmt.Errorf("%w: can't create reports table", err)
	}

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

func (s *Store) Save(ctx context.Context, report Report) error {
	if _, err := s.db.NamedExecContext(ctx, _insertReport, report); err != nil {
		return fmt.Errorf("%w: can't save report %s", err, report.RequestID)
	}

	s.logger.Infof("saved report %s for %s %s", report.RequestID, report.Make, report.Model)

	return nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Report, error) {
	reports := make([]Report, 0, limit)
	if err := s.db.SelectContext(ctx, &reports, _queryRecentReports, limit); err != nil {
		return nil, fmt.Errorf("%w: can't query recent reports", err)
	}

	return reports, nil
}

func (s *Store) ByListingURL(ctx context.Context, url string) ([]Report, error) {
	var reports []Report
	if err := s.db.SelectContext(ctx, &reports, _queryReportsByURL, url); err != nil {
		return nil, fmt.Errorf("%w: can't query reports for %s", err, url)
	}

	return reports, nil
}
