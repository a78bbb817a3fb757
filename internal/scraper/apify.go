package scraper

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/ratelimit"
	"resty.dev/v3"

	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
)

const (
	_actorRunsURL = "/v2/acts/{actorId}/runs"
	_runStatusURL = "/v2/actor-runs/{runId}"
	_datasetURL   = "/v2/datasets/{datasetId}/items"
)

const (
	_statusSucceeded = "SUCCEEDED"
	_statusFailed    = "FAILED"
	_statusAborted   = "ABORTED"
	_statusTimedOut  = "TIMED-OUT"
)

type apifyRun struct {
	Data struct {
		ID               string `json:"id"`
		Status           string `json:"status"`
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"data"`
}

type apifyError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ApifyClient runs Apify actors synchronously: start a run, poll it,
// fetch the default dataset. One shared rate limiter covers all calls.
type ApifyClient struct {
	c   *resty.Client
	cfg config.ScraperConfig

	rateLimiter ratelimit.Limiter

	logger logger.Logger
}

func NewApifyClient(cfg config.ScraperConfig, token string, logger logger.Logger) *ApifyClient {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(cfg.ApifyBaseURL).
		SetAuthToken(token)

	return &ApifyClient{
		c:           client,
		cfg:         cfg,
		rateLimiter: ratelimit.New(cfg.RequestsPerMinute, ratelimit.Per(1*time.Minute)),
		logger:      logger,
	}
}

// RunActorSync starts the actor with the given input, waits for the run
// to finish and returns the raw dataset items (a JSON array).
func (a *ApifyClient) RunActorSync(ctx context.Context, actorID string, input any) ([]byte, error) {
	a.rateLimiter.Take()
	resp, err := a.c.R().
		SetContext(ctx).
		SetPathParam("actorId", actorID).
		SetBody(input).
		SetResult(&apifyRun{}).
		SetError(&apifyError{}).
		Post(_actorRunsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't start actor %s", err, actorID)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("actor %s start failed: %s", actorID, apifyErrMessage(resp))
	}

	run := resp.Result().(*apifyRun)
	a.logger.Debugf("started apify actor %s run %s", actorID, run.Data.ID)

	run, err = a.waitForRun(ctx, run.Data.ID)
	if err != nil {
		return nil, err
	}

	return a.datasetItems(ctx, run.Data.DefaultDatasetID)
}

func (a *ApifyClient) waitForRun(ctx context.Context, runID string) (*apifyRun, error) {
	for attempt := 0; attempt < a.cfg.PollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.cfg.PollInterval):
		}

		a.rateLimiter.Take()
		resp, err := a.c.R().
			SetContext(ctx).
			SetPathParam("runId", runID).
			SetResult(&apifyRun{}).
			SetError(&apifyError{}).
			Get(_runStatusURL)
		if err != nil {
			return nil, fmt.Errorf("%w: can't poll actor run %s", err, runID)
		}
		if resp.IsError() {
			resp.Body.Close()
			return nil, fmt.Errorf("actor run %s poll failed: %s", runID, apifyErrMessage(resp))
		}

		run := resp.Result().(*apifyRun)
		resp.Body.Close()

		switch run.Data.Status {
		case _statusSucceeded:
			return run, nil
		case _statusFailed, _statusAborted, _statusTimedOut:
			return nil, fmt.Errorf("actor run %s finished with status %s", runID, run.Data.Status)
		}
	}

	return nil, fmt.Errorf("actor run %s timed out after %d polls", runID, a.cfg.PollAttempts)
}

func (a *ApifyClient) datasetItems(ctx context.Context, datasetID string) ([]byte, error) {
	a.rateLimiter.Take()
	resp, err := a.c.R().
		SetContext(ctx).
		SetPathParam("datasetId", datasetID).
		SetQueryParam("format", "json").
		Get(_datasetURL)
	if err != nil {
		return nil, fmt.Errorf("%w: can't fetch dataset %s", err, datasetID)
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("dataset %s fetch failed: %s", datasetID, resp.Status())
	}

	return resp.Bytes(), nil
}

func apifyErrMessage(resp *resty.Response) string {
	if e, ok := resp.Error().(*apifyError); ok && e.Error.Message != "" {
		return e.Error.Message
	}
	return resp.Status()
}
