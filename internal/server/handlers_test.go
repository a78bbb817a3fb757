package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/driving-passion/import-bot/internal/bpm"
	"github.com/driving-passion/import-bot/internal/config"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
)

type noopLogger struct{}

func (l noopLogger) With(...interface{}) logger.Logger { return l }
func (noopLogger) Debugf(string, ...interface{})       {}
func (noopLogger) Infof(string, ...interface{})        {}
func (noopLogger) Warnf(string, ...interface{})        {}
func (noopLogger) Errorf(string, ...interface{})       {}
func (noopLogger) Fatalf(string, ...interface{})       {}
func (noopLogger) Infoln(...interface{})               {}
func (noopLogger) Sync() error                         { return nil }

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	schedule := config.TaxScheduleConfig{}
	if err := schedule.Setup(); err != nil {
		t.Fatalf("can't setup schedule: %s", err)
	}
	calc, err := bpm.NewCalculatorWithClock(schedule, func() time.Time {
		return time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	})
	if err != nil {
		t.Fatalf("can't build calculator: %s", err)
	}

	return NewHandler(nil, calc, nil, noopLogger{})
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestHandler(t).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("can't parse response: %s", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", body["status"])
	}
}

func TestBPMEndpoint(t *testing.T) {
	router := newTestHandler(t).Router()

	req := httptest.NewRequest(http.MethodPost, "/bpm",
		strings.NewReader(`{"co2_gkm": 118, "fuel_type": "Diesel", "first_registration_date": "08/2022"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool            `json:"success"`
		Data    model.TaxResult `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("can't parse response: %s", err)
	}
	if !body.Success {
		t.Error("success = false")
	}
	if body.Data.FuelType != model.Diesel {
		t.Errorf("fuel = %s, want diesel", body.Data.FuelType)
	}
	if body.Data.VehicleAgeMonths != 46 {
		t.Errorf("age = %d months, want 46", body.Data.VehicleAgeMonths)
	}
	if body.Data.TotalGrossBPM != 6201.28 {
		t.Errorf("total gross = %g, want 6201.28", body.Data.TotalGrossBPM)
	}
	if body.Data.RestBPM != 2294.47 {
		t.Errorf("rest = %g, want 2294.47", body.Data.RestBPM)
	}
}

func TestBPMEndpointValidation(t *testing.T) {
	router := newTestHandler(t).Router()

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"missing date", `{"co2_gkm": 118, "fuel_type": "diesel"}`},
		{"bad date", `{"co2_gkm": 118, "fuel_type": "diesel", "first_registration_date": "someday"}`},
		{"negative co2", `{"co2_gkm": -5, "fuel_type": "diesel", "first_registration_date": "08/2022"}`},
		{"future date", `{"co2_gkm": 118, "fuel_type": "diesel", "first_registration_date": "08/2032"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bpm", strings.NewReader(tt.body)))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}

			var body errorResponse
			if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("can't parse response: %s", err)
			}
			if body.Success {
				t.Error("success = true on an error response")
			}
			if body.Error.Type != _errValidation {
				t.Errorf("error type = %s, want %s", body.Error.Type, _errValidation)
			}
		})
	}
}

func TestAnalyzeEndpointRequiresURL(t *testing.T) {
	router := newTestHandler(t).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(`{}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReportsRouteAbsentWithoutStore(t *testing.T) {
	router := newTestHandler(t).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
