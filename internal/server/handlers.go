package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/driving-passion/import-bot/internal/analyzer"
	"github.com/driving-passion/import-bot/internal/bpm"
	"github.com/driving-passion/import-bot/internal/logger"
	"github.com/driving-passion/import-bot/internal/model"
	"github.com/driving-passion/import-bot/internal/report"
)

const _defaultRecentLimit = 20

const (
	_errValidation   = "VALIDATION_ERROR"
	_errCalculation  = "CALCULATION_ERROR"
	_errInsufficient = "INSUFFICIENT_DATA"
	_errInternal     = "INTERNAL_ERROR"
)

type ReportLister interface {
	Recent(ctx context.Context, limit int) ([]report.Report, error)
}

type Handler struct {
	analyzer *analyzer.Analyzer
	calc     *bpm.Calculator
	reports  ReportLister

	logger logger.Logger
}

type bpmRequest struct {
	CO2GKM                float64 `json:"co2_gkm"`
	FuelType              string  `json:"fuel_type"`
	FirstRegistrationDate string  `json:"first_registration_date"`
}

type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

type dataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// NewHandler wires the HTTP surface. The report lister is optional;
// without it GET /reports answers 404.
func NewHandler(a *analyzer.Analyzer, calc *bpm.Calculator, reports ReportLister, logger logger.Logger) *Handler {
	return &Handler{
		analyzer: a,
		calc:     calc,
		reports:  reports,
		logger:   logger,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/health", h.health)
	r.Post("/analyze", h.analyze)
	r.Post("/bpm", h.calculateBPM)
	if h.reports != nil {
		r.Get("/reports", h.recentReports)
	}

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzer.Request
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, _errValidation, err.Error())
		return
	}
	if req.URL == "" {
		h.writeError(w, http.StatusBadRequest, _errValidation, "url is required")
		return
	}

	rep, err := h.analyzer.AnalyzeURL(r.Context(), req)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rep)
}

func (h *Handler) calculateBPM(w http.ResponseWriter, r *http.Request) {
	var req bpmRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, _errValidation, err.Error())
		return
	}

	firstRegistration, err := parseRegistrationDate(req.FirstRegistrationDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, _errValidation, err.Error())
		return
	}

	fuel := model.NormalizeFuelType(req.FuelType)
	result, err := h.calc.Calculate(req.CO2GKM, fuel, firstRegistration)
	if err != nil {
		h.writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: result})
}

func (h *Handler) recentReports(w http.ResponseWriter, r *http.Request) {
	limit := _defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, _errValidation, "limit must be a positive integer")
			return
		}
		limit = n
	}

	reports, err := h.reports.Recent(r.Context(), limit)
	if err != nil {
		h.logger.Errorf("%s: can't list reports", err)
		h.writeError(w, http.StatusInternalServerError, _errInternal, "can't list reports")
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: reports})
}

func (h *Handler) writeAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, _errValidation, err.Error())
	case errors.Is(err, model.ErrInsufficientData):
		h.writeError(w, http.StatusUnprocessableEntity, _errInsufficient, err.Error())
	case errors.Is(err, model.ErrDivisionUndefined):
		h.writeError(w, http.StatusUnprocessableEntity, _errCalculation, err.Error())
	default:
		h.logger.Errorf("%s: analysis failed", err)
		h.writeError(w, http.StatusInternalServerError, _errInternal, "analysis failed")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, errorResponse{
		Success: false,
		Error:   errorBody{Type: errType, Message: message},
	})
}

func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("can't read request body")
	}
	if err := sonic.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("invalid json body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func parseRegistrationDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("first_registration_date is required")
	}
	for _, layout := range []string{"01/2006", "2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized first_registration_date %q", raw)
}
