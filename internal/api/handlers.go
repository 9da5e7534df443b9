// Package api exposes the calculator over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Veraticus/tariff-impact/internal/common"
	"github.com/Veraticus/tariff-impact/internal/engine"
	"github.com/Veraticus/tariff-impact/internal/model"
	"github.com/Veraticus/tariff-impact/internal/service"
)

const maxBodyBytes = 1 << 20

// Calculator runs single and bulk calculations.
type Calculator interface {
	Calculate(ctx context.Context, input model.CalculationInput) service.Result[model.CalculationResult]
	CalculateBulk(ctx context.Context, inputs []model.CalculationInput, opts engine.BulkOptions) service.Result[model.BulkAnalysisResult]
}

// Classifications serves tariff classification data.
type Classifications interface {
	GetClassificationData(ctx context.Context, code string) service.Result[model.ClassificationRecord]
	Search(ctx context.Context, query string) []model.ClassificationSummary
}

// ExchangeRates serves exchange rate tables.
type ExchangeRates interface {
	GetRates(ctx context.Context, base string) service.Result[model.ExchangeRates]
}

// Handlers implements the HTTP endpoints.
type Handlers struct {
	calculator      Calculator
	classifications Classifications
	rates           ExchangeRates
	storage         service.Storage
}

// Option customises construction of Handlers.
type Option func(*Handlers)

// WithStorage records calculations and enables the history and profile endpoints.
func WithStorage(s service.Storage) Option {
	return func(h *Handlers) {
		h.storage = s
	}
}

// NewHandlers wires the endpoint dependencies.
func NewHandlers(calc Calculator, classifications Classifications, rates ExchangeRates, opts ...Option) *Handlers {
	h := &Handlers{
		calculator:      calc,
		classifications: classifications,
		rates:           rates,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers the endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Get("/health", h.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/calculations", h.calculate)
		r.Post("/bulk", h.bulk)
		r.Get("/classifications", h.searchClassifications)
		r.Get("/classifications/{code}", h.getClassification)
		r.Get("/exchange-rates/{base}", h.getExchangeRates)
		r.Get("/history", h.listHistory)
		r.Get("/profiles", h.listProfiles)
		r.Get("/profiles/{name}", h.getProfile)
		r.Post("/profiles/{name}/analysis", h.analyzeProfile)
	})
}

type calculationResponse struct {
	Result  model.CalculationResult `json:"result"`
	Error   string                  `json:"error,omitempty"`
	Success bool                    `json:"success"`
}

type bulkRequest struct {
	ScenarioName string                   `json:"scenario_name"`
	Products     []model.CalculationInput `json:"products"`
}

type bulkResponse struct {
	Result  model.BulkAnalysisResult `json:"result"`
	Error   string                   `json:"error,omitempty"`
	Success bool                     `json:"success"`
}

type searchResponse struct {
	Query   string                        `json:"query"`
	Results []model.ClassificationSummary `json:"results"`
}

type classificationResponse struct {
	Record  model.ClassificationRecord `json:"record"`
	Error   string                     `json:"error,omitempty"`
	Success bool                       `json:"success"`
}

type ratesResponse struct {
	Rates   model.ExchangeRates `json:"rates"`
	Base    string              `json:"base"`
	Error   string              `json:"error,omitempty"`
	Success bool                `json:"success"`
}

func (h *Handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) calculate(w http.ResponseWriter, r *http.Request) {
	var input model.CalculationInput
	if err := decodeBody(w, r, &input); err != nil {
		writeError(r.Context(), w, newError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	res := h.calculator.Calculate(r.Context(), input)
	h.record(r.Context(), res)

	writeJSON(w, http.StatusOK, calculationResponse{
		Success: res.OK(),
		Result:  res.Value,
		Error:   errorText(res.Err),
	})
}

func (h *Handlers) bulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(r.Context(), w, newError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	h.runBulk(w, r, req.ScenarioName, req.Products)
}

func (h *Handlers) runBulk(w http.ResponseWriter, r *http.Request, name string, products []model.CalculationInput) {
	res := h.calculator.CalculateBulk(r.Context(), products, engine.BulkOptions{ScenarioName: name})
	writeJSON(w, http.StatusOK, bulkResponse{
		Success: res.OK(),
		Result:  res.Value,
		Error:   errorText(res.Err),
	})
}

func (h *Handlers) searchClassifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, searchResponse{
		Query:   q,
		Results: h.classifications.Search(r.Context(), q),
	})
}

func (h *Handlers) getClassification(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if model.NormalizeCode(code) == "" {
		writeError(r.Context(), w, newError("invalid_request", "classification code must contain digits", http.StatusBadRequest))
		return
	}

	res := h.classifications.GetClassificationData(r.Context(), code)
	writeJSON(w, http.StatusOK, classificationResponse{
		Success: res.OK(),
		Record:  res.Value,
		Error:   errorText(res.Err),
	})
}

func (h *Handlers) getExchangeRates(w http.ResponseWriter, r *http.Request) {
	base := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "base")))
	res := h.rates.GetRates(r.Context(), base)
	writeJSON(w, http.StatusOK, ratesResponse{
		Success: res.OK(),
		Base:    base,
		Rates:   res.Value,
		Error:   errorText(res.Err),
	})
}

func (h *Handlers) listHistory(w http.ResponseWriter, r *http.Request) {
	if !h.requireStorage(w, r) {
		return
	}

	filter := service.HistoryFilter{Code: r.URL.Query().Get("code")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(r.Context(), w, newError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.storage.ListCalculations(r.Context(), filter)
	if err != nil {
		common.LogError(err, "Failed to list calculations", nil)
		writeError(r.Context(), w, newError("storage_error", "failed to list calculations", http.StatusInternalServerError))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handlers) listProfiles(w http.ResponseWriter, r *http.Request) {
	if !h.requireStorage(w, r) {
		return
	}

	profiles, err := h.storage.ListProfiles(r.Context())
	if err != nil {
		common.LogError(err, "Failed to list profiles", nil)
		writeError(r.Context(), w, newError("storage_error", "failed to list profiles", http.StatusInternalServerError))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (h *Handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) analyzeProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.loadProfile(w, r)
	if !ok {
		return
	}
	h.runBulk(w, r, profile.Name, profile.Products)
}

func (h *Handlers) loadProfile(w http.ResponseWriter, r *http.Request) (*model.BusinessProfile, bool) {
	if !h.requireStorage(w, r) {
		return nil, false
	}

	name := chi.URLParam(r, "name")
	profile, err := h.storage.GetProfile(r.Context(), name)
	if errors.Is(err, common.ErrNotFound) {
		writeError(r.Context(), w, newError("not_found", fmt.Sprintf("profile %q not found", name), http.StatusNotFound))
		return nil, false
	}
	if err != nil {
		common.LogError(err, "Failed to load profile", common.Fields{"name": name})
		writeError(r.Context(), w, newError("storage_error", "failed to load profile", http.StatusInternalServerError))
		return nil, false
	}
	return profile, true
}

func (h *Handlers) requireStorage(w http.ResponseWriter, r *http.Request) bool {
	if h.storage == nil {
		writeError(r.Context(), w, newError("storage_unavailable", "persistence is not configured", http.StatusServiceUnavailable))
		return false
	}
	return true
}

// record stores a calculation when persistence is configured. Fallback results without a usable
// input are skipped.
func (h *Handlers) record(ctx context.Context, res service.Result[model.CalculationResult]) {
	if h.storage == nil || res.Value.Input.ClassificationCode == "" {
		return
	}
	if _, err := h.storage.SaveCalculation(ctx, res.Value, res.OK()); err != nil {
		common.LogWarn("Failed to record calculation", common.Fields{"error": err.Error()})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
