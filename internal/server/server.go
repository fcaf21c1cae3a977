// Package server exposes the underwriting engine as a JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/cre-underwriter/internal/config"
	"github.com/iwvelando/cre-underwriter/internal/model"
	"github.com/iwvelando/cre-underwriter/internal/projection"
	"github.com/iwvelando/cre-underwriter/internal/sector"
	"github.com/iwvelando/cre-underwriter/internal/sensitivity"
	"github.com/iwvelando/cre-underwriter/internal/underwriting"
	"github.com/iwvelando/cre-underwriter/internal/waterfall"
	"github.com/iwvelando/cre-underwriter/pkg/constants"
	"github.com/iwvelando/cre-underwriter/pkg/optimization"
	"github.com/iwvelando/cre-underwriter/pkg/validation"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures the handler.
type Options struct {
	MaxBodySize    int64
	Version        string
	AllowedOrigins []string
	Engine         config.EngineConfig
	// Catalog defaults to the embedded sector catalog.
	Catalog *sector.Catalog
}

type handler struct {
	logger      *zap.Logger
	maxBodySize int64
	version     string
	engine      config.EngineConfig
	catalog     *sector.Catalog
}

// NewHandler constructs the HTTP handler that serves the underwriting API.
func NewHandler(logger *zap.Logger, opts Options) (http.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxBodySize := opts.MaxBodySize
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	catalog := opts.Catalog
	if catalog == nil {
		var err error
		catalog, err = sector.DefaultCatalog()
		if err != nil {
			return nil, fmt.Errorf("failed to load sector catalog: %w", err)
		}
	}

	h := &handler{
		logger:      logger,
		maxBodySize: maxBodySize,
		version:     version,
		engine:      opts.Engine,
		catalog:     catalog,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		h.requestLogger,
		middleware.Recoverer,
	)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/fields", h.handleFields)
		r.Get("/sectors", h.handleSectors)
		r.Get("/sectors/{sector}", h.handleSector)

		r.Post("/underwriting", h.handleUnderwriting)
		r.Post("/projection", h.handleProjection)
		r.Post("/waterfall", h.handleWaterfall)
		r.Post("/sector-metrics", h.handleSectorMetrics)
		r.Post("/sensitivity", h.handleSensitivity)
		r.Post("/deal/export", h.handleDealExport)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
	return corsHandler.Handler(r), nil
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request served",
			zap.String("op", "server.request"),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type underwritingResponse struct {
	underwriting.Result
	InputWarnings []string `json:"inputWarnings,omitempty"`
}

type projectionRequest struct {
	Inputs model.Inputs `json:"inputs"`
	Years  int          `json:"years,omitempty"`
}

type projectionResponse struct {
	projection.CashFlowProjection
	InputWarnings []string `json:"inputWarnings,omitempty"`
}

type waterfallRequest struct {
	// CashFlows are the period equity flows; when absent they come from a
	// detailed projection of Inputs.
	CashFlows []float64           `json:"cashFlows,omitempty"`
	Inputs    *model.Inputs       `json:"inputs,omitempty"`
	Structure waterfall.Structure `json:"structure"`
}

type sectorMetricsRequest struct {
	Inputs  model.Inputs   `json:"inputs"`
	Profile sector.Profile `json:"profile"`
	Sector  string         `json:"sector,omitempty"`
}

type sensitivityRequest struct {
	Inputs    model.Inputs           `json:"inputs"`
	Waterfall *waterfall.Structure   `json:"waterfall,omitempty"`
	Grid      *sensitivity.Grid      `json:"grid,omitempty"`
	Scenarios []sensitivity.Scenario `json:"scenarios,omitempty"`
	Targets   []sensitivity.Target   `json:"targets,omitempty"`
	Engine    sensitivity.Engine     `json:"engine,omitempty"`
}

type sensitivityResponse struct {
	Grid      *sensitivity.GridResult      `json:"grid,omitempty"`
	Scenarios []sensitivity.ScenarioResult `json:"scenarios,omitempty"`
	Targets   []optimization.Summary       `json:"targets,omitempty"`
	Duration  string                       `json:"duration"`
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleFields(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"inputs":  model.FieldNames(),
		"profile": sector.ProfileFieldNames(),
		"metrics": sensitivity.Metrics(),
	})
}

func (h *handler) handleSectors(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": h.catalog.Version,
		"sectors": h.catalog.Entries(),
	})
}

func (h *handler) handleSector(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSector"
	s, err := sector.Parse(chi.URLParam(r, "sector"))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusNotFound, err.Error(), op)
		return
	}
	cfg, ok := h.catalog.Lookup(s)
	if !ok {
		h.respondErrorWithOp(w, http.StatusNotFound, fmt.Sprintf("sector catalog has no entry for %s", s), op)
		return
	}
	h.writeJSON(w, http.StatusOK, sector.Entry{Sector: s, Config: cfg})
}

func (h *handler) handleUnderwriting(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUnderwriting"
	var in model.Inputs
	if !h.decode(w, r, &in, op) {
		return
	}
	h.writeJSON(w, http.StatusOK, underwritingResponse{
		Result:        underwriting.CalculateUnderwriting(in),
		InputWarnings: validation.CheckInputs(in),
	})
}

func (h *handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleProjection"
	var req projectionRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Years < 0 || req.Years > constants.MaxHoldPeriodYears {
		h.respondErrorWithOp(w, http.StatusBadRequest,
			fmt.Sprintf("years must be between 0 and %d", constants.MaxHoldPeriodYears), op)
		return
	}
	opts := h.engine.ProjectionOptions()
	opts.Years = req.Years
	h.writeJSON(w, http.StatusOK, projectionResponse{
		CashFlowProjection: projection.Project(req.Inputs, opts),
		InputWarnings:      validation.CheckInputs(req.Inputs),
	})
}

func (h *handler) handleWaterfall(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleWaterfall"
	var req waterfallRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	flows := req.CashFlows
	if len(flows) == 0 && req.Inputs != nil {
		flows = projection.Project(*req.Inputs, h.engine.ProjectionOptions()).Summary.CashFlows
	}
	if len(flows) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "cashFlows or inputs with a projectable deal are required", op)
		return
	}

	res, err := waterfall.CalculateWaterfall(flows, req.Structure, waterfall.Options{IRR: h.engine.IRROptions()})
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.logger.Info("waterfall computed",
		zap.String("op", op),
		zap.String("runId", res.RunID),
		zap.Int("periods", len(res.Periods)),
	)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleSectorMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSectorMetrics"
	var req sectorMetricsRequest
	if !h.decode(w, r, &req, op) {
		return
	}

	var override sector.Sector
	if strings.TrimSpace(req.Sector) != "" {
		s, err := sector.Parse(req.Sector)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
			return
		}
		override = s
	}

	res, err := sector.CalculateSectorMetrics(req.Inputs, req.Profile, override, h.catalog)
	if err != nil {
		h.respondErr(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *handler) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSensitivity"
	start := time.Now()
	var req sensitivityRequest
	if !h.decode(w, r, &req, op) {
		return
	}
	if req.Grid == nil && len(req.Scenarios) == 0 && len(req.Targets) == 0 {
		h.respondErrorWithOp(w, http.StatusBadRequest, "grid, scenarios or targets are required", op)
		return
	}

	runner, err := sensitivity.NewRunner(h.logger, h.engine.SensitivityConfig(req.Waterfall))
	if err != nil {
		h.respondErr(w, err, op)
		return
	}

	ctx := r.Context()
	var resp sensitivityResponse
	if req.Grid != nil {
		g := *req.Grid
		if g.Engine == "" {
			g.Engine = req.Engine
		}
		if resp.Grid, err = runner.RunGrid(ctx, req.Inputs, g); err != nil {
			h.respondErr(w, err, op)
			return
		}
	}
	if len(req.Scenarios) > 0 {
		if resp.Scenarios, err = runner.RunScenarios(ctx, req.Inputs, req.Scenarios, req.Engine); err != nil {
			h.respondErr(w, err, op)
			return
		}
	}
	for _, t := range req.Targets {
		config.NormalizeTarget(&t)
		summary, err := runner.Solve(ctx, req.Inputs, t)
		if err != nil {
			h.respondErr(w, err, op)
			return
		}
		resp.Targets = append(resp.Targets, summary)
	}
	resp.Duration = time.Since(start).String()
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleDealExport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDealExport"
	var deal config.Deal
	if !h.decode(w, r, &deal, op) {
		return
	}
	if err := deal.Normalize(); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	yamlBytes, err := yaml.Marshal(&deal)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode deal: %v", err), op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dealYaml": string(yamlBytes),
		"warnings": deal.ValidateDeal(),
	})
}

// decode reads a JSON body into dst, answering the request itself on failure.
func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

// respondErr maps engine errors to a status: validation failures are the
// caller's fault, anything else is ours.
func (h *handler) respondErr(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	var verr *waterfall.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, sensitivity.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
