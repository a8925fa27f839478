package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/inkgrove/inkgrove-api/internal/api/shared"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/redact"
	"github.com/inkgrove/inkgrove-api/internal/scheduler"
)

// SchedulerControl is the slice of the scheduler the admin endpoints
// expose. Implemented by scheduler.Scheduler.
type SchedulerControl interface {
	ManualGenerate(ctx context.Context, opts scheduler.GenerateOptions) (*generation.TickReport, error)
	Status(ctx context.Context) (*scheduler.Status, error)
}

// GenerateRequest selects what a manual generation run performs. An empty
// body keeps the defaults: presets and the daily challenge on, AI off.
type GenerateRequest struct {
	Presets         *bool `json:"presets"`
	AI              bool  `json:"ai"`
	AICount         int   `json:"ai_count" validate:"gte=0,lte=20"`
	EnsureChallenge *bool `json:"ensure_challenge"`
}

func (req GenerateRequest) options() scheduler.GenerateOptions {
	opts := scheduler.GenerateOptions{
		Presets:         true,
		AI:              req.AI,
		AICount:         req.AICount,
		EnsureChallenge: true,
	}
	if req.Presets != nil {
		opts.Presets = *req.Presets
	}
	if req.EnsureChallenge != nil {
		opts.EnsureChallenge = *req.EnsureChallenge
	}
	return opts
}

// AdminHandler handles operational HTTP requests: scheduler status and
// manual generation runs.
type AdminHandler struct {
	scheduler SchedulerControl
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(scheduler SchedulerControl, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AdminHandler")
	}
	return &AdminHandler{
		scheduler: scheduler,
		logger:    logger.With(slog.String("component", "admin_handler")),
	}
}

// GetStatus handles GET /admin/scheduler/status requests.
func (h *AdminHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.scheduler.Status(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load scheduler status", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Generate handles POST /admin/generate requests, running one generation
// pass outside the schedule. The optional body selects the passes to run.
func (h *AdminHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GenerateRequest
	if err := shared.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	report, err := h.scheduler.ManualGenerate(r.Context(), req.options())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Generation run failed"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Info("manual generation finished",
		slog.String("date", report.Date),
		slog.Int("preset_created", report.PresetCreated),
		slog.Int("ai_created", report.AICreated))
	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
