// Package api provides HTTP handlers for the API.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/inkgrove/inkgrove-api/internal/api/shared"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/redact"
	"github.com/inkgrove/inkgrove-api/internal/service"
)

// TaskManager is the slice of the task lifecycle the handler exposes.
// Implemented by service.TaskService.
type TaskManager interface {
	GetTodayTasks(ctx context.Context, kind domain.TaskKind) ([]*service.TaskView, error)
	Start(ctx context.Context, taskID uuid.UUID) (*domain.TaskRecord, error)
	SaveDraft(ctx context.Context, recordID uuid.UUID, content string, timeSpent int) (int, error)
	Submit(ctx context.Context, recordID uuid.UUID, content string, timeSpent int) (*service.SubmitResult, error)
	GetTaskStats(ctx context.Context) (*service.TaskStats, error)
}

// TaskHandler handles task lifecycle HTTP requests.
type TaskHandler struct {
	tasks  TaskManager
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(tasks TaskManager, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for TaskHandler")
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// DraftRequest is the body for saving in-progress content.
type DraftRequest struct {
	Content   string `json:"content"`
	TimeSpent int    `json:"time_spent" validate:"gte=0"`
}

// SubmitRequest is the body for submitting a finished attempt.
type SubmitRequest struct {
	Content   string `json:"content"    validate:"required"`
	TimeSpent int    `json:"time_spent" validate:"gte=0"`
}

// DraftResponse reports the saved draft's recomputed word count.
type DraftResponse struct {
	RecordID  string `json:"record_id"`
	WordCount int    `json:"word_count"`
}

// GetToday handles GET /tasks/today requests. The optional kind query
// parameter narrows the listing to one task kind.
func (h *TaskHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	kind := domain.TaskKind(r.URL.Query().Get("kind"))
	if kind != "" && !kind.IsValid() {
		log.Warn("invalid task kind in query", slog.String("kind", string(kind)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task kind")
		return
	}

	views, err := h.tasks.GetTodayTasks(r.Context(), kind)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to list today's tasks", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, views)
}

// Start handles POST /tasks/{id}/start requests. Starting an already
// started task resumes its open attempt record.
func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathUUID(r, "id")
	if err != nil {
		log.Warn("invalid task ID in path", slog.String("error", redact.Error(err)))
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	record, err := h.tasks.Start(r.Context(), taskID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("task started",
		slog.String("task_id", taskID.String()),
		slog.String("record_id", record.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, record)
}

// SaveDraft handles PUT /records/{id}/draft requests.
func (h *TaskHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	recordID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	var req DraftRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	wordCount, err := h.tasks.SaveDraft(r.Context(), recordID, req.Content, req.TimeSpent)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DraftResponse{
		RecordID:  recordID.String(),
		WordCount: wordCount,
	})
}

// Submit handles POST /records/{id}/submit requests.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	recordID, err := getPathUUID(r, "id")
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	var req SubmitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.tasks.Submit(r.Context(), recordID, req.Content, req.TimeSpent)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit attempt"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("attempt submitted",
		slog.String("record_id", recordID.String()),
		slog.Int("score", result.Score),
		slog.Bool("fallback_used", result.FallbackUsed))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetStats handles GET /tasks/stats requests.
func (h *TaskHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.tasks.GetTaskStats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load task statistics", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
