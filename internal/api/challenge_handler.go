package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/inkgrove/inkgrove-api/internal/api/shared"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/redact"
	"github.com/inkgrove/inkgrove-api/internal/service"
)

// ChallengeManager is the slice of the challenge tracker the handler
// exposes. Implemented by service.ChallengeService.
type ChallengeManager interface {
	EnsureDaily(ctx context.Context) (*domain.DailyChallenge, error)
	GetWeekly(ctx context.Context) (*service.WeeklyView, error)
	SubmitWeekly(ctx context.Context, content string) (*service.WeeklySubmitResult, error)
}

// ChallengeHandler handles daily and weekly challenge HTTP requests.
type ChallengeHandler struct {
	challenges ChallengeManager
	logger     *slog.Logger
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(challenges ChallengeManager, logger *slog.Logger) *ChallengeHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ChallengeHandler")
	}
	return &ChallengeHandler{
		challenges: challenges,
		logger:     logger.With(slog.String("component", "challenge_handler")),
	}
}

// WeeklySubmitRequest is the body for submitting a weekly challenge.
type WeeklySubmitRequest struct {
	Content string `json:"content" validate:"required"`
}

// GetDaily handles GET /challenges/daily requests. The day's challenge is
// created on first access.
func (h *ChallengeHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	challenge, err := h.challenges.EnsureDaily(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), "Failed to load daily challenge", err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, challenge)
}

// GetWeekly handles GET /challenges/weekly requests.
func (h *ChallengeHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	view, err := h.challenges.GetWeekly(r.Context())
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to load weekly challenge"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// SubmitWeekly handles POST /challenges/weekly/submit requests.
func (h *ChallengeHandler) SubmitWeekly(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req WeeklySubmitRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.challenges.SubmitWeekly(r.Context(), req.Content)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit weekly challenge"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("weekly challenge submitted",
		slog.Int("score", result.Score),
		slog.Bool("fallback_used", result.FallbackUsed))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
