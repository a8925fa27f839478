package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/inkgrove/inkgrove-api/internal/config"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"google.golang.org/genai"
)

// Generator implements generation.TextGenerator using the Gemini API.
type Generator struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini-backed text generator. It validates the
// LLM configuration and initializes the API client; an empty API key or
// model name is a configuration error, not a runtime one.
func NewGenerator(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: logger.With(slog.String("component", "gemini_generator")),
		config: cfg,
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure Generator implements generation.TextGenerator
var _ generation.TextGenerator = (*Generator)(nil)

// Generate implements generation.TextGenerator.Generate. Transient API
// failures are retried with exponential backoff and jitter up to the
// configured attempt limit; safety blocks and empty responses are
// permanent and returned immediately.
func (g *Generator) Generate(ctx context.Context, feature generation.Feature, messages []generation.Message, opts generation.Options) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("%w: no messages to send", generation.ErrGenerationFailed)
	}

	contents := buildContents(messages)
	genConfig := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(opts.Temperature)
	}

	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		g.logger.InfoContext(ctx, "calling Gemini API",
			slog.String("feature", string(feature)),
			slog.String("model", g.model),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1))

		resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, genConfig)

		var text string
		transient := false
		switch {
		case err != nil:
			// API-level failures (network, quota, 5xx) are assumed
			// retryable.
			transient = true
			err = fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		case resp == nil || len(resp.Candidates) == 0:
			err = fmt.Errorf("%w: no candidates in response", generation.ErrMalformedResponse)
		case resp.Candidates[0].FinishReason == genai.FinishReasonSafety:
			err = fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
		default:
			text = resp.Text()
			if text == "" {
				err = fmt.Errorf("%w: empty response text", generation.ErrMalformedResponse)
			}
		}

		if err == nil {
			g.logger.InfoContext(ctx, "Gemini API call succeeded",
				slog.String("feature", string(feature)),
				slog.Int("attempt", attempt+1),
				slog.Int("response_length", len(text)))
			return text, nil
		}

		g.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.String("feature", string(feature)),
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d)",
				generation.ErrTransientFailure, maxRetries)
		}

		delay := backoffDelay(baseDelaySeconds, attempt, rng)
		g.logger.InfoContext(ctx, "retrying after delay",
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// buildContents maps conversation messages onto genai contents. Anything
// not from the user is attributed to the model.
func buildContents(messages []generation.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleModel)
		if m.Role == "user" {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// backoffDelay computes delay = base * 2^attempt scaled by a jitter factor
// in [0.5, 1.0).
func backoffDelay(baseDelaySeconds, attempt int, rng *rand.Rand) time.Duration {
	backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
	jitterFactor := 0.5 + rng.Float64()*0.5
	return time.Duration(backoffSeconds * jitterFactor * float64(time.Second))
}
