package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// Evaluator scores submitted writing against its task using the text
// generation service. Callers decide what to do when evaluation fails;
// this type only reports the failure.
type Evaluator struct {
	gen    TextGenerator
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(gen TextGenerator, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		gen:    gen,
		logger: logger.With(slog.String("component", "evaluator")),
	}
}

// EvaluateSubmission scores one task submission. The returned evaluation
// carries an overall 0-100 score, five 0-10 sub-dimension scores, and
// free-text feedback. A structurally invalid model response yields
// ErrMalformedResponse and no evaluation.
func (e *Evaluator) EvaluateSubmission(ctx context.Context, task *domain.DailyTask, content string, wordCount int) (*domain.Evaluation, error) {
	prompt := buildEvaluationPrompt(task.Title, task.Description, string(task.Kind), task.WordLimitMin, task.WordLimitMax, content, wordCount)

	return e.evaluate(ctx, FeatureTaskEvaluate, prompt)
}

// EvaluateWeekly scores a weekly challenge submission. Weekly pieces are
// longer-form, so the prompt frames the review accordingly, but the result
// shape is the same as for daily submissions.
func (e *Evaluator) EvaluateWeekly(ctx context.Context, challenge *domain.WeeklyChallenge, content string, wordCount int) (*domain.Evaluation, error) {
	prompt := buildEvaluationPrompt(challenge.Title, challenge.Description, "weekly piece", 0, 0, content, wordCount)

	return e.evaluate(ctx, FeatureWeeklyEvaluate, prompt)
}

func (e *Evaluator) evaluate(ctx context.Context, feature Feature, prompt string) (*domain.Evaluation, error) {
	response, err := e.gen.Generate(ctx, feature, []Message{
		{Role: "user", Content: prompt},
	}, Options{Temperature: 0.3})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	eval, err := parseEvaluation(response)
	if err != nil {
		e.logger.Warn("evaluation response rejected",
			slog.String("feature", string(feature)),
			slog.String("error", err.Error()))
		return nil, err
	}

	return eval, nil
}

// buildEvaluationPrompt assembles the review request text.
func buildEvaluationPrompt(title, description, kindLabel string, wordMin, wordMax int, content string, wordCount int) string {
	var b strings.Builder
	b.WriteString("You are a rigorous but encouraging writing reviewer. Review the submission below against its exercise.\n\n")
	fmt.Fprintf(&b, "Exercise (%s): %s\n%s\n", kindLabel, title, description)
	if wordMin > 0 && wordMax > 0 {
		fmt.Fprintf(&b, "Expected length: %d-%d words.\n", wordMin, wordMax)
	}
	fmt.Fprintf(&b, "\nSubmission (%d words):\n%s\n\n", wordCount, content)
	b.WriteString("Score the submission 0-100 overall, and 0-10 on each of: completion (did it fulfill the exercise), technique (craft of the relevant skill), creativity, expression (clarity and flow), detail (concrete specifics).\n")
	b.WriteString("Then give 1-3 highlights, 1-3 improvements, and a one-paragraph overall comment. Be specific; quote the text where useful.\n\n")
	b.WriteString(`Respond with a JSON object only, exactly this shape: {"score": 0, "dimensions": {"completion": {"score": 0, "comment": ""}, "technique": {"score": 0, "comment": ""}, "creativity": {"score": 0, "comment": ""}, "expression": {"score": 0, "comment": ""}, "detail": {"score": 0, "comment": ""}}, "highlights": [], "improvements": [], "overall": ""}`)
	return b.String()
}

// parseEvaluation extracts and strictly decodes the evaluation object from
// a raw model response. Out-of-range scores are clamped rather than
// rejected; structural mismatches fail closed.
func parseEvaluation(response string) (*domain.Evaluation, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	var eval domain.Evaluation
	if err := json.Unmarshal([]byte(response[start:end+1]), &eval); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	eval.Score = clampScore(eval.Score, 100)
	for _, dim := range []*domain.DimensionScore{
		&eval.Dimensions.Completion,
		&eval.Dimensions.Technique,
		&eval.Dimensions.Creativity,
		&eval.Dimensions.Expression,
		&eval.Dimensions.Detail,
	} {
		dim.Score = clampScore(dim.Score, 10)
	}

	return &eval, nil
}

func clampScore(score, max int) int {
	if score < 0 {
		return 0
	}
	if score > max {
		return max
	}
	return score
}
