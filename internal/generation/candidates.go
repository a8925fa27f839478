package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// CandidateRequest describes one (kind, count) generation batch.
type CandidateRequest struct {
	// Date the accepted tasks will belong to, YYYY-MM-DD.
	Date string

	// Kind of task to generate (inkdot or inkline).
	Kind domain.TaskKind

	// Count of task slots requested.
	Count int

	// TargetCategories is the balancer's coverage list; candidates whose
	// category falls outside it are coerced back in.
	TargetCategories []domain.SkillCategory

	// Samples are up to five templates embedded for style grounding.
	Samples []*domain.TaskTemplate

	// RecentFingerprints is the trailing-window dedup set fetched for this
	// batch; any candidate whose fingerprint is present is dropped.
	RecentFingerprints map[string]struct{}

	// StartOrder is the sort position of the first accepted task.
	StartOrder int
}

// CandidateResult reports a batch outcome. A partial result (some
// candidates rejected) is not an error.
type CandidateResult struct {
	Requested  int
	Accepted   int
	Duplicates int
	Skipped    int
	Tasks      []*domain.DailyTask
}

// candidateSchema is the strict wire shape expected from the model, one
// element per task slot.
type candidateSchema struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Difficulty  string `json:"difficulty"`
	PromptKind  string `json:"prompt_kind"`
}

// CandidateGenerator builds generation prompts, parses model responses,
// and turns accepted candidates into AI-sourced daily task drafts.
type CandidateGenerator struct {
	gen    TextGenerator
	rng    *rand.Rand
	die    *PromptKindDie
	logger *slog.Logger
}

// NewCandidateGenerator creates a CandidateGenerator. The random source
// drives constraint-token draws, nonces, prompt-kind rolls, and category
// fallbacks; inject a seeded source for deterministic tests.
func NewCandidateGenerator(gen TextGenerator, rng *rand.Rand, logger *slog.Logger) *CandidateGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CandidateGenerator{
		gen:    gen,
		rng:    rng,
		die:    NewPromptKindDie(rng),
		logger: logger.With(slog.String("component", "candidate_generator")),
	}
}

// Generate runs one batch: builds the prompt, calls the model, and filters
// the response into accepted task drafts. Returns ErrMalformedResponse if
// the response contains no well-formed candidate array; individual bad
// candidates are skipped, not fatal.
func (g *CandidateGenerator) Generate(ctx context.Context, req CandidateRequest) (*CandidateResult, error) {
	result := &CandidateResult{Requested: req.Count}
	if req.Count <= 0 {
		return result, nil
	}

	targets := req.TargetCategories
	if len(targets) == 0 {
		targets = domain.AllSkillCategories
	}

	// Roll the per-slot assignments up front; the model is told what to
	// produce and its own echoes are ignored on the way back, so the
	// requested prompt-kind distribution always holds.
	constraintTokens := pickConstraintTokens(g.rng, req.Count)
	promptKinds := make([]domain.PromptKind, req.Count)
	for i := range promptKinds {
		promptKinds[i] = g.die.Roll()
	}
	nonce := fmt.Sprintf("%08x", g.rng.Uint32())

	prompt := g.buildPrompt(req.Kind, req.Count, targets, req.Samples, constraintTokens, promptKinds, nonce)

	response, err := g.gen.Generate(ctx, FeatureTaskGenerate, []Message{
		{Role: "user", Content: prompt},
	}, Options{Temperature: 0.8})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	candidates, err := parseCandidateArray(response)
	if err != nil {
		return nil, err
	}

	spec := SpecForKind(req.Kind)
	seen := make(map[string]struct{}, len(req.RecentFingerprints))
	for fp := range req.RecentFingerprints {
		seen[fp] = struct{}{}
	}

	limit := len(candidates)
	if limit > req.Count {
		limit = req.Count
	}

	for i := 0; i < limit; i++ {
		candidate := candidates[i]
		baseTitle := strings.TrimSpace(candidate.Title)
		baseDescription := strings.TrimSpace(candidate.Description)
		if baseTitle == "" || baseDescription == "" {
			result.Skipped++
			continue
		}

		promptKind := promptKinds[i]
		title, description := FormatByPromptKind(promptKind, baseTitle, baseDescription, spec.WordLimitText)
		title = strings.TrimSpace(title)
		description = strings.TrimSpace(description)

		// The model was told to embed the slot's constraint token; append
		// it when omitted so the anti-repetition guarantee survives.
		token := constraintTokens[i]
		if token != "" && !strings.Contains(description, token) {
			description = description + "\n\nConstraint token: " + token
		}

		category := coerceCategory(candidate.Category, targets, g.rng)

		task := domain.NewDailyTask(req.Date, req.Kind, title, description)
		task.PromptKind = promptKind
		task.Category = category
		task.TimeLimit = spec.TimeLimit
		task.WordLimitMin = spec.WordLimitMin
		task.WordLimitMax = spec.WordLimitMax
		task.XPReward = spec.XPReward
		task.AttrReward = spec.AttrReward
		task.Difficulty = coerceDifficulty(candidate.Difficulty)
		task.Source = domain.TaskSourceAIGenerated
		task.SortOrder = req.StartOrder + result.Accepted

		if _, dup := seen[task.Fingerprint]; dup {
			g.logger.Debug("dropping duplicate candidate",
				slog.String("title", baseTitle),
				slog.String("fingerprint", task.Fingerprint))
			result.Duplicates++
			continue
		}
		seen[task.Fingerprint] = struct{}{}

		if err := task.Validate(); err != nil {
			result.Skipped++
			continue
		}

		result.Tasks = append(result.Tasks, task)
		result.Accepted++
	}

	g.logger.Info("candidate batch processed",
		slog.String("kind", string(req.Kind)),
		slog.Int("requested", result.Requested),
		slog.Int("accepted", result.Accepted),
		slog.Int("duplicates", result.Duplicates),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

// buildPrompt assembles the generation request text.
func (g *CandidateGenerator) buildPrompt(
	kind domain.TaskKind,
	count int,
	targets []domain.SkillCategory,
	samples []*domain.TaskTemplate,
	constraintTokens []string,
	promptKinds []domain.PromptKind,
	nonce string,
) string {
	spec := SpecForKind(kind)

	var b strings.Builder
	fmt.Fprintf(&b, "You are a writing-practice coach. Generate %d new %q tasks for a writing learner.\n\n", count, spec.Name)
	fmt.Fprintf(&b, "%s task characteristics:\n- time limit: %s\n- length: %s\n- goal: train one specific writing skill\n\n", spec.Name, spec.TimeLimitText, spec.WordLimitText)

	if len(samples) > 0 {
		b.WriteString("Reference samples:\n")
		for i, s := range samples {
			fmt.Fprintf(&b, "%d. [%s] %s (trains: %s)\n", i+1, s.Title, s.Description, s.Category)
		}
		b.WriteString("\n")
	}

	b.WriteString("The six skill categories:\n")
	for _, def := range categoryDefinitions {
		fmt.Fprintf(&b, "- %s: %s\n", def.Category, def.Definition)
	}

	targetNames := make([]string, len(targets))
	for i, t := range targets {
		targetNames[i] = string(t)
	}

	fmt.Fprintf(&b, "\nGenerate %d distinct tasks. Requirements:\n", count)
	b.WriteString("1. Titles must be concrete and actionable.\n")
	b.WriteString("2. Do not repeat the reference samples.\n")
	fmt.Fprintf(&b, "3. Prioritize covering these categories: %s (spread evenly if the count is short).\n", strings.Join(targetNames, ", "))
	b.WriteString("4. Be inventive; the tasks should make someone want to write.\n")
	fmt.Fprintf(&b, "5. To avoid repetition, each task's description MUST contain its assigned constraint token (no omissions, no reuse): %s\n", quoteAll(constraintTokens))
	b.WriteString("6. Avoid the reference samples' title phrasing; vary settings, relationships, and narrative angles.\n")
	fmt.Fprintf(&b, "7. Random seed: %s\n", nonce)

	b.WriteString("\nThe prompt_kind of each task is fixed by a die roll (output exactly as assigned):\n")
	b.WriteString("- normal: a regular writing exercise\n")
	b.WriteString("- polish: a dry outline the user rewrites into full prose\n")
	b.WriteString("- continue: an opening passage the user continues\n\n")

	b.WriteString("Slot assignments (must match one-to-one):\n")
	for i := 0; i < count; i++ {
		fmt.Fprintf(&b, "- #%d: prompt_kind=%s, constraint token=%q\n", i+1, promptKinds[i], constraintTokens[i])
	}

	fmt.Fprintf(&b,
		"\nRespond with a JSON array only. Each element: {\"title\", \"description\", \"category\", \"difficulty\" (easy/normal/hard), \"prompt_kind\"}. category must be one of [%s]; prompt_kind must match the assignment above.",
		strings.Join(targetNames, ", "))

	return b.String()
}

// parseCandidateArray extracts and strictly decodes the JSON candidate
// array from a raw model response. The decode fails closed: anything that
// does not unmarshal into the expected shape is ErrMalformedResponse.
func parseCandidateArray(response string) ([]candidateSchema, error) {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrMalformedResponse)
	}

	var candidates []candidateSchema
	if err := json.Unmarshal([]byte(response[start:end+1]), &candidates); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return candidates, nil
}

// coerceCategory maps a model-reported category into the allowed target
// list, falling back to a random allowed category when invalid.
func coerceCategory(raw string, targets []domain.SkillCategory, rng *rand.Rand) domain.SkillCategory {
	candidate := domain.SkillCategory(strings.TrimSpace(strings.ToLower(raw)))
	for _, t := range targets {
		if candidate == t {
			return candidate
		}
	}
	return targets[rng.Intn(len(targets))]
}

// coerceDifficulty normalizes a model-reported difficulty label.
func coerceDifficulty(raw string) domain.Difficulty {
	switch domain.Difficulty(strings.TrimSpace(strings.ToLower(raw))) {
	case domain.DifficultyEasy:
		return domain.DifficultyEasy
	case domain.DifficultyHard:
		return domain.DifficultyHard
	default:
		return domain.DifficultyNormal
	}
}

// quoteAll renders the token list for prompt embedding.
func quoteAll(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = fmt.Sprintf("%q", t)
	}
	return strings.Join(quoted, ", ")
}
