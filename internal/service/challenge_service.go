package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/events"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// scoreAboveThreshold is the evaluation score a score_above challenge
// requires.
const scoreAboveThreshold = 80

// WeeklyEvaluator scores a weekly submission. Implemented by
// generation.Evaluator; nil disables evaluation (fallback score).
type WeeklyEvaluator interface {
	EvaluateWeekly(ctx context.Context, challenge *domain.WeeklyChallenge, content string, wordCount int) (*domain.Evaluation, error)
}

// challengeArchetype is one of the fixed daily challenge templates. The
// base target scales with the user's level.
type challengeArchetype struct {
	Type        domain.ChallengeType
	Title       string
	Description string
	BaseTarget  int
	XPReward    int
}

var dailyArchetypes = []challengeArchetype{
	{
		Type:        domain.ChallengeTaskCount,
		Title:       "Warm Hands",
		Description: "Complete %d writing tasks today.",
		BaseTarget:  3,
		XPReward:    50,
	},
	{
		Type:        domain.ChallengeWordCount,
		Title:       "Steady Flow",
		Description: "Write %d words across today's tasks.",
		BaseTarget:  500,
		XPReward:    50,
	},
	{
		Type:        domain.ChallengeInklineComplete,
		Title:       "The Long Stroke",
		Description: "Complete %d inkline task today.",
		BaseTarget:  1,
		XPReward:    60,
	},
	{
		Type:        domain.ChallengeScoreAbove,
		Title:       "Sharp Edge",
		Description: "Earn a review score of 80 or higher on %d submission.",
		BaseTarget:  1,
		XPReward:    70,
	},
}

// WeeklyView is a weekly challenge with its submission, if any.
type WeeklyView struct {
	Challenge  *domain.WeeklyChallenge  `json:"challenge"`
	Submission *domain.WeeklySubmission `json:"submission,omitempty"`
}

// WeeklySubmitResult reports the outcome of a weekly submission.
type WeeklySubmitResult struct {
	Submission   *domain.WeeklySubmission `json:"submission"`
	Score        int                      `json:"score"`
	FallbackUsed bool                     `json:"fallback_used"`
}

// ChallengeService manages daily and weekly challenges: archetype
// selection, progress accumulation from lifecycle events, and the
// complete-once reward. It implements events.Handler so the task lifecycle
// can feed it directly.
type ChallengeService struct {
	db         *sql.DB
	challenges store.ChallengeStore
	templates  store.TemplateStore
	profile    ProfileProvider
	rewards    RewardService
	evaluator  WeeklyEvaluator
	rng        *rand.Rand
	logger     *slog.Logger
	now        func() time.Time
}

// NewChallengeService creates a ChallengeService. profile, rewards, and
// evaluator may be nil; the service then uses level 1, skips reward calls,
// and assigns the fallback score to weekly submissions.
func NewChallengeService(
	db *sql.DB,
	challenges store.ChallengeStore,
	templates store.TemplateStore,
	profile ProfileProvider,
	rewards RewardService,
	evaluator WeeklyEvaluator,
	rng *rand.Rand,
	logger *slog.Logger,
	now func() time.Time,
) *ChallengeService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &ChallengeService{
		db:         db,
		challenges: challenges,
		templates:  templates,
		profile:    profile,
		rewards:    rewards,
		evaluator:  evaluator,
		rng:        rng,
		logger:     logger.With(slog.String("component", "challenge_service")),
		now:        now,
	}
}

// Ensure ChallengeService consumes lifecycle events
var _ events.Handler = (*ChallengeService)(nil)

// EnsureDaily returns today's challenge, creating one from a random
// archetype if the day has none. The target scales with the user's level:
// ceil(base * (1 + 0.1 * (level - 1))).
func (s *ChallengeService) EnsureDaily(ctx context.Context) (*domain.DailyChallenge, error) {
	date := s.now().UTC().Format("2006-01-02")

	challenge, err := s.challenges.GetDailyByDate(ctx, date)
	if err == nil {
		return challenge, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load daily challenge: %w", err)
	}

	arch := dailyArchetypes[s.rng.Intn(len(dailyArchetypes))]
	target := s.scaledTarget(ctx, arch.BaseTarget)

	challenge = &domain.DailyChallenge{
		ID:            uuid.New(),
		ChallengeDate: date,
		Type:          arch.Type,
		Title:         arch.Title,
		Description:   fmt.Sprintf(arch.Description, target),
		TargetValue:   target,
		XPReward:      arch.XPReward,
		CreatedAt:     s.now().UTC(),
	}

	if err := s.challenges.CreateDaily(ctx, challenge); err != nil {
		// A concurrent tick may have created the row; fall back to it.
		if existing, getErr := s.challenges.GetDailyByDate(ctx, date); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create daily challenge: %w", err)
	}

	s.logger.Info("daily challenge created",
		slog.String("date", date),
		slog.String("type", string(arch.Type)),
		slog.Int("target", target))
	return challenge, nil
}

// HandleEvent implements events.Handler. It maps a progress event onto
// today's active challenge and persists the accumulated progress; crossing
// the target completes the challenge and awards its XP exactly once,
// because completed challenges are no longer active.
func (s *ChallengeService) HandleEvent(ctx context.Context, event *events.ProgressEvent) error {
	date := s.now().UTC().Format("2006-01-02")

	challenge, err := s.challenges.GetActiveDaily(ctx, date)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil
		}
		return fmt.Errorf("failed to load active challenge: %w", err)
	}

	delta := progressDelta(challenge.Type, event)
	if delta == 0 {
		return nil
	}

	current := challenge.CurrentValue + delta
	// A score_above challenge is satisfied by a single qualifying score;
	// progress is set to 1, not accumulated across submissions.
	if challenge.Type == domain.ChallengeScoreAbove {
		current = 1
	}
	completed := current >= challenge.TargetValue
	var completedAt *time.Time
	if completed {
		t := s.now().UTC()
		completedAt = &t
	}

	if err := s.challenges.UpdateDailyProgress(ctx, challenge.ID, current, completed, completedAt); err != nil {
		return fmt.Errorf("failed to update challenge progress: %w", err)
	}

	log := logger.FromContextOrDefault(ctx, s.logger)
	log.Debug("challenge progress updated",
		slog.String("type", string(challenge.Type)),
		slog.Int("current", current),
		slog.Int("target", challenge.TargetValue))

	if completed {
		log.Info("daily challenge completed",
			slog.String("type", string(challenge.Type)),
			slog.Int("xp_reward", challenge.XPReward))
		if s.rewards != nil {
			if _, err := s.rewards.AwardXP(ctx, challenge.XPReward, "daily_challenge"); err != nil {
				log.Error("failed to award challenge XP", slog.String("error", err.Error()))
			}
			if _, err := s.rewards.CheckAchievements(ctx, TriggerDailyChallenge, 0); err != nil {
				log.Error("failed to check achievements",
					slog.String("trigger", TriggerDailyChallenge),
					slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

// GetWeekly returns this week's challenge with its submission, creating
// the challenge from a random inkchapter template when the week has none.
func (s *ChallengeService) GetWeekly(ctx context.Context) (*WeeklyView, error) {
	challenge, err := s.ensureWeekly(ctx)
	if err != nil {
		return nil, err
	}

	view := &WeeklyView{Challenge: challenge}
	submission, err := s.challenges.LatestWeeklySubmission(ctx, challenge.ID)
	switch {
	case err == nil:
		view.Submission = submission
	case store.IsNotFoundError(err):
		// Not submitted yet.
	default:
		return nil, fmt.Errorf("failed to load weekly submission: %w", err)
	}
	return view, nil
}

// SubmitWeekly submits against this week's challenge. A weekly challenge
// accepts exactly one submission; the reward is granted with it.
func (s *ChallengeService) SubmitWeekly(ctx context.Context, content string) (*WeeklySubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	challenge, err := s.ensureWeekly(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.challenges.LatestWeeklySubmission(ctx, challenge.ID); err == nil {
		return nil, ErrSubmissionExists
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing submission: %w", err)
	}

	wordCount := domain.WordCount(content)
	now := s.now().UTC()
	submission := &domain.WeeklySubmission{
		ID:          uuid.New(),
		ChallengeID: challenge.ID,
		Status:      domain.RecordStatusSubmitted,
		Content:     content,
		WordCount:   wordCount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.challenges.CreateWeeklySubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to create weekly submission: %w", err)
	}

	score, feedback, fallbackUsed := s.evaluateWeekly(ctx, challenge, content, wordCount)
	if err := s.challenges.CompleteWeeklySubmission(ctx, submission.ID, score, feedback); err != nil {
		return nil, fmt.Errorf("failed to complete weekly submission: %w", err)
	}

	submission.Status = domain.RecordStatusCompleted
	submission.Score = &score
	submission.AIFeedback = feedback

	log.Info("weekly submission completed",
		slog.String("challenge_id", challenge.ID.String()),
		slog.Int("score", score),
		slog.Int("word_count", wordCount),
		slog.Bool("fallback_used", fallbackUsed))

	if s.rewards != nil {
		if _, err := s.rewards.AwardXP(ctx, challenge.XPReward, "weekly_challenge"); err != nil {
			log.Error("failed to award weekly XP", slog.String("error", err.Error()))
		}
	}

	return &WeeklySubmitResult{
		Submission:   submission,
		Score:        score,
		FallbackUsed: fallbackUsed,
	}, nil
}

// ensureWeekly fetches or creates the challenge for the ISO week of now.
func (s *ChallengeService) ensureWeekly(ctx context.Context) (*domain.WeeklyChallenge, error) {
	nowUTC := s.now().UTC()
	weekStart := domain.WeekStartOf(nowUTC)

	challenge, err := s.challenges.GetWeeklyByStart(ctx, weekStart)
	if err == nil {
		return challenge, nil
	}
	if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to load weekly challenge: %w", err)
	}

	templates, err := s.templates.RandomActive(ctx, domain.TaskKindInkchapter, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to draw weekly template: %w", err)
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplateAvailable
	}
	tmpl := templates[0]

	challenge = &domain.WeeklyChallenge{
		ID:           uuid.New(),
		WeekStart:    weekStart,
		WeekEnd:      domain.WeekEndOf(nowUTC),
		Title:        tmpl.Title,
		Theme:        string(tmpl.Category),
		Description:  tmpl.Description,
		Requirements: tmpl.Requirements,
		WordLimitMin: tmpl.WordLimitMin,
		WordLimitMax: tmpl.WordLimitMax,
		XPReward:     tmpl.XPReward,
		IsActive:     true,
		CreatedAt:    nowUTC,
	}
	if err := s.challenges.CreateWeekly(ctx, challenge); err != nil {
		if existing, getErr := s.challenges.GetWeeklyByStart(ctx, weekStart); getErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to create weekly challenge: %w", err)
	}

	s.logger.Info("weekly challenge created",
		slog.String("week_start", weekStart),
		slog.String("title", challenge.Title))
	return challenge, nil
}

// evaluateWeekly mirrors the task evaluation fallback behavior.
func (s *ChallengeService) evaluateWeekly(ctx context.Context, challenge *domain.WeeklyChallenge, content string, wordCount int) (int, []byte, bool) {
	if s.evaluator == nil {
		return fallbackScore, nil, true
	}
	eval, err := s.evaluator.EvaluateWeekly(ctx, challenge, content, wordCount)
	if err != nil {
		s.logger.Warn("weekly evaluation failed, using fallback score",
			slog.String("challenge_id", challenge.ID.String()),
			slog.String("error", err.Error()))
		return fallbackScore, nil, true
	}
	feedback, err := json.Marshal(eval)
	if err != nil {
		return fallbackScore, nil, true
	}
	return eval.Score, feedback, false
}

// scaledTarget applies the level curve to an archetype's base target.
func (s *ChallengeService) scaledTarget(ctx context.Context, base int) int {
	level := 1
	if s.profile != nil {
		if l, err := s.profile.CurrentLevel(ctx); err == nil && l > 1 {
			level = l
		}
	}
	return int(math.Ceil(float64(base) * (1 + 0.1*float64(level-1))))
}

// progressDelta maps an event onto a challenge type's progress increment.
func progressDelta(challengeType domain.ChallengeType, event *events.ProgressEvent) int {
	switch challengeType {
	case domain.ChallengeTaskCount:
		if event.Type == events.EventTaskComplete {
			return 1
		}
	case domain.ChallengeWordCount:
		if event.Type == events.EventWordAdded {
			return event.Value
		}
	case domain.ChallengeInklineComplete:
		if event.Type == events.EventInklineComplete {
			return 1
		}
	case domain.ChallengeScoreAbove:
		if event.Type == events.EventScoreReceived && event.Value >= scoreAboveThreshold {
			return 1
		}
	}
	return 0
}
