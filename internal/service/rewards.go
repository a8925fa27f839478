package service

import (
	"context"
	"log/slog"

	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// Achievement check triggers. Each completion path tags its checks so the
// reward subsystem can evaluate only the relevant unlock rules.
const (
	TriggerTaskComplete   = "task_complete"
	TriggerScoreReceived  = "score_received"
	TriggerAttrUpdate     = "attr_update"
	TriggerWordsUpdate    = "words_update"
	TriggerDailyChallenge = "daily_challenge_complete"
)

// XPAward reports one experience-point credit.
type XPAward struct {
	XPAwarded int    `json:"xp_awarded"`
	Source    string `json:"source"`
}

// StreakResult reports the activity streak after an update.
type StreakResult struct {
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	Extended      bool `json:"extended"`
}

// Achievement identifies a newly unlocked achievement.
type Achievement struct {
	Code  string `json:"code"`
	Title string `json:"title"`
}

// RewardService is the outbound boundary to the profile/reward subsystem.
// The lifecycle services call it after a completion and surface its results
// to the caller; failures here are logged and never fail the triggering
// operation.
type RewardService interface {
	// AwardXP credits experience points from the named source and reports
	// what was credited.
	AwardXP(ctx context.Context, amount int, source string) (*XPAward, error)

	// AwardAttribute credits skill attribute points for a category.
	AwardAttribute(ctx context.Context, category domain.SkillCategory, points int) error

	// UpdateStreak refreshes the user's activity streak for today and
	// reports the resulting streak state.
	UpdateStreak(ctx context.Context) (*StreakResult, error)

	// CheckAchievements runs the unlock checks bound to trigger, with
	// value carrying the trigger's magnitude (a score, a count, or zero),
	// and returns any achievements unlocked by the check.
	CheckAchievements(ctx context.Context, trigger string, value int) ([]Achievement, error)
}

// ProfileProvider exposes the bits of the user profile the engine reads.
type ProfileProvider interface {
	// CurrentLevel returns the user's current level, minimum 1.
	CurrentLevel(ctx context.Context) (int, error)
}

// LogRewardService is a RewardService that only records awards in the log.
// It stands in when no reward subsystem is wired.
type LogRewardService struct {
	logger *slog.Logger
}

// NewLogRewardService creates a LogRewardService.
func NewLogRewardService(logger *slog.Logger) *LogRewardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogRewardService{logger: logger.With(slog.String("component", "reward_service"))}
}

var _ RewardService = (*LogRewardService)(nil)

func (s *LogRewardService) AwardXP(ctx context.Context, amount int, source string) (*XPAward, error) {
	s.logger.InfoContext(ctx, "awarding XP",
		slog.Int("amount", amount),
		slog.String("source", source))
	return &XPAward{XPAwarded: amount, Source: source}, nil
}

func (s *LogRewardService) AwardAttribute(ctx context.Context, category domain.SkillCategory, points int) error {
	s.logger.InfoContext(ctx, "awarding attribute points",
		slog.String("category", string(category)),
		slog.Int("points", points))
	return nil
}

func (s *LogRewardService) UpdateStreak(ctx context.Context) (*StreakResult, error) {
	s.logger.DebugContext(ctx, "updating streak")
	return &StreakResult{}, nil
}

func (s *LogRewardService) CheckAchievements(ctx context.Context, trigger string, value int) ([]Achievement, error) {
	s.logger.DebugContext(ctx, "checking achievements",
		slog.String("trigger", trigger),
		slog.Int("value", value))
	return nil, nil
}

// StaticProfileProvider returns a fixed level. Used until a profile
// subsystem is wired.
type StaticProfileProvider struct {
	Level int
}

var _ ProfileProvider = (*StaticProfileProvider)(nil)

func (p *StaticProfileProvider) CurrentLevel(context.Context) (int, error) {
	if p.Level < 1 {
		return 1, nil
	}
	return p.Level, nil
}
