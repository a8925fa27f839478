package service

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/events"
)

type challengeHarness struct {
	svc        *ChallengeService
	challenges *fakeChallengeStore
	templates  *fakeTemplateStore
	rewards    *fakeRewards
	eval       *fakeEvaluator
}

func newChallengeHarness(t *testing.T, profile ProfileProvider, eval *fakeEvaluator) *challengeHarness {
	t.Helper()

	h := &challengeHarness{
		challenges: newFakeChallengeStore(),
		templates:  &fakeTemplateStore{},
		rewards:    &fakeRewards{},
		eval:       eval,
	}

	var evaluator WeeklyEvaluator
	if eval != nil {
		evaluator = eval
	}
	h.svc = NewChallengeService(nil, h.challenges, h.templates, profile, h.rewards, evaluator,
		rand.New(rand.NewSource(7)), nil, func() time.Time { return testClock })
	return h
}

func (h *challengeHarness) seedDaily(challengeType domain.ChallengeType, target, xp int) *domain.DailyChallenge {
	challenge := &domain.DailyChallenge{
		ID:            uuid.New(),
		ChallengeDate: testClock.Format("2006-01-02"),
		Type:          challengeType,
		Title:         "Seeded",
		Description:   "seeded challenge",
		TargetValue:   target,
		XPReward:      xp,
		CreatedAt:     testClock,
	}
	h.challenges.daily[challenge.ChallengeDate] = challenge
	return challenge
}

func inkchapterTemplate() *domain.TaskTemplate {
	return &domain.TaskTemplate{
		ID:           uuid.New(),
		Code:         "chapter-river",
		Kind:         domain.TaskKindInkchapter,
		Title:        "The River Chapter",
		Description:  "Write a chapter set on a river journey.",
		Requirements: "At least two scenes; one reversal.",
		Category:     domain.SkillScene,
		TimeLimit:    120,
		WordLimitMin: 1500,
		WordLimitMax: 3000,
		XPReward:     200,
		AttrReward:   5,
		Difficulty:   domain.DifficultyNormal,
		IsActive:     true,
	}
}

func TestChallengeService_EnsureDaily_CreatesAndReturnsExisting(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	ctx := context.Background()

	created, err := h.svc.EnsureDaily(ctx)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "2026-03-10", created.ChallengeDate)
	assert.True(t, created.Type.IsValid())
	assert.Positive(t, created.TargetValue)
	assert.Positive(t, created.XPReward)
	assert.NotEmpty(t, created.Title)
	assert.NotContains(t, created.Description, "%d", "the target is rendered into the description")

	again, err := h.svc.EnsureDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID, "a second call must not replace the day's challenge")
	assert.Len(t, h.challenges.daily, 1)
}

func TestChallengeService_ScaledTarget(t *testing.T) {
	tests := []struct {
		name    string
		profile ProfileProvider
		base    int
		want    int
	}{
		{"nil profile uses base", nil, 500, 500},
		{"level 1 keeps base", &StaticProfileProvider{Level: 1}, 500, 500},
		{"level 5 scales by 1.4", &StaticProfileProvider{Level: 5}, 500, 700},
		{"small targets round up", &StaticProfileProvider{Level: 3}, 3, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newChallengeHarness(t, tt.profile, nil)
			assert.Equal(t, tt.want, h.svc.scaledTarget(context.Background(), tt.base))
		})
	}
}

func TestChallengeService_HandleEvent_AccumulatesWordCount(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	challenge := h.seedDaily(domain.ChallengeWordCount, 500, 50)
	ctx := context.Background()

	err := h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventWordAdded, uuid.New(), domain.TaskKindInkdot, 300))
	require.NoError(t, err)
	assert.Equal(t, 300, challenge.CurrentValue)
	assert.False(t, challenge.IsCompleted)
	assert.Empty(t, h.rewards.xp, "no reward before the target is crossed")

	err = h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventWordAdded, uuid.New(), domain.TaskKindInkline, 300))
	require.NoError(t, err)
	assert.Equal(t, 600, challenge.CurrentValue)
	assert.True(t, challenge.IsCompleted)
	require.NotNil(t, challenge.CompletedAt)
	assert.Equal(t, []int{50}, h.rewards.xp)
	assert.Equal(t, []string{"daily_challenge"}, h.rewards.xpSources)
}

func TestChallengeService_HandleEvent_RewardsOnlyOnce(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	challenge := h.seedDaily(domain.ChallengeWordCount, 500, 50)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		err := h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventWordAdded, uuid.New(), domain.TaskKindInkdot, 600))
		require.NoError(t, err)
	}

	assert.True(t, challenge.IsCompleted)
	assert.Equal(t, 600, challenge.CurrentValue, "completed challenges stop accumulating")
	assert.Len(t, h.rewards.xp, 1, "the reward is granted exactly once")
}

func TestChallengeService_HandleEvent_ScoreAboveThreshold(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	challenge := h.seedDaily(domain.ChallengeScoreAbove, 1, 70)
	ctx := context.Background()

	err := h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventScoreReceived, uuid.New(), domain.TaskKindInkdot, 75))
	require.NoError(t, err)
	assert.Equal(t, 0, challenge.CurrentValue, "a 75 does not clear the bar")

	err = h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventScoreReceived, uuid.New(), domain.TaskKindInkdot, 85))
	require.NoError(t, err)
	assert.True(t, challenge.IsCompleted)
	assert.Equal(t, []int{70}, h.rewards.xp)
	assert.Equal(t, []string{TriggerDailyChallenge}, h.rewards.triggers,
		"completion runs the challenge achievement check")
}

func TestChallengeService_HandleEvent_ScoreAboveSetsProgressOnce(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	// A scaled target above 1: qualifying scores must not stack up to it.
	challenge := h.seedDaily(domain.ChallengeScoreAbove, 2, 70)
	ctx := context.Background()

	err := h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventScoreReceived, uuid.New(), domain.TaskKindInkdot, 90))
	require.NoError(t, err)
	assert.Equal(t, 1, challenge.CurrentValue)

	err = h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventScoreReceived, uuid.New(), domain.TaskKindInkline, 95))
	require.NoError(t, err)
	assert.Equal(t, 1, challenge.CurrentValue, "a second qualifying score does not accumulate")
	assert.False(t, challenge.IsCompleted)
	assert.Empty(t, h.rewards.xp)
}

func TestChallengeService_HandleEvent_IgnoresUnrelatedEvents(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	challenge := h.seedDaily(domain.ChallengeTaskCount, 3, 50)
	ctx := context.Background()

	err := h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventWordAdded, uuid.New(), domain.TaskKindInkdot, 400))
	require.NoError(t, err)
	assert.Equal(t, 0, challenge.CurrentValue)

	err = h.svc.HandleEvent(ctx, events.NewProgressEvent(events.EventTaskComplete, uuid.New(), domain.TaskKindInkdot, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, challenge.CurrentValue)
}

func TestChallengeService_HandleEvent_NoActiveChallengeIsNoop(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)

	err := h.svc.HandleEvent(context.Background(),
		events.NewProgressEvent(events.EventTaskComplete, uuid.New(), domain.TaskKindInkdot, 1))
	assert.NoError(t, err)
	assert.Empty(t, h.rewards.xp)
}

func TestChallengeService_ProgressDelta(t *testing.T) {
	taskID := uuid.New()
	tests := []struct {
		name          string
		challengeType domain.ChallengeType
		event         *events.ProgressEvent
		want          int
	}{
		{"task count counts completions", domain.ChallengeTaskCount,
			events.NewProgressEvent(events.EventTaskComplete, taskID, domain.TaskKindInkdot, 1), 1},
		{"word count carries the magnitude", domain.ChallengeWordCount,
			events.NewProgressEvent(events.EventWordAdded, taskID, domain.TaskKindInkdot, 234), 234},
		{"inkline counts inkline completions", domain.ChallengeInklineComplete,
			events.NewProgressEvent(events.EventInklineComplete, taskID, domain.TaskKindInkline, 1), 1},
		{"inkline ignores inkdots", domain.ChallengeInklineComplete,
			events.NewProgressEvent(events.EventInkdotComplete, taskID, domain.TaskKindInkdot, 1), 0},
		{"score above ignores sub-threshold", domain.ChallengeScoreAbove,
			events.NewProgressEvent(events.EventScoreReceived, taskID, domain.TaskKindInkdot, 79), 0},
		{"score above counts at threshold", domain.ChallengeScoreAbove,
			events.NewProgressEvent(events.EventScoreReceived, taskID, domain.TaskKindInkdot, 80), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progressDelta(tt.challengeType, tt.event))
		})
	}
}

func TestChallengeService_GetWeekly_CreatesFromTemplate(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	tmpl := inkchapterTemplate()
	h.templates.templates = []*domain.TaskTemplate{tmpl}

	view, err := h.svc.GetWeekly(context.Background())
	require.NoError(t, err)
	require.NotNil(t, view.Challenge)
	assert.Nil(t, view.Submission)

	challenge := view.Challenge
	assert.Equal(t, "2026-03-09", challenge.WeekStart, "week starts on Monday")
	assert.Equal(t, "2026-03-15", challenge.WeekEnd)
	assert.Equal(t, tmpl.Title, challenge.Title)
	assert.Equal(t, string(tmpl.Category), challenge.Theme)
	assert.Equal(t, tmpl.Requirements, challenge.Requirements)
	assert.Equal(t, tmpl.WordLimitMin, challenge.WordLimitMin)
	assert.Equal(t, tmpl.WordLimitMax, challenge.WordLimitMax)
	assert.Equal(t, tmpl.XPReward, challenge.XPReward)
	assert.True(t, challenge.IsActive)

	again, err := h.svc.GetWeekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, challenge.ID, again.Challenge.ID, "the week's challenge is created once")
}

func TestChallengeService_GetWeekly_NoTemplate(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)

	_, err := h.svc.GetWeekly(context.Background())
	assert.ErrorIs(t, err, ErrNoTemplateAvailable)
}

func TestChallengeService_SubmitWeekly_CompletesWithEvaluation(t *testing.T) {
	eval := &fakeEvaluator{eval: &domain.Evaluation{Score: 92, Overall: "Strong chapter."}}
	h := newChallengeHarness(t, nil, eval)
	h.templates.templates = []*domain.TaskTemplate{inkchapterTemplate()}

	result, err := h.svc.SubmitWeekly(context.Background(), "The river narrowed as the cliffs closed in.")
	require.NoError(t, err)

	assert.Equal(t, 92, result.Score)
	assert.False(t, result.FallbackUsed)
	assert.Equal(t, domain.RecordStatusCompleted, result.Submission.Status)
	require.NotNil(t, result.Submission.Score)
	assert.Equal(t, 92, *result.Submission.Score)
	assert.NotEmpty(t, result.Submission.AIFeedback)
	assert.Equal(t, []int{200}, h.rewards.xp)
	assert.Equal(t, []string{"weekly_challenge"}, h.rewards.xpSources)
}

func TestChallengeService_SubmitWeekly_RejectsSecondSubmission(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	h.templates.templates = []*domain.TaskTemplate{inkchapterTemplate()}
	ctx := context.Background()

	_, err := h.svc.SubmitWeekly(ctx, "First draft of the chapter.")
	require.NoError(t, err)

	_, err = h.svc.SubmitWeekly(ctx, "Second draft of the chapter.")
	assert.ErrorIs(t, err, ErrSubmissionExists)
	assert.Len(t, h.challenges.submissions, 1)
	assert.Len(t, h.rewards.xp, 1)
}

func TestChallengeService_SubmitWeekly_FallsBackWhenEvaluationFails(t *testing.T) {
	eval := &fakeEvaluator{err: errEvalDown}
	h := newChallengeHarness(t, nil, eval)
	h.templates.templates = []*domain.TaskTemplate{inkchapterTemplate()}

	result, err := h.svc.SubmitWeekly(context.Background(), "The river carried them past the last village.")
	require.NoError(t, err)

	assert.Equal(t, fallbackScore, result.Score)
	assert.True(t, result.FallbackUsed)
	assert.Nil(t, result.Submission.AIFeedback)
	assert.Equal(t, domain.RecordStatusCompleted, result.Submission.Status)
}

func TestChallengeService_GetWeekly_ReturnsSubmission(t *testing.T) {
	h := newChallengeHarness(t, nil, nil)
	h.templates.templates = []*domain.TaskTemplate{inkchapterTemplate()}
	ctx := context.Background()

	_, err := h.svc.SubmitWeekly(ctx, "A finished chapter.")
	require.NoError(t, err)

	view, err := h.svc.GetWeekly(ctx)
	require.NoError(t, err)
	require.NotNil(t, view.Submission)
	assert.Equal(t, domain.RecordStatusCompleted, view.Submission.Status)
}
