package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/events"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

var testClock = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func inkdotTask(title string) *domain.DailyTask {
	task := domain.NewDailyTask("2026-03-10", domain.TaskKindInkdot, title, "Write a short piece about "+title+".")
	task.Category = domain.SkillScene
	task.Source = domain.TaskSourcePreset
	task.TimeLimit = 5
	task.WordLimitMin = 50
	task.WordLimitMax = 100
	task.XPReward = 10
	task.AttrReward = 1
	return task
}

func inklineTask(title string) *domain.DailyTask {
	task := domain.NewDailyTask("2026-03-10", domain.TaskKindInkline, title, "Write a longer piece about "+title+".")
	task.Category = domain.SkillConflict
	task.Source = domain.TaskSourcePreset
	task.TimeLimit = 20
	task.WordLimitMin = 200
	task.WordLimitMax = 400
	task.XPReward = 30
	task.AttrReward = 2
	return task
}

// capturingHandler records every event it receives.
type capturingHandler struct {
	events []*events.ProgressEvent
}

func (h *capturingHandler) HandleEvent(_ context.Context, event *events.ProgressEvent) error {
	h.events = append(h.events, event)
	return nil
}

func (h *capturingHandler) typesSeen() []events.ProgressEventType {
	out := make([]events.ProgressEventType, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

type taskHarness struct {
	svc     *TaskService
	tasks   *fakeTaskStore
	records *fakeRecordStore
	eval    *fakeEvaluator
	rewards *fakeRewards
	handler *capturingHandler
}

func newTaskHarness(t *testing.T, eval *fakeEvaluator, seeded ...*domain.DailyTask) *taskHarness {
	t.Helper()

	h := &taskHarness{
		tasks:   newFakeTaskStore(seeded...),
		records: &fakeRecordStore{},
		eval:    eval,
		rewards: &fakeRewards{},
		handler: &capturingHandler{},
	}

	emitter := events.NewInMemoryEmitter(nil)
	emitter.RegisterHandler(h.handler)

	var evaluator SubmissionEvaluator
	if eval != nil {
		evaluator = eval
	}
	h.svc = NewTaskService(nil, h.tasks, h.records, evaluator, h.rewards, emitter, nil,
		func() time.Time { return testClock })
	h.svc.runTx = passthroughTx
	return h
}

func TestTaskService_Start_CreatesDraftAndClaims(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, task.ID, record.TaskID)
	assert.Equal(t, domain.RecordStatusDraft, record.Status)
	assert.Equal(t, domain.TaskKindInkdot, record.Kind)
	assert.True(t, task.IsClaimed, "starting a task should claim it")
	assert.Len(t, h.records.records, 1)
}

func TestTaskService_Start_ResumesIncompleteRecord(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)

	first, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	_, err = h.svc.SaveDraft(context.Background(), first.ID, "The fog rolls in slow.", 90)
	require.NoError(t, err)

	second, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "incomplete record should be resumed")
	assert.Equal(t, "The fog rolls in slow.", second.Content)
	assert.Len(t, h.records.records, 1, "resuming must not create a second record")
}

func TestTaskService_Start_AfterCompletionCreatesNewRecord(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)
	ctx := context.Background()

	first, err := h.svc.Start(ctx, task.ID)
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, first.ID, "Grey water under grey light.", 120)
	require.NoError(t, err)

	second, err := h.svc.Start(ctx, task.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID, "completed record must not be reopened")
	assert.Equal(t, domain.RecordStatusDraft, second.Status)
	assert.Len(t, h.records.records, 2)
}

func TestTaskService_Start_UnknownTask(t *testing.T) {
	h := newTaskHarness(t, nil)

	_, err := h.svc.Start(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskService_SaveDraft_ComputesWordCount(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)
	ctx := context.Background()

	record, err := h.svc.Start(ctx, task.ID)
	require.NoError(t, err)

	count, err := h.svc.SaveDraft(ctx, record.ID, "fog, rope; tide", 45)
	require.NoError(t, err)

	assert.Equal(t, 11, count, "punctuation and whitespace do not count")
	assert.Equal(t, "fog, rope; tide", h.records.records[0].Content)
	assert.Equal(t, 45, h.records.records[0].TimeSpent)
}

func TestTaskService_SaveDraft_RejectsCompletedRecord(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)
	ctx := context.Background()

	record, err := h.svc.Start(ctx, task.ID)
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, record.ID, "Done and dusted.", 60)
	require.NoError(t, err)

	_, err = h.svc.SaveDraft(ctx, record.ID, "late edit", 10)
	assert.ErrorIs(t, err, ErrRecordCompleted)
}

func TestTaskService_Submit_UsesEvaluationScore(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	eval := &fakeEvaluator{eval: &domain.Evaluation{
		Score:   88,
		Overall: "Vivid and controlled.",
	}}
	h := newTaskHarness(t, eval, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	content := "The harbor holds its breath under the fog."
	result, err := h.svc.Submit(context.Background(), record.ID, content, 300)
	require.NoError(t, err)

	assert.Equal(t, 88, result.Score)
	assert.False(t, result.FallbackUsed)
	assert.NotEmpty(t, result.Feedback)
	assert.Equal(t, 10, result.XPEarned)
	assert.Equal(t, 1, result.AttrEarned)
	assert.Equal(t, 1, eval.calls)

	stored := h.records.records[0]
	assert.Equal(t, domain.RecordStatusCompleted, stored.Status)
	require.NotNil(t, stored.Score)
	assert.Equal(t, 88, *stored.Score)
	assert.Equal(t, 10, stored.XPEarned)
	assert.True(t, task.IsCompleted, "task must be flagged completed")
}

func TestTaskService_Submit_FallsBackWhenEvaluationFails(t *testing.T) {
	task := inklineTask("Night Market")
	eval := &fakeEvaluator{err: errEvalDown}
	h := newTaskHarness(t, eval, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	result, err := h.svc.Submit(context.Background(), record.ID, "Lanterns swing over the stalls.", 900)
	require.NoError(t, err, "a broken evaluator must not block submission")

	assert.Equal(t, fallbackScore, result.Score)
	assert.True(t, result.FallbackUsed)
	assert.Nil(t, result.Feedback)
	assert.Equal(t, domain.RecordStatusCompleted, h.records.records[0].Status)
	assert.True(t, task.IsCompleted)
}

func TestTaskService_Submit_NilEvaluatorFallsBack(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	result, err := h.svc.Submit(context.Background(), record.ID, "Quiet water.", 60)
	require.NoError(t, err)

	assert.Equal(t, fallbackScore, result.Score)
	assert.True(t, result.FallbackUsed)
}

func TestTaskService_Submit_RejectsCompletedRecord(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)
	ctx := context.Background()

	record, err := h.svc.Start(ctx, task.ID)
	require.NoError(t, err)
	_, err = h.svc.Submit(ctx, record.ID, "First pass.", 60)
	require.NoError(t, err)

	_, err = h.svc.Submit(ctx, record.ID, "Second pass.", 60)
	assert.ErrorIs(t, err, ErrRecordCompleted)
}

func TestTaskService_Submit_EmitsProgressEvents(t *testing.T) {
	task := inklineTask("Night Market")
	eval := &fakeEvaluator{eval: &domain.Evaluation{Score: 91}}
	h := newTaskHarness(t, eval, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	content := "Steam rises from the soup pots."
	_, err = h.svc.Submit(context.Background(), record.ID, content, 600)
	require.NoError(t, err)

	types := h.handler.typesSeen()
	assert.Equal(t, []events.ProgressEventType{
		events.EventTaskComplete,
		events.EventWordAdded,
		events.EventScoreReceived,
		events.EventInklineComplete,
	}, types)

	for _, event := range h.handler.events {
		switch event.Type {
		case events.EventWordAdded:
			assert.Equal(t, domain.WordCount(content), event.Value)
		case events.EventScoreReceived:
			assert.Equal(t, 91, event.Value)
		default:
			assert.Equal(t, 1, event.Value)
		}
		assert.Equal(t, task.ID, event.TaskID)
		assert.Equal(t, domain.TaskKindInkline, event.Kind)
	}
}

func TestTaskService_Submit_AwardsRewards(t *testing.T) {
	task := inklineTask("Night Market")
	h := newTaskHarness(t, nil, task)

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)
	_, err = h.svc.Submit(context.Background(), record.ID, "Crowds thin as the rain starts.", 600)
	require.NoError(t, err)

	assert.Equal(t, []int{30}, h.rewards.xp)
	assert.Equal(t, []string{"task:inkline"}, h.rewards.xpSources)
	assert.Equal(t, []int{2}, h.rewards.attrs)
	assert.Equal(t, 1, h.rewards.streaks)
	assert.Equal(t, []string{
		TriggerTaskComplete,
		TriggerAttrUpdate,
		TriggerWordsUpdate,
	}, h.rewards.triggers, "a fallback score below the bar skips the score trigger")
}

func TestTaskService_Submit_ReturnsRewardOutcomes(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	eval := &fakeEvaluator{eval: &domain.Evaluation{Score: 92}}
	h := newTaskHarness(t, eval, task)
	h.rewards.unlocks = map[string][]Achievement{
		TriggerTaskComplete:  {{Code: "first_ink", Title: "First Ink"}},
		TriggerScoreReceived: {{Code: "sharp_pen", Title: "Sharp Pen"}},
	}

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)
	result, err := h.svc.Submit(context.Background(), record.ID, "The tide turns without a sound.", 240)
	require.NoError(t, err)

	require.NotNil(t, result.XPResult)
	assert.Equal(t, 10, result.XPResult.XPAwarded)
	assert.Equal(t, "task:inkdot", result.XPResult.Source)
	require.NotNil(t, result.Streak)
	assert.True(t, result.Streak.Extended)
	assert.Equal(t, []Achievement{
		{Code: "first_ink", Title: "First Ink"},
		{Code: "sharp_pen", Title: "Sharp Pen"},
	}, result.NewAchievements)
	assert.Contains(t, h.rewards.triggers, TriggerScoreReceived,
		"a score at or above the bar runs the score check")
}

func TestTaskService_Submit_RewardFailureIsNonFatal(t *testing.T) {
	task := inkdotTask("Harbor Fog")
	h := newTaskHarness(t, nil, task)
	h.rewards.err = errEvalDown

	record, err := h.svc.Start(context.Background(), task.ID)
	require.NoError(t, err)

	result, err := h.svc.Submit(context.Background(), record.ID, "Still water.", 60)
	require.NoError(t, err, "reward failures must not fail the submission")
	assert.Equal(t, domain.RecordStatusCompleted, result.Record.Status)
}

func TestTaskService_GetTodayTasks_DecoratesWithRecords(t *testing.T) {
	started := inkdotTask("Harbor Fog")
	untouched := inkdotTask("Old Maps")
	h := newTaskHarness(t, nil, started, untouched)
	ctx := context.Background()

	record, err := h.svc.Start(ctx, started.ID)
	require.NoError(t, err)

	views, err := h.svc.GetTodayTasks(ctx, domain.TaskKindInkdot)
	require.NoError(t, err)
	require.Len(t, views, 2)

	byID := map[uuid.UUID]*TaskView{}
	for _, v := range views {
		byID[v.Task.ID] = v
	}

	startedView := byID[started.ID]
	require.NotNil(t, startedView)
	assert.True(t, startedView.HasStarted)
	require.NotNil(t, startedView.RecordID)
	assert.Equal(t, record.ID, *startedView.RecordID)
	assert.Equal(t, string(domain.RecordStatusDraft), startedView.Status)

	untouchedView := byID[untouched.ID]
	require.NotNil(t, untouchedView)
	assert.False(t, untouchedView.HasStarted)
	assert.Nil(t, untouchedView.RecordID)
}
