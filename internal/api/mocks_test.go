package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"github.com/inkgrove/inkgrove-api/internal/scheduler"
	"github.com/inkgrove/inkgrove-api/internal/service"
)

// mockTaskManager implements TaskManager with canned results.
type mockTaskManager struct {
	views      []*service.TaskView
	record     *domain.TaskRecord
	wordCount  int
	submit     *service.SubmitResult
	stats      *service.TaskStats
	err        error
	lastKind   domain.TaskKind
	lastTaskID uuid.UUID
	lastBody   string
}

func (m *mockTaskManager) GetTodayTasks(_ context.Context, kind domain.TaskKind) ([]*service.TaskView, error) {
	m.lastKind = kind
	return m.views, m.err
}

func (m *mockTaskManager) Start(_ context.Context, taskID uuid.UUID) (*domain.TaskRecord, error) {
	m.lastTaskID = taskID
	return m.record, m.err
}

func (m *mockTaskManager) SaveDraft(_ context.Context, recordID uuid.UUID, content string, _ int) (int, error) {
	m.lastTaskID = recordID
	m.lastBody = content
	return m.wordCount, m.err
}

func (m *mockTaskManager) Submit(_ context.Context, recordID uuid.UUID, content string, _ int) (*service.SubmitResult, error) {
	m.lastTaskID = recordID
	m.lastBody = content
	return m.submit, m.err
}

func (m *mockTaskManager) GetTaskStats(context.Context) (*service.TaskStats, error) {
	return m.stats, m.err
}

// mockChallengeManager implements ChallengeManager with canned results.
type mockChallengeManager struct {
	daily    *domain.DailyChallenge
	weekly   *service.WeeklyView
	submit   *service.WeeklySubmitResult
	err      error
	lastBody string
}

func (m *mockChallengeManager) EnsureDaily(context.Context) (*domain.DailyChallenge, error) {
	return m.daily, m.err
}

func (m *mockChallengeManager) GetWeekly(context.Context) (*service.WeeklyView, error) {
	return m.weekly, m.err
}

func (m *mockChallengeManager) SubmitWeekly(_ context.Context, content string) (*service.WeeklySubmitResult, error) {
	m.lastBody = content
	return m.submit, m.err
}

// mockSchedulerControl implements SchedulerControl with canned results.
type mockSchedulerControl struct {
	report   *generation.TickReport
	status   *scheduler.Status
	err      error
	calls    int
	lastOpts scheduler.GenerateOptions
}

func (m *mockSchedulerControl) ManualGenerate(_ context.Context, opts scheduler.GenerateOptions) (*generation.TickReport, error) {
	m.calls++
	m.lastOpts = opts
	return m.report, m.err
}

func (m *mockSchedulerControl) Status(context.Context) (*scheduler.Status, error) {
	return m.status, m.err
}
