package generation

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// mockTextGenerator returns canned responses and records every call.
type mockTextGenerator struct {
	response string
	err      error

	calls    int
	features []Feature
	prompts  []string
	opts     []Options
}

func (m *mockTextGenerator) Generate(_ context.Context, feature Feature, messages []Message, opts Options) (string, error) {
	m.calls++
	m.features = append(m.features, feature)
	if len(messages) > 0 {
		m.prompts = append(m.prompts, messages[len(messages)-1].Content)
	}
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

// fakeTemplateStore serves templates from a slice, filtered by kind in
// insertion order, and records use-count bumps.
type fakeTemplateStore struct {
	templates []*domain.TaskTemplate
	bumped    []uuid.UUID
	err       error
}

func (f *fakeTemplateStore) RandomActive(_ context.Context, kind domain.TaskKind, limit int) ([]*domain.TaskTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.TaskTemplate
	for _, t := range f.templates {
		if t.Kind == kind && t.IsActive {
			out = append(out, t)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeTemplateStore) IncrementUseCounts(_ context.Context, ids []uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	f.bumped = append(f.bumped, ids...)
	return nil
}

func (f *fakeTemplateStore) WithTx(_ *sql.Tx) store.TemplateStore { return f }

// fakeDailyTaskStore keeps tasks in memory and answers the aggregate
// queries the policy engine runs.
type fakeDailyTaskStore struct {
	tasks []*domain.DailyTask
	err   error
}

func (f *fakeDailyTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.DailyTask, error) {
	for _, t := range f.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeDailyTaskStore) ListByDate(_ context.Context, date string, kind domain.TaskKind) ([]*domain.DailyTask, error) {
	var out []*domain.DailyTask
	for _, t := range f.tasks {
		if t.TaskDate == date && (kind == "" || t.Kind == kind) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeDailyTaskStore) CountByDate(_ context.Context, date string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	n := 0
	for _, t := range f.tasks {
		if t.TaskDate == date {
			n++
		}
	}
	return n, nil
}

func (f *fakeDailyTaskStore) CountByDateAndSource(_ context.Context, date string, source domain.TaskSource) (int, error) {
	n := 0
	for _, t := range f.tasks {
		if t.TaskDate == date && t.Source == source {
			n++
		}
	}
	return n, nil
}

func (f *fakeDailyTaskStore) CategoryCounts(_ context.Context, date string) (map[domain.SkillCategory]int, error) {
	counts := map[domain.SkillCategory]int{}
	for _, t := range f.tasks {
		if t.TaskDate == date {
			counts[t.Category]++
		}
	}
	return counts, nil
}

func (f *fakeDailyTaskStore) KindCounts(_ context.Context, date string) (map[domain.TaskKind]int, error) {
	counts := map[domain.TaskKind]int{}
	for _, t := range f.tasks {
		if t.TaskDate == date {
			counts[t.Kind]++
		}
	}
	return counts, nil
}

func (f *fakeDailyTaskStore) RecentFingerprints(_ context.Context, sinceDate string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for _, t := range f.tasks {
		if t.TaskDate >= sinceDate {
			out[t.Fingerprint] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeDailyTaskStore) NextSortOrder(_ context.Context, date string) (int, error) {
	next := 0
	for _, t := range f.tasks {
		if t.TaskDate == date && t.SortOrder+1 > next {
			next = t.SortOrder + 1
		}
	}
	return next, nil
}

func (f *fakeDailyTaskStore) LatestCreatedAt(_ context.Context, date string) (*time.Time, error) {
	var latest *time.Time
	for _, t := range f.tasks {
		if t.TaskDate != date {
			continue
		}
		created := t.CreatedAt
		if latest == nil || created.After(*latest) {
			latest = &created
		}
	}
	return latest, nil
}

func (f *fakeDailyTaskStore) CreateMultiple(_ context.Context, tasks []*domain.DailyTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, tasks...)
	return nil
}

func (f *fakeDailyTaskStore) MarkClaimed(_ context.Context, id uuid.UUID) error {
	for _, t := range f.tasks {
		if t.ID == id {
			t.IsClaimed = true
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (f *fakeDailyTaskStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	for _, t := range f.tasks {
		if t.ID == id {
			t.IsCompleted = true
			return nil
		}
	}
	return store.ErrTaskNotFound
}

func (f *fakeDailyTaskStore) SourceKindCounts(_ context.Context, date string) ([]store.SourceKindCount, error) {
	buckets := map[[2]string]int{}
	for _, t := range f.tasks {
		if t.TaskDate == date {
			buckets[[2]string{string(t.Source), string(t.Kind)}]++
		}
	}
	var out []store.SourceKindCount
	for key, n := range buckets {
		out = append(out, store.SourceKindCount{
			Source: domain.TaskSource(key[0]),
			Kind:   domain.TaskKind(key[1]),
			Count:  n,
		})
	}
	return out, nil
}

func (f *fakeDailyTaskStore) LastCreatedBySource(_ context.Context, source domain.TaskSource) (*time.Time, error) {
	var latest *time.Time
	for _, t := range f.tasks {
		if t.Source != source {
			continue
		}
		created := t.CreatedAt
		if latest == nil || created.After(*latest) {
			latest = &created
		}
	}
	return latest, nil
}

func (f *fakeDailyTaskStore) DeleteExpired(_ context.Context, cutoffDate string) (int64, error) {
	var kept []*domain.DailyTask
	var removed int64
	for _, t := range f.tasks {
		if t.TaskDate < cutoffDate {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	f.tasks = kept
	return removed, nil
}

func (f *fakeDailyTaskStore) WithTx(_ *sql.Tx) store.DailyTaskStore { return f }

// fakeProviderStore toggles the AI availability gate.
type fakeProviderStore struct {
	active bool
	err    error
}

func (f *fakeProviderStore) HasActiveProvider(_ context.Context) (bool, error) {
	return f.active, f.err
}
