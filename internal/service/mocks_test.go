package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// passthroughTx substitutes store.RunInTransaction in tests; the fakes
// ignore the nil transaction.
func passthroughTx(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
	return fn(ctx, nil)
}

// fakeTaskStore holds daily tasks in memory.
type fakeTaskStore struct {
	tasks map[uuid.UUID]*domain.DailyTask
}

func newFakeTaskStore(tasks ...*domain.DailyTask) *fakeTaskStore {
	f := &fakeTaskStore{tasks: map[uuid.UUID]*domain.DailyTask{}}
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return f
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.DailyTask, error) {
	if t, ok := f.tasks[id]; ok {
		return t, nil
	}
	return nil, store.ErrTaskNotFound
}

func (f *fakeTaskStore) ListByDate(_ context.Context, date string, kind domain.TaskKind) ([]*domain.DailyTask, error) {
	var out []*domain.DailyTask
	for _, t := range f.tasks {
		if t.TaskDate == date && (kind == "" || t.Kind == kind) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) CountByDate(context.Context, string) (int, error) { return len(f.tasks), nil }

func (f *fakeTaskStore) CountByDateAndSource(context.Context, string, domain.TaskSource) (int, error) {
	return 0, nil
}

func (f *fakeTaskStore) CategoryCounts(context.Context, string) (map[domain.SkillCategory]int, error) {
	return nil, nil
}

func (f *fakeTaskStore) KindCounts(context.Context, string) (map[domain.TaskKind]int, error) {
	return nil, nil
}

func (f *fakeTaskStore) RecentFingerprints(context.Context, string) (map[string]struct{}, error) {
	return nil, nil
}

func (f *fakeTaskStore) NextSortOrder(context.Context, string) (int, error) { return 0, nil }

func (f *fakeTaskStore) LatestCreatedAt(context.Context, string) (*time.Time, error) {
	return nil, nil
}

func (f *fakeTaskStore) CreateMultiple(_ context.Context, tasks []*domain.DailyTask) error {
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return nil
}

func (f *fakeTaskStore) MarkClaimed(_ context.Context, id uuid.UUID) error {
	t, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.IsClaimed = true
	return nil
}

func (f *fakeTaskStore) MarkCompleted(_ context.Context, id uuid.UUID) error {
	t, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.IsCompleted = true
	return nil
}

func (f *fakeTaskStore) SourceKindCounts(context.Context, string) ([]store.SourceKindCount, error) {
	return nil, nil
}

func (f *fakeTaskStore) LastCreatedBySource(context.Context, domain.TaskSource) (*time.Time, error) {
	return nil, nil
}

func (f *fakeTaskStore) DeleteExpired(context.Context, string) (int64, error) { return 0, nil }

func (f *fakeTaskStore) WithTx(*sql.Tx) store.DailyTaskStore { return f }

// fakeRecordStore holds attempt records in memory, ordered by insertion.
type fakeRecordStore struct {
	records []*domain.TaskRecord
}

func (f *fakeRecordStore) find(id uuid.UUID) *domain.TaskRecord {
	for _, r := range f.records {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeRecordStore) Create(_ context.Context, record *domain.TaskRecord) error {
	f.records = append(f.records, record)
	return nil
}

func (f *fakeRecordStore) GetByID(_ context.Context, id uuid.UUID) (*domain.TaskRecord, error) {
	if r := f.find(id); r != nil {
		return r, nil
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeRecordStore) LatestByTask(_ context.Context, taskID uuid.UUID) (*domain.TaskRecord, error) {
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].TaskID == taskID {
			return f.records[i], nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeRecordStore) SaveDraft(_ context.Context, id uuid.UUID, content string, wordCount, timeSpent int) error {
	r := f.find(id)
	if r == nil {
		return store.ErrRecordNotFound
	}
	r.Content = content
	r.WordCount = wordCount
	r.TimeSpent = timeSpent
	return nil
}

func (f *fakeRecordStore) MarkSubmitted(_ context.Context, id uuid.UUID, content string, wordCount, timeSpent int, submittedAt time.Time) error {
	r := f.find(id)
	if r == nil {
		return store.ErrRecordNotFound
	}
	r.Status = domain.RecordStatusSubmitted
	r.Content = content
	r.WordCount = wordCount
	r.TimeSpent = timeSpent
	r.SubmittedAt = &submittedAt
	return nil
}

func (f *fakeRecordStore) Complete(_ context.Context, id uuid.UUID, score int, feedback json.RawMessage) error {
	r := f.find(id)
	if r == nil {
		return store.ErrRecordNotFound
	}
	r.Status = domain.RecordStatusCompleted
	r.Score = &score
	r.AIFeedback = feedback
	return nil
}

func (f *fakeRecordStore) SetReward(_ context.Context, id uuid.UUID, xpEarned, attrEarned int, category domain.SkillCategory) error {
	r := f.find(id)
	if r == nil {
		return store.ErrRecordNotFound
	}
	r.XPEarned = xpEarned
	r.AttrEarned = attrEarned
	r.Category = category
	return nil
}

func (f *fakeRecordStore) StatsByKindSince(context.Context, string) ([]store.KindStats, error) {
	return nil, nil
}

func (f *fakeRecordStore) StatsByCategory(context.Context) ([]store.CategoryStats, error) {
	return nil, nil
}

func (f *fakeRecordStore) DeleteStaleIncomplete(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeRecordStore) WithTx(*sql.Tx) store.RecordStore { return f }

// fakeChallengeStore holds challenges and weekly submissions in memory.
type fakeChallengeStore struct {
	daily       map[string]*domain.DailyChallenge
	weekly      map[string]*domain.WeeklyChallenge
	submissions []*domain.WeeklySubmission
}

func newFakeChallengeStore() *fakeChallengeStore {
	return &fakeChallengeStore{
		daily:  map[string]*domain.DailyChallenge{},
		weekly: map[string]*domain.WeeklyChallenge{},
	}
}

func (f *fakeChallengeStore) GetDailyByDate(_ context.Context, date string) (*domain.DailyChallenge, error) {
	if c, ok := f.daily[date]; ok {
		return c, nil
	}
	return nil, store.ErrChallengeNotFound
}

func (f *fakeChallengeStore) GetActiveDaily(_ context.Context, date string) (*domain.DailyChallenge, error) {
	c, ok := f.daily[date]
	if !ok || c.IsCompleted {
		return nil, store.ErrChallengeNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeChallengeStore) CreateDaily(_ context.Context, challenge *domain.DailyChallenge) error {
	if _, ok := f.daily[challenge.ChallengeDate]; ok {
		return store.ErrDuplicate
	}
	f.daily[challenge.ChallengeDate] = challenge
	return nil
}

func (f *fakeChallengeStore) UpdateDailyProgress(_ context.Context, id uuid.UUID, currentValue int, isCompleted bool, completedAt *time.Time) error {
	for _, c := range f.daily {
		if c.ID == id {
			c.CurrentValue = currentValue
			c.IsCompleted = isCompleted
			c.CompletedAt = completedAt
			return nil
		}
	}
	return store.ErrChallengeNotFound
}

func (f *fakeChallengeStore) GetWeeklyByStart(_ context.Context, weekStart string) (*domain.WeeklyChallenge, error) {
	if c, ok := f.weekly[weekStart]; ok {
		return c, nil
	}
	return nil, store.ErrChallengeNotFound
}

func (f *fakeChallengeStore) CreateWeekly(_ context.Context, challenge *domain.WeeklyChallenge) error {
	if _, ok := f.weekly[challenge.WeekStart]; ok {
		return store.ErrDuplicate
	}
	f.weekly[challenge.WeekStart] = challenge
	return nil
}

func (f *fakeChallengeStore) LatestWeeklySubmission(_ context.Context, challengeID uuid.UUID) (*domain.WeeklySubmission, error) {
	for i := len(f.submissions) - 1; i >= 0; i-- {
		if f.submissions[i].ChallengeID == challengeID {
			return f.submissions[i], nil
		}
	}
	return nil, store.ErrRecordNotFound
}

func (f *fakeChallengeStore) CreateWeeklySubmission(_ context.Context, submission *domain.WeeklySubmission) error {
	f.submissions = append(f.submissions, submission)
	return nil
}

func (f *fakeChallengeStore) CompleteWeeklySubmission(_ context.Context, id uuid.UUID, score int, feedback []byte) error {
	for _, s := range f.submissions {
		if s.ID == id {
			s.Status = domain.RecordStatusCompleted
			s.Score = &score
			s.AIFeedback = feedback
			return nil
		}
	}
	return store.ErrRecordNotFound
}

func (f *fakeChallengeStore) WithTx(*sql.Tx) store.ChallengeStore { return f }

// fakeTemplateStore serves templates filtered by kind.
type fakeTemplateStore struct {
	templates []*domain.TaskTemplate
}

func (f *fakeTemplateStore) RandomActive(_ context.Context, kind domain.TaskKind, limit int) ([]*domain.TaskTemplate, error) {
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

func (f *fakeTemplateStore) IncrementUseCounts(context.Context, []uuid.UUID) error { return nil }

func (f *fakeTemplateStore) WithTx(*sql.Tx) store.TemplateStore { return f }

// fakeEvaluator returns a canned evaluation or error.
type fakeEvaluator struct {
	eval  *domain.Evaluation
	err   error
	calls int
}

func (f *fakeEvaluator) EvaluateSubmission(context.Context, *domain.DailyTask, string, int) (*domain.Evaluation, error) {
	f.calls++
	return f.eval, f.err
}

func (f *fakeEvaluator) EvaluateWeekly(context.Context, *domain.WeeklyChallenge, string, int) (*domain.Evaluation, error) {
	f.calls++
	return f.eval, f.err
}

// fakeRewards records reward calls and serves canned unlocks per trigger.
type fakeRewards struct {
	xp        []int
	xpSources []string
	attrs     []int
	streaks   int
	triggers  []string
	unlocks   map[string][]Achievement
	err       error
}

func (f *fakeRewards) AwardXP(_ context.Context, amount int, source string) (*XPAward, error) {
	f.xp = append(f.xp, amount)
	f.xpSources = append(f.xpSources, source)
	if f.err != nil {
		return nil, f.err
	}
	return &XPAward{XPAwarded: amount, Source: source}, nil
}

func (f *fakeRewards) AwardAttribute(_ context.Context, _ domain.SkillCategory, points int) error {
	f.attrs = append(f.attrs, points)
	return f.err
}

func (f *fakeRewards) UpdateStreak(context.Context) (*StreakResult, error) {
	f.streaks++
	if f.err != nil {
		return nil, f.err
	}
	return &StreakResult{CurrentStreak: 3, LongestStreak: 5, Extended: true}, nil
}

func (f *fakeRewards) CheckAchievements(_ context.Context, trigger string, _ int) ([]Achievement, error) {
	f.triggers = append(f.triggers, trigger)
	if f.err != nil {
		return nil, f.err
	}
	return f.unlocks[trigger], nil
}

var errEvalDown = errors.New("evaluator unavailable")
