//go:build integration

package postgres_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/platform/postgres"
	"github.com/inkgrove/inkgrove-api/internal/store"
	"github.com/inkgrove/inkgrove-api/internal/testdb"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedTask(date string, kind domain.TaskKind, title string) *domain.DailyTask {
	task := domain.NewDailyTask(date, kind, title, "Write it in three sentences.")
	task.Category = domain.SkillScene
	task.Source = domain.TaskSourcePreset
	task.TimeLimit = 5
	task.WordLimitMin = 50
	task.WordLimitMax = 100
	task.XPReward = 10
	task.AttrReward = 1
	return task
}

func TestDailyTaskStoreRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
	defer cancel()

	tasks := postgres.NewPostgresDailyTaskStore(db, discardLogger())

	first := seedTask("2026-03-10", domain.TaskKindInkdot, "Rust on the Railing")
	second := seedTask("2026-03-10", domain.TaskKindInkline, "The Borrowed Coat")
	second.SortOrder = 1
	require.NoError(t, tasks.CreateMultiple(ctx, []*domain.DailyTask{first, second}))

	got, err := tasks.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, got.Title)
	assert.Equal(t, first.Fingerprint, got.Fingerprint)
	assert.Equal(t, "2026-03-10", got.TaskDate)
	assert.False(t, got.IsClaimed)

	listed, err := tasks.ListByDate(ctx, "2026-03-10", "")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID, "tasks come back in sort order")

	inklines, err := tasks.ListByDate(ctx, "2026-03-10", domain.TaskKindInkline)
	require.NoError(t, err)
	require.Len(t, inklines, 1)
	assert.Equal(t, second.ID, inklines[0].ID)

	count, err := tasks.CountByDate(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	next, err := tasks.NextSortOrder(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2, next)

	prints, err := tasks.RecentFingerprints(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Contains(t, prints, first.Fingerprint)

	require.NoError(t, tasks.MarkClaimed(ctx, first.ID))
	require.NoError(t, tasks.MarkCompleted(ctx, first.ID))
	got, err = tasks.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, got.IsClaimed)
	assert.True(t, got.IsCompleted)

	_, err = tasks.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, store.ErrTaskNotFound))
}

func TestDailyTaskStoreDeleteExpiredKeepsCompletedWork(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
	defer cancel()

	logger := discardLogger()
	tasks := postgres.NewPostgresDailyTaskStore(db, logger)
	records := postgres.NewPostgresRecordStore(db, logger)

	stale := seedTask("2026-01-05", domain.TaskKindInkdot, "Old Unattempted")
	kept := seedTask("2026-01-05", domain.TaskKindInkline, "Old but Finished")
	kept.SortOrder = 1
	require.NoError(t, tasks.CreateMultiple(ctx, []*domain.DailyTask{stale, kept}))

	rec := domain.NewTaskRecord(kept.ID, kept.Kind)
	require.NoError(t, records.Create(ctx, rec))
	require.NoError(t, records.MarkSubmitted(ctx, rec.ID, "done work", 2, 60, time.Now().UTC()))
	require.NoError(t, records.Complete(ctx, rec.ID, 80, nil))

	deleted, err := tasks.DeleteExpired(ctx, "2026-02-08")
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = tasks.GetByID(ctx, stale.ID)
	assert.True(t, errors.Is(err, store.ErrTaskNotFound))
	_, err = tasks.GetByID(ctx, kept.ID)
	assert.NoError(t, err, "tasks with completed attempts survive cleanup")
}

func TestRecordStoreLifecycle(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
	defer cancel()

	logger := discardLogger()
	tasks := postgres.NewPostgresDailyTaskStore(db, logger)
	records := postgres.NewPostgresRecordStore(db, logger)

	task := seedTask("2026-03-10", domain.TaskKindInkdot, "Rust on the Railing")
	require.NoError(t, tasks.CreateMultiple(ctx, []*domain.DailyTask{task}))

	rec := domain.NewTaskRecord(task.ID, task.Kind)
	require.NoError(t, records.Create(ctx, rec))

	require.NoError(t, records.SaveDraft(ctx, rec.ID, "fog over the rope bridge", 5, 45))
	got, err := records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RecordStatusDraft, got.Status)
	assert.Equal(t, 5, got.WordCount)
	assert.Equal(t, 45, got.TimeSpent)

	submittedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, records.MarkSubmitted(ctx, rec.ID, "fog over the rope bridge at dusk", 7, 90, submittedAt))

	feedback := json.RawMessage(`{"summary":"strong sensory grounding"}`)
	require.NoError(t, records.Complete(ctx, rec.ID, 88, feedback))
	require.NoError(t, records.SetReward(ctx, rec.ID, 10, 1, task.Category))

	got, err = records.LatestByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, domain.RecordStatusCompleted, got.Status)
	require.NotNil(t, got.Score)
	assert.Equal(t, 88, *got.Score)
	assert.JSONEq(t, string(feedback), string(got.AIFeedback))
	assert.Equal(t, 10, got.XPEarned)
	require.NotNil(t, got.SubmittedAt)

	_, err = records.LatestByTask(ctx, uuid.New())
	assert.True(t, errors.Is(err, store.ErrRecordNotFound))
}

func TestTemplateStoreRandomActive(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
	defer cancel()

	templates := postgres.NewPostgresTemplateStore(db, discardLogger())

	insert := func(code string, active bool) uuid.UUID {
		id := uuid.New()
		_, err := db.ExecContext(ctx, `
			INSERT INTO task_templates
				(id, code, kind, title, description, category, time_limit,
				 word_limit_min, word_limit_max, xp_reward, attr_reward,
				 difficulty, is_active, use_count, created_at)
			VALUES ($1, $2, 'inkdot', 'Title '||$2, 'Desc', 'scene', 5,
				50, 100, 10, 1, 'normal', $3, 0, now())`,
			id, code, active)
		require.NoError(t, err)
		return id
	}
	activeID := insert("dot-001", true)
	insert("dot-002", false)

	picked, err := templates.RandomActive(ctx, domain.TaskKindInkdot, 5)
	require.NoError(t, err)
	require.Len(t, picked, 1, "inactive templates are never drawn")
	assert.Equal(t, activeID, picked[0].ID)
	assert.Equal(t, "dot-001", picked[0].Code)

	require.NoError(t, templates.IncrementUseCounts(ctx, []uuid.UUID{activeID}))
	picked, err = templates.RandomActive(ctx, domain.TaskKindInkdot, 5)
	require.NoError(t, err)
	require.Len(t, picked, 1)
	assert.Equal(t, 1, picked[0].UseCount)
}

func TestChallengeStoreDailyRoundTrip(t *testing.T) {
	db := testdb.Open(t)
	testdb.Reset(t, db)
	ctx, cancel := context.WithTimeout(context.Background(), testdb.TestTimeout)
	defer cancel()

	challenges := postgres.NewPostgresChallengeStore(db, discardLogger())

	ch := &domain.DailyChallenge{
		ID:            uuid.New(),
		ChallengeDate: "2026-03-10",
		Type:          domain.ChallengeWordCount,
		Title:         "Word Sprint",
		Description:   "Write 500 words across today's tasks.",
		TargetValue:   500,
		XPReward:      50,
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, challenges.CreateDaily(ctx, ch))

	active, err := challenges.GetActiveDaily(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, ch.ID, active.ID)
	assert.Equal(t, 500, active.TargetValue)

	doneAt := time.Now().UTC()
	require.NoError(t, challenges.UpdateDailyProgress(ctx, ch.ID, 500, true, &doneAt))

	_, err = challenges.GetActiveDaily(ctx, "2026-03-10")
	assert.True(t, errors.Is(err, store.ErrChallengeNotFound), "completed challenges are no longer active")

	byDate, err := challenges.GetDailyByDate(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.True(t, byDate.IsCompleted)
	assert.Equal(t, 500, byDate.CurrentValue)
}
