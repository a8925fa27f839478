package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/events"
	"github.com/inkgrove/inkgrove-api/internal/platform/logger"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// fallbackScore is assigned when submission evaluation fails. The
// submission still completes; a broken evaluator must never block the
// user's progress.
const fallbackScore = 70

// SubmissionEvaluator scores a submission against its task. Implemented by
// generation.Evaluator; nil means evaluation is disabled and every
// submission gets the fallback score.
type SubmissionEvaluator interface {
	EvaluateSubmission(ctx context.Context, task *domain.DailyTask, content string, wordCount int) (*domain.Evaluation, error)
}

// TaskView is a daily task decorated with its latest attempt record.
type TaskView struct {
	Task       *domain.DailyTask `json:"task"`
	HasStarted bool              `json:"has_started"`
	RecordID   *uuid.UUID        `json:"record_id,omitempty"`
	Status     string            `json:"status,omitempty"`
	Score      *int              `json:"score,omitempty"`
}

// SubmitResult reports the outcome of a submission: the completed record
// plus what the reward subsystem did with it. The reward fields are nil
// when the corresponding reward call failed or no subsystem is wired.
type SubmitResult struct {
	Record          *domain.TaskRecord `json:"record"`
	Score           int                `json:"score"`
	Feedback        json.RawMessage    `json:"feedback,omitempty"`
	XPEarned        int                `json:"xp_earned"`
	AttrEarned      int                `json:"attr_earned"`
	FallbackUsed    bool               `json:"fallback_used"`
	XPResult        *XPAward           `json:"xp_result,omitempty"`
	Streak          *StreakResult      `json:"streak,omitempty"`
	NewAchievements []Achievement      `json:"new_achievements,omitempty"`
}

// TaskStats aggregates attempt records for the stats endpoint.
type TaskStats struct {
	Today      []store.KindStats     `json:"today"`
	Overall    []store.KindStats     `json:"overall"`
	Categories []store.CategoryStats `json:"categories"`
}

// TaskService manages the task attempt lifecycle: start, draft saves,
// submission, evaluation, and the resulting rewards and progress events.
type TaskService struct {
	db        *sql.DB
	tasks     store.DailyTaskStore
	records   store.RecordStore
	evaluator SubmissionEvaluator
	rewards   RewardService
	emitter   events.Emitter
	logger    *slog.Logger
	now       func() time.Time

	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewTaskService creates a TaskService. evaluator may be nil (fallback
// scoring only); rewards and emitter may be nil (their steps are skipped).
func NewTaskService(
	db *sql.DB,
	tasks store.DailyTaskStore,
	records store.RecordStore,
	evaluator SubmissionEvaluator,
	rewards RewardService,
	emitter events.Emitter,
	logger *slog.Logger,
	now func() time.Time,
) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		db:        db,
		tasks:     tasks,
		records:   records,
		evaluator: evaluator,
		rewards:   rewards,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "task_service")),
		now:       now,
		runTx:     store.RunInTransaction,
	}
}

// GetTodayTasks returns today's tasks, ordered by sort position and
// decorated with each task's latest attempt record. An empty kind returns
// all kinds.
func (s *TaskService) GetTodayTasks(ctx context.Context, kind domain.TaskKind) ([]*TaskView, error) {
	date := s.now().UTC().Format("2006-01-02")
	tasks, err := s.tasks.ListByDate(ctx, date, kind)
	if err != nil {
		return nil, NewTaskServiceError("GetTodayTasks", "failed to list tasks", err)
	}

	views := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		view := &TaskView{Task: task}
		record, err := s.records.LatestByTask(ctx, task.ID)
		switch {
		case err == nil:
			id := record.ID
			view.HasStarted = true
			view.RecordID = &id
			view.Status = string(record.Status)
			view.Score = record.Score
		case store.IsNotFoundError(err):
			// Never attempted.
		default:
			return nil, NewTaskServiceError("GetTodayTasks", "failed to load latest record", err)
		}
		views = append(views, view)
	}
	return views, nil
}

// Start begins (or resumes) work on a task. If the task's latest record is
// not yet completed, that record is resumed; otherwise a fresh draft is
// created and the task is claimed. Returns store.ErrTaskNotFound for an
// unknown task.
func (s *TaskService) Start(ctx context.Context, taskID uuid.UUID) (*domain.TaskRecord, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("Start", "failed to load task", err)
	}

	record, err := s.records.LatestByTask(ctx, taskID)
	if err == nil && record.Status != domain.RecordStatusCompleted {
		return record, nil
	}
	if err != nil && !store.IsNotFoundError(err) {
		return nil, NewTaskServiceError("Start", "failed to load latest record", err)
	}

	fresh := domain.NewTaskRecord(task.ID, task.Kind)
	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.records.WithTx(tx).Create(ctx, fresh); err != nil {
			return fmt.Errorf("failed to create attempt record: %w", err)
		}
		if !task.IsClaimed {
			if err := s.tasks.WithTx(tx).MarkClaimed(ctx, task.ID); err != nil {
				return fmt.Errorf("failed to claim task: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewTaskServiceError("Start", "failed to start task", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task started",
		slog.String("task_id", task.ID.String()),
		slog.String("record_id", fresh.ID.String()),
		slog.String("kind", string(task.Kind)))
	return fresh, nil
}

// SaveDraft persists in-progress content on a record and returns the
// recomputed word count. Returns ErrRecordCompleted if the record has
// already been completed.
func (s *TaskService) SaveDraft(ctx context.Context, recordID uuid.UUID, content string, timeSpent int) (int, error) {
	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return 0, err
		}
		return 0, NewTaskServiceError("SaveDraft", "failed to load record", err)
	}
	if record.Status == domain.RecordStatusCompleted {
		return 0, ErrRecordCompleted
	}

	wordCount := domain.WordCount(content)
	if err := s.records.SaveDraft(ctx, recordID, content, wordCount, timeSpent); err != nil {
		return 0, NewTaskServiceError("SaveDraft", "failed to save draft", err)
	}
	return wordCount, nil
}

// Submit finalizes a record: it moves through submitted, is evaluated, and
// completes with either the evaluation score or the fallback score. The
// task is flagged completed, the record gets its rewards, and progress
// events fire. Evaluation and notification failures never fail the
// submission itself.
func (s *TaskService) Submit(ctx context.Context, recordID uuid.UUID, content string, timeSpent int) (*SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	record, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, NewTaskServiceError("Submit", "failed to load record", err)
	}
	if record.Status == domain.RecordStatusCompleted {
		return nil, ErrRecordCompleted
	}

	task, err := s.tasks.GetByID(ctx, record.TaskID)
	if err != nil {
		return nil, NewTaskServiceError("Submit", "failed to load task", err)
	}

	wordCount := domain.WordCount(content)
	submittedAt := s.now().UTC()
	if err := s.records.MarkSubmitted(ctx, recordID, content, wordCount, timeSpent, submittedAt); err != nil {
		return nil, NewTaskServiceError("Submit", "failed to mark record submitted", err)
	}

	score, feedback, fallbackUsed := s.evaluate(ctx, task, content, wordCount)

	err = s.runTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		records := s.records.WithTx(tx)
		if err := records.Complete(ctx, recordID, score, feedback); err != nil {
			return fmt.Errorf("failed to complete record: %w", err)
		}
		if err := records.SetReward(ctx, recordID, task.XPReward, task.AttrReward, task.Category); err != nil {
			return fmt.Errorf("failed to set record reward: %w", err)
		}
		if !task.IsCompleted {
			if err := s.tasks.WithTx(tx).MarkCompleted(ctx, task.ID); err != nil {
				return fmt.Errorf("failed to mark task completed: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, NewTaskServiceError("Submit", "failed to finalize submission", err)
	}

	xpResult, streak, unlocked := s.award(ctx, task, score, log)
	s.publishProgress(ctx, task, wordCount, score, log)

	record.Status = domain.RecordStatusCompleted
	record.Content = content
	record.WordCount = wordCount
	record.TimeSpent = timeSpent
	record.Score = &score
	record.AIFeedback = feedback
	record.XPEarned = task.XPReward
	record.AttrEarned = task.AttrReward
	record.Category = task.Category
	record.SubmittedAt = &submittedAt

	log.Info("submission completed",
		slog.String("task_id", task.ID.String()),
		slog.String("record_id", recordID.String()),
		slog.Int("score", score),
		slog.Int("word_count", wordCount),
		slog.Bool("fallback_used", fallbackUsed))

	return &SubmitResult{
		Record:          record,
		Score:           score,
		Feedback:        feedback,
		XPEarned:        task.XPReward,
		AttrEarned:      task.AttrReward,
		FallbackUsed:    fallbackUsed,
		XPResult:        xpResult,
		Streak:          streak,
		NewAchievements: unlocked,
	}, nil
}

// GetTaskStats returns today's, all-time, and per-category aggregates.
func (s *TaskService) GetTaskStats(ctx context.Context) (*TaskStats, error) {
	date := s.now().UTC().Format("2006-01-02")

	today, err := s.records.StatsByKindSince(ctx, date)
	if err != nil {
		return nil, NewTaskServiceError("GetTaskStats", "failed to load today's stats", err)
	}
	overall, err := s.records.StatsByKindSince(ctx, "")
	if err != nil {
		return nil, NewTaskServiceError("GetTaskStats", "failed to load overall stats", err)
	}
	categories, err := s.records.StatsByCategory(ctx)
	if err != nil {
		return nil, NewTaskServiceError("GetTaskStats", "failed to load category stats", err)
	}

	return &TaskStats{Today: today, Overall: overall, Categories: categories}, nil
}

// evaluate runs the evaluator and degrades to the fallback score on any
// failure.
func (s *TaskService) evaluate(ctx context.Context, task *domain.DailyTask, content string, wordCount int) (int, json.RawMessage, bool) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.evaluator == nil {
		return fallbackScore, nil, true
	}

	eval, err := s.evaluator.EvaluateSubmission(ctx, task, content, wordCount)
	if err != nil {
		log.Warn("evaluation failed, using fallback score",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fallbackScore, nil, true
	}

	feedback, err := json.Marshal(eval)
	if err != nil {
		log.Warn("failed to encode evaluation, using fallback score",
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
		return fallbackScore, nil, true
	}
	return eval.Score, feedback, false
}

// award pushes the completion rewards to the reward subsystem and collects
// the results for the submit response. Failures are logged and swallowed;
// a failed call leaves its result nil.
func (s *TaskService) award(ctx context.Context, task *domain.DailyTask, score int, log *slog.Logger) (*XPAward, *StreakResult, []Achievement) {
	if s.rewards == nil {
		return nil, nil, nil
	}

	xp, err := s.rewards.AwardXP(ctx, task.XPReward, "task:"+string(task.Kind))
	if err != nil {
		log.Error("failed to award XP", slog.String("error", err.Error()))
	}
	if err := s.rewards.AwardAttribute(ctx, task.Category, task.AttrReward); err != nil {
		log.Error("failed to award attribute points", slog.String("error", err.Error()))
	}
	streak, err := s.rewards.UpdateStreak(ctx)
	if err != nil {
		log.Error("failed to update streak", slog.String("error", err.Error()))
	}

	check := func(trigger string, value int) []Achievement {
		got, err := s.rewards.CheckAchievements(ctx, trigger, value)
		if err != nil {
			log.Error("failed to check achievements",
				slog.String("trigger", trigger),
				slog.String("error", err.Error()))
			return nil
		}
		return got
	}

	var unlocked []Achievement
	unlocked = append(unlocked, check(TriggerTaskComplete, score)...)
	if score >= scoreAboveThreshold {
		unlocked = append(unlocked, check(TriggerScoreReceived, score)...)
	}
	// Milestone checks run on totals held by the reward subsystem; their
	// unlocks surface on the next profile read rather than in this result.
	check(TriggerAttrUpdate, 0)
	check(TriggerWordsUpdate, 0)

	return xp, streak, unlocked
}

// publishProgress emits the lifecycle events a completion produces.
// Delivery failures are logged and swallowed.
func (s *TaskService) publishProgress(ctx context.Context, task *domain.DailyTask, wordCount, score int, log *slog.Logger) {
	if s.emitter == nil {
		return
	}

	progress := []*events.ProgressEvent{
		events.NewProgressEvent(events.EventTaskComplete, task.ID, task.Kind, 1),
		events.NewProgressEvent(events.EventWordAdded, task.ID, task.Kind, wordCount),
		events.NewProgressEvent(events.EventScoreReceived, task.ID, task.Kind, score),
	}
	switch task.Kind {
	case domain.TaskKindInkdot:
		progress = append(progress, events.NewProgressEvent(events.EventInkdotComplete, task.ID, task.Kind, 1))
	case domain.TaskKindInkline:
		progress = append(progress, events.NewProgressEvent(events.EventInklineComplete, task.ID, task.Kind, 1))
	}

	for _, event := range progress {
		if err := s.emitter.EmitEvent(ctx, event); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("failed to deliver progress event",
				slog.String("event_type", string(event.Type)),
				slog.String("error", err.Error()))
		}
	}
}
