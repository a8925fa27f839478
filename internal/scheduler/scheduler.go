package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/inkgrove/inkgrove-api/internal/config"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

const (
	// generationSpec fires the daily generation run just after midnight,
	// after the cleanup job has cleared the previous day.
	generationSpec = "1 0 * * *"

	// cleanupSpec fires the retention sweep at midnight.
	cleanupSpec = "0 0 * * *"

	// taskRetentionDays is how long uncompleted tasks survive past their
	// date before the cleanup sweep removes them.
	taskRetentionDays = 30

	// draftRetention is how long an unsubmitted draft record survives.
	draftRetention = 7 * 24 * time.Hour

	// jobTimeout bounds every scheduled run.
	jobTimeout = 5 * time.Minute
)

// TickRunner runs generation policy passes. Implemented by
// generation.PolicyEngine.
type TickRunner interface {
	RunTick(ctx context.Context) (*generation.TickReport, error)
	RunManual(ctx context.Context, opts generation.ManualOptions) (*generation.TickReport, error)
}

// GenerateOptions selects what a manual generation run performs. The admin
// endpoint defaults presets and the daily challenge on and AI off.
type GenerateOptions struct {
	Presets         bool
	AI              bool
	AICount         int
	EnsureChallenge bool
}

// ChallengeEnsurer guarantees the day has its challenge. Implemented by
// service.ChallengeService.
type ChallengeEnsurer interface {
	EnsureDaily(ctx context.Context) (*domain.DailyChallenge, error)
}

// TaskJanitor is the slice of the task store the scheduler touches.
type TaskJanitor interface {
	DeleteExpired(ctx context.Context, cutoffDate string) (int64, error)
	SourceKindCounts(ctx context.Context, date string) ([]store.SourceKindCount, error)
	LastCreatedBySource(ctx context.Context, source domain.TaskSource) (*time.Time, error)
}

// RecordJanitor is the slice of the record store the scheduler touches.
type RecordJanitor interface {
	DeleteStaleIncomplete(ctx context.Context, before time.Time) (int64, error)
}

// Status is a point-in-time snapshot of the scheduler and today's pool.
type Status struct {
	Running         bool                    `json:"running"`
	Date            string                  `json:"date"`
	PoolCounts      []store.SourceKindCount `json:"pool_counts"`
	LastAIGenerated *time.Time              `json:"last_ai_generated,omitempty"`
}

// Scheduler owns the periodic triggers of the engine: the midnight cleanup
// sweep, the post-midnight generation run, and the backfill poll. Start and
// Stop are idempotent.
type Scheduler struct {
	engine     TickRunner
	tasks      TaskJanitor
	records    RecordJanitor
	challenges ChallengeEnsurer
	logger     *slog.Logger
	now        func() time.Time

	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler with its jobs registered but not started.
// challenges may be nil; the daily challenge step is then skipped.
func New(
	cfg config.SchedulerConfig,
	engine TickRunner,
	tasks TaskJanitor,
	records RecordJanitor,
	challenges ChallengeEnsurer,
	logger *slog.Logger,
	now func() time.Time,
) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	s := &Scheduler{
		engine:     engine,
		tasks:      tasks,
		records:    records,
		challenges: challenges,
		logger:     logger.With(slog.String("component", "scheduler")),
		now:        now,
		cron:       cron.New(cron.WithLocation(loc)),
	}

	if _, err := s.cron.AddFunc(cleanupSpec, s.job(s.runCleanup)); err != nil {
		return nil, fmt.Errorf("failed to register cleanup job: %w", err)
	}
	if _, err := s.cron.AddFunc(generationSpec, s.job(s.runGeneration)); err != nil {
		return nil, fmt.Errorf("failed to register generation job: %w", err)
	}
	pollSpec := fmt.Sprintf("@every %dm", cfg.PollIntervalMinutes)
	if _, err := s.cron.AddFunc(pollSpec, s.job(s.runGeneration)); err != nil {
		return nil, fmt.Errorf("failed to register poll job: %w", err)
	}

	return s, nil
}

// Start begins the cron loop and kicks off a startup generation pass so a
// freshly booted server does not wait for the next tick. Calling Start on
// a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	go s.job(s.runGeneration)()

	s.logger.Info("scheduler started",
		slog.String("generation_spec", generationSpec),
		slog.String("cleanup_spec", cleanupSpec))
}

// Stop halts the cron loop and waits for any in-flight job to finish.
// Calling Stop on a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// ManualGenerate runs the passes the options select outside the schedule.
// A challenge failure after generation succeeded is logged, not returned;
// the report still reflects what was generated.
func (s *Scheduler) ManualGenerate(ctx context.Context, opts GenerateOptions) (*generation.TickReport, error) {
	report, err := s.engine.RunManual(ctx, generation.ManualOptions{
		Presets: opts.Presets,
		AI:      opts.AI,
		AICount: opts.AICount,
	})
	if err != nil {
		return report, err
	}

	if opts.EnsureChallenge && s.challenges != nil {
		if _, err := s.challenges.EnsureDaily(ctx); err != nil {
			s.logger.Error("failed to ensure daily challenge", slog.String("error", err.Error()))
		}
	}
	return report, nil
}

// Status reports whether the scheduler is running and what today's pool
// looks like by source and kind.
func (s *Scheduler) Status(ctx context.Context) (*Status, error) {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()

	date := s.now().UTC().Format("2006-01-02")
	counts, err := s.tasks.SourceKindCounts(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load pool counts: %w", err)
	}
	lastAI, err := s.tasks.LastCreatedBySource(ctx, domain.TaskSourceAIGenerated)
	if err != nil {
		return nil, fmt.Errorf("failed to load last generation time: %w", err)
	}

	return &Status{
		Running:         running,
		Date:            date,
		PoolCounts:      counts,
		LastAIGenerated: lastAI,
	}, nil
}

// job wraps a run function with the job timeout.
func (s *Scheduler) job(run func(ctx context.Context)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		run(ctx)
	}
}

// runGeneration executes one policy tick and makes sure the day has its
// challenge. Failures are logged; the next trigger retries.
func (s *Scheduler) runGeneration(ctx context.Context) {
	report, err := s.engine.RunTick(ctx)
	if err != nil {
		s.logger.Error("generation tick failed", slog.String("error", err.Error()))
	} else {
		s.logger.Info("generation tick finished",
			slog.String("date", report.Date),
			slog.Int("preset_created", report.PresetCreated),
			slog.Int("ai_created", report.AICreated),
			slog.Int("total", report.Total))
	}

	if s.challenges == nil {
		return
	}
	if _, err := s.challenges.EnsureDaily(ctx); err != nil {
		s.logger.Error("failed to ensure daily challenge", slog.String("error", err.Error()))
	}
}

// runCleanup sweeps expired tasks and stale draft records.
func (s *Scheduler) runCleanup(ctx context.Context) {
	now := s.now().UTC()

	cutoff := now.AddDate(0, 0, -taskRetentionDays).Format("2006-01-02")
	tasksDeleted, err := s.tasks.DeleteExpired(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to delete expired tasks", slog.String("error", err.Error()))
	}

	recordsDeleted, err := s.records.DeleteStaleIncomplete(ctx, now.Add(-draftRetention))
	if err != nil {
		s.logger.Error("failed to delete stale records", slog.String("error", err.Error()))
	}

	s.logger.Info("cleanup finished",
		slog.String("cutoff", cutoff),
		slog.Int64("tasks_deleted", tasksDeleted),
		slog.Int64("records_deleted", recordsDeleted))
}
