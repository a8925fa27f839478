package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/inkgrove/inkgrove-api/internal/config"
	"github.com/inkgrove/inkgrove-api/internal/events"
	"github.com/inkgrove/inkgrove-api/internal/generation"
	"github.com/inkgrove/inkgrove-api/internal/platform/gemini"
	"github.com/inkgrove/inkgrove-api/internal/platform/postgres"
	"github.com/inkgrove/inkgrove-api/internal/scheduler"
	"github.com/inkgrove/inkgrove-api/internal/service"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// application holds the shared application dependencies so wiring and
// shutdown stay in one place.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores
	templateStore  store.TemplateStore
	taskStore      store.DailyTaskStore
	recordStore    store.RecordStore
	challengeStore store.ChallengeStore
	providerStore  store.ProviderStore

	// Generation
	generator generation.TextGenerator
	engine    *generation.PolicyEngine
	evaluator *generation.Evaluator

	// Services
	taskService      *service.TaskService
	challengeService *service.ChallengeService
	rewardService    service.RewardService

	// Event system
	emitter *events.InMemoryEmitter

	// Triggers
	scheduler *scheduler.Scheduler
}

// newApplication creates an application with all dependencies wired. When
// the LLM adapter is disabled by configuration, generation and evaluation
// degrade per policy: presets only, fallback scores.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.templateStore = postgres.NewPostgresTemplateStore(db, logger)
	app.taskStore = postgres.NewPostgresDailyTaskStore(db, logger)
	app.recordStore = postgres.NewPostgresRecordStore(db, logger)
	app.challengeStore = postgres.NewPostgresChallengeStore(db, logger)
	app.providerStore = postgres.NewPostgresProviderStore(db)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	die := generation.NewPromptKindDie(rng)
	selector := generation.NewTemplateSelector(app.templateStore, die, logger)

	var candidates *generation.CandidateGenerator
	if cfg.LLM.Enabled() {
		gen, err := gemini.NewGenerator(ctx, logger.With(slog.String("component", "llm_generator")), cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
		}
		app.generator = gen
		candidates = generation.NewCandidateGenerator(gen, rng, logger)
		app.evaluator = generation.NewEvaluator(gen, logger)
		logger.Info("LLM generator initialized", slog.String("model", cfg.LLM.ModelName))
	} else {
		logger.Warn("LLM generator disabled, running with presets and fallback scoring only")
	}

	app.engine = generation.NewPolicyEngine(
		db,
		app.taskStore,
		app.templateStore,
		app.providerStore,
		selector,
		candidates,
		logger,
		nil,
	)

	app.emitter = events.NewInMemoryEmitter(logger)
	app.rewardService = service.NewLogRewardService(logger)

	var submissionEvaluator service.SubmissionEvaluator
	var weeklyEvaluator service.WeeklyEvaluator
	if app.evaluator != nil {
		submissionEvaluator = app.evaluator
		weeklyEvaluator = app.evaluator
	}

	app.taskService = service.NewTaskService(
		db,
		app.taskStore,
		app.recordStore,
		submissionEvaluator,
		app.rewardService,
		app.emitter,
		logger,
		nil,
	)

	app.challengeService = service.NewChallengeService(
		db,
		app.challengeStore,
		app.templateStore,
		&service.StaticProfileProvider{Level: 1},
		app.rewardService,
		weeklyEvaluator,
		rng,
		logger,
		nil,
	)

	// Challenge progress accumulates from the task lifecycle events.
	app.emitter.RegisterHandler(app.challengeService)

	sched, err := scheduler.New(
		cfg.Scheduler,
		app.engine,
		app.taskStore,
		app.recordStore,
		app.challengeService,
		logger,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	app.scheduler = sched

	logger.Info("application initialized")
	return app, nil
}

// Run starts the scheduler and the HTTP server, blocking until shutdown.
func (app *application) Run(ctx context.Context) error {
	app.scheduler.Start()

	router := app.setupRouter()
	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
	}
	closeDatabase(app.db, app.logger)
	app.logger.Info("application shutdown completed")
}
