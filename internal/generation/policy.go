package generation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// Pool limits. The daily cap bounds normal operation; the failsafe ceiling
// is a hard stop well above it, so a counting bug can never flood the pool.
const (
	dailyTaskCap    = 20
	failsafeCeiling = 200

	presetInkdotMax  = 10
	presetInklineMax = 5

	// bootstrapTarget is how many tasks an empty day is topped up to with
	// AI-generated inkdots after presets land.
	bootstrapTarget = 10

	// staleThreshold is how long the pool may go without a new row before
	// the poll backfills it.
	staleThreshold = 60 * time.Minute

	// staleBackfillCount is how many tasks one stale backfill adds.
	staleBackfillCount = 2

	// dedupWindowDays is the trailing fingerprint window AI candidates are
	// checked against.
	dedupWindowDays = 7

	// sampleTemplateCount is how many bank templates are embedded in a
	// generation prompt for style grounding.
	sampleTemplateCount = 5

	// Default per-kind AI batch sizes for a manual run.
	manualAIInkdotCount  = 3
	manualAIInklineCount = 2
)

// TickReport summarizes what one policy tick did.
type TickReport struct {
	Date          string
	PresetCreated int
	AICreated     int
	AIDuplicates  int
	Total         int
}

// PolicyEngine decides, on every tick, whether today's pool needs presets
// or AI backfill, and performs the replenishment. Every check re-reads the
// store, so ticks are independent and safe to repeat: a tick that finds
// nothing to do writes nothing.
type PolicyEngine struct {
	db         *sql.DB
	tasks      store.DailyTaskStore
	templates  store.TemplateStore
	providers  store.ProviderStore
	selector   *TemplateSelector
	candidates *CandidateGenerator
	logger     *slog.Logger
	now        func() time.Time

	// runTx is store.RunInTransaction; a field so tests can substitute a
	// pass-through.
	runTx func(ctx context.Context, db *sql.DB, fn store.TxFn) error
}

// NewPolicyEngine creates a PolicyEngine. The candidates generator may be
// nil when no text-generation service is configured; AI backfill is then
// skipped regardless of the provider gate. now is the clock used for date
// and staleness decisions; pass time.Now outside tests.
func NewPolicyEngine(
	db *sql.DB,
	tasks store.DailyTaskStore,
	templates store.TemplateStore,
	providers store.ProviderStore,
	selector *TemplateSelector,
	candidates *CandidateGenerator,
	logger *slog.Logger,
	now func() time.Time,
) *PolicyEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &PolicyEngine{
		db:         db,
		tasks:      tasks,
		templates:  templates,
		providers:  providers,
		selector:   selector,
		candidates: candidates,
		logger:     logger.With(slog.String("component", "policy_engine")),
		now:        now,
		runTx:      store.RunInTransaction,
	}
}

// RunTick performs one replenishment pass for today's pool. It is the
// single entry point for the scheduler's daily job, the interval poll, and
// manual triggers. Partial progress is kept: an AI failure after presets
// landed still reports the presets.
func (p *PolicyEngine) RunTick(ctx context.Context) (*TickReport, error) {
	nowUTC := p.now().UTC()
	date := nowUTC.Format("2006-01-02")
	report := &TickReport{Date: date}

	total, err := p.tasks.CountByDate(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to count today's tasks: %w", err)
	}

	// A pool that has rows but no presets means the preset pass was missed
	// (for example, templates were seeded after AI backfill ran). Repair
	// that first.
	if total > 0 {
		presetCount, err := p.tasks.CountByDateAndSource(ctx, date, domain.TaskSourcePreset)
		if err != nil {
			return report, fmt.Errorf("failed to count preset tasks: %w", err)
		}
		if presetCount == 0 {
			// Repair stays inside the daily cap like every other pass; a
			// pool already at the cap gets no presets.
			room := dailyTaskCap - total
			if room < 0 {
				room = 0
			}
			created, err := p.generatePresets(ctx, date, room)
			if err != nil {
				return report, err
			}
			report.PresetCreated += created
			total += created
		}
	}

	if total >= failsafeCeiling {
		p.logger.Error("task pool hit failsafe ceiling, refusing to generate",
			slog.String("date", date),
			slog.Int("total", total))
		report.Total = total
		return report, nil
	}

	if total == 0 {
		return p.bootstrapDay(ctx, date, report)
	}

	if total >= dailyTaskCap {
		report.Total = total
		return report, nil
	}

	ok, err := p.aiAvailable(ctx)
	if err != nil {
		return report, err
	}
	if !ok {
		report.Total = total
		return report, nil
	}

	latest, err := p.tasks.LatestCreatedAt(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to read latest creation time: %w", err)
	}
	if latest == nil || nowUTC.Sub(latest.UTC()) < staleThreshold {
		report.Total = total
		return report, nil
	}

	need := staleBackfillCount
	if room := dailyTaskCap - total; room < need {
		need = room
	}

	kindCounts, err := p.tasks.KindCounts(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to read kind counts: %w", err)
	}
	kind := PickBackfillKind(kindCounts)

	created, dups, err := p.generateAI(ctx, date, kind, need, staleBackfillCount)
	if err != nil {
		return report, err
	}
	report.AICreated += created
	report.AIDuplicates += dups
	report.Total = total + created

	p.logger.Info("stale pool backfilled",
		slog.String("date", date),
		slog.String("kind", string(kind)),
		slog.Int("created", created))

	return report, nil
}

// ManualOptions selects the passes a manual generation run performs.
// AICount overrides the per-kind batch sizes when positive.
type ManualOptions struct {
	Presets bool
	AI      bool
	AICount int
}

// RunManual performs an operator-triggered generation pass. Unlike RunTick
// it never consults staleness: it runs exactly the passes the options
// select, still bounded by the daily cap, preset idempotency, and the
// provider gate.
func (p *PolicyEngine) RunManual(ctx context.Context, opts ManualOptions) (*TickReport, error) {
	date := p.now().UTC().Format("2006-01-02")
	report := &TickReport{Date: date}

	total, err := p.tasks.CountByDate(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to count today's tasks: %w", err)
	}

	if total >= failsafeCeiling {
		p.logger.Error("task pool hit failsafe ceiling, refusing to generate",
			slog.String("date", date),
			slog.Int("total", total))
		report.Total = total
		return report, nil
	}

	if opts.Presets {
		presetCount, err := p.tasks.CountByDateAndSource(ctx, date, domain.TaskSourcePreset)
		if err != nil {
			return report, fmt.Errorf("failed to count preset tasks: %w", err)
		}
		if presetCount == 0 {
			room := dailyTaskCap - total
			if room < 0 {
				room = 0
			}
			created, err := p.generatePresets(ctx, date, room)
			if err != nil {
				return report, err
			}
			report.PresetCreated = created
			total += created
		}
	}

	if opts.AI {
		ok, err := p.aiAvailable(ctx)
		if err != nil {
			return report, err
		}
		if ok {
			batches := []struct {
				kind  domain.TaskKind
				count int
			}{
				{domain.TaskKindInkdot, manualAIInkdotCount},
				{domain.TaskKindInkline, manualAIInklineCount},
			}
			for _, batch := range batches {
				count := batch.count
				if opts.AICount > 0 {
					count = opts.AICount
				}
				if room := dailyTaskCap - total; count > room {
					count = room
				}
				created, dups, err := p.generateAI(ctx, date, batch.kind, count, len(domain.AllSkillCategories))
				if err != nil {
					return report, err
				}
				report.AICreated += created
				report.AIDuplicates += dups
				total += created
			}
		}
	}

	report.Total = total

	p.logger.Info("manual generation finished",
		slog.String("date", date),
		slog.Int("presets", report.PresetCreated),
		slog.Int("ai", report.AICreated),
		slog.Int("total", total))

	return report, nil
}

// bootstrapDay fills an empty day: presets first, then an AI inkdot top-up
// to the bootstrap target. Presets never wait on the provider gate.
func (p *PolicyEngine) bootstrapDay(ctx context.Context, date string, report *TickReport) (*TickReport, error) {
	created, err := p.generatePresets(ctx, date, dailyTaskCap)
	if err != nil {
		return report, err
	}
	report.PresetCreated = created
	report.Total = created

	ok, err := p.aiAvailable(ctx)
	if err != nil {
		return report, err
	}
	if !ok {
		p.logger.Info("bootstrap finished without AI top-up",
			slog.String("date", date),
			slog.Int("presets", created))
		return report, nil
	}

	need := bootstrapTarget - created
	if room := dailyTaskCap - created; room < need {
		need = room
	}
	if need <= 0 {
		return report, nil
	}

	aiCreated, dups, err := p.generateAI(ctx, date, domain.TaskKindInkdot, need, len(domain.AllSkillCategories))
	if err != nil {
		// Presets already landed; report them alongside the failure.
		return report, err
	}
	report.AICreated = aiCreated
	report.AIDuplicates = dups
	report.Total = created + aiCreated

	p.logger.Info("bootstrapped today's pool",
		slog.String("date", date),
		slog.Int("presets", created),
		slog.Int("ai", aiCreated))

	return report, nil
}

// generatePresets draws the per-kind preset quotas from the template bank,
// bounded by room, and persists the drafts together with the template
// use-count bumps in one transaction. Skipping silently when the bank is
// empty is deliberate; presets are best-effort.
func (p *PolicyEngine) generatePresets(ctx context.Context, date string, room int) (int, error) {
	if room <= 0 {
		return 0, nil
	}

	startOrder, err := p.tasks.NextSortOrder(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to read next sort order: %w", err)
	}

	inkdotCount := presetInkdotMax
	if inkdotCount > room {
		inkdotCount = room
	}
	inkdots, inkdotIDs, err := p.selector.Select(ctx, date, domain.TaskKindInkdot, inkdotCount, startOrder)
	if err != nil {
		return 0, err
	}

	inklineCount := presetInklineMax
	if remaining := room - len(inkdots); inklineCount > remaining {
		inklineCount = remaining
	}
	inklines, inklineIDs, err := p.selector.Select(ctx, date, domain.TaskKindInkline, inklineCount, startOrder+len(inkdots))
	if err != nil {
		return 0, err
	}

	drafts := append(inkdots, inklines...)
	if len(drafts) == 0 {
		return 0, nil
	}
	usedIDs := append(inkdotIDs, inklineIDs...)

	err = p.runTx(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := p.tasks.WithTx(tx).CreateMultiple(ctx, drafts); err != nil {
			return fmt.Errorf("failed to insert preset tasks: %w", err)
		}
		if err := p.templates.WithTx(tx).IncrementUseCounts(ctx, usedIDs); err != nil {
			return fmt.Errorf("failed to bump template use counts: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(drafts), nil
}

// generateAI runs one AI candidate batch of the given kind and persists
// the accepted drafts. targetCount is how many least-covered categories
// the batch aims at.
func (p *PolicyEngine) generateAI(ctx context.Context, date string, kind domain.TaskKind, count, targetCount int) (created, duplicates int, err error) {
	if p.candidates == nil || count <= 0 {
		return 0, 0, nil
	}

	categoryCounts, err := p.tasks.CategoryCounts(ctx, date)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read category counts: %w", err)
	}
	targets := LeastCoveredCategories(categoryCounts, targetCount)

	sinceDate := p.now().UTC().AddDate(0, 0, -dedupWindowDays).Format("2006-01-02")
	fingerprints, err := p.tasks.RecentFingerprints(ctx, sinceDate)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read recent fingerprints: %w", err)
	}

	samples, err := p.templates.RandomActive(ctx, kind, sampleTemplateCount)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to draw sample templates: %w", err)
	}

	startOrder, err := p.tasks.NextSortOrder(ctx, date)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read next sort order: %w", err)
	}

	result, err := p.candidates.Generate(ctx, CandidateRequest{
		Date:               date,
		Kind:               kind,
		Count:              count,
		TargetCategories:   targets,
		Samples:            samples,
		RecentFingerprints: fingerprints,
		StartOrder:         startOrder,
	})
	if err != nil {
		return 0, 0, err
	}
	if len(result.Tasks) == 0 {
		return 0, result.Duplicates, nil
	}

	err = p.runTx(ctx, p.db, func(ctx context.Context, tx *sql.Tx) error {
		return p.tasks.WithTx(tx).CreateMultiple(ctx, result.Tasks)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to insert generated tasks: %w", err)
	}

	return result.Accepted, result.Duplicates, nil
}

// aiAvailable reports whether AI backfill may run: a generator must be
// wired and an active provider row must exist.
func (p *PolicyEngine) aiAvailable(ctx context.Context) (bool, error) {
	if p.candidates == nil {
		return false, nil
	}
	ok, err := p.providers.HasActiveProvider(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check provider gate: %w", err)
	}
	return ok, nil
}
