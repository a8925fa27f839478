package generation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
	"github.com/inkgrove/inkgrove-api/internal/store"
)

// TemplateSelector turns randomly drawn active templates into concrete
// daily task drafts: it rolls a prompt kind per template (unless the
// template pins one), applies the presentation transform, and computes the
// content fingerprint. The caller persists the drafts and the matching
// use-count bumps in one transaction.
type TemplateSelector struct {
	templates store.TemplateStore
	die       *PromptKindDie
	logger    *slog.Logger
}

// NewTemplateSelector creates a TemplateSelector. If logger is nil, a
// default logger is used.
func NewTemplateSelector(templates store.TemplateStore, die *PromptKindDie, logger *slog.Logger) *TemplateSelector {
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateSelector{
		templates: templates,
		die:       die,
		logger:    logger.With(slog.String("component", "template_selector")),
	}
}

// Select draws up to count random active templates of the given kind and
// produces preset task drafts for the date, assigning sort positions from
// startOrder upward. It returns the drafts together with the IDs of the
// templates used, so the caller can bump their use counters in the same
// transaction as the insert. Fewer templates than requested is not an
// error; the bank may simply be small.
func (s *TemplateSelector) Select(
	ctx context.Context,
	date string,
	kind domain.TaskKind,
	count int,
	startOrder int,
) ([]*domain.DailyTask, []uuid.UUID, error) {
	if count <= 0 {
		return nil, nil, nil
	}

	templates, err := s.templates.RandomActive(ctx, kind, count)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to draw %s templates: %w", kind, err)
	}

	spec := SpecForKind(kind)
	tasks := make([]*domain.DailyTask, 0, len(templates))
	usedIDs := make([]uuid.UUID, 0, len(templates))

	for i, tmpl := range templates {
		promptKind := tmpl.PromptKind
		if promptKind == "" {
			promptKind = s.die.Roll()
		}

		title, description := FormatByPromptKind(promptKind, tmpl.Title, tmpl.Description, spec.WordLimitText)

		task := domain.NewDailyTask(date, kind, title, description)
		templateID := tmpl.ID
		task.TemplateID = &templateID
		task.Requirements = tmpl.Requirements
		task.PromptKind = promptKind
		task.TimeLimit = tmpl.TimeLimit
		task.WordLimitMin = tmpl.WordLimitMin
		task.WordLimitMax = tmpl.WordLimitMax
		task.Category = tmpl.Category
		task.XPReward = tmpl.XPReward
		task.AttrReward = tmpl.AttrReward
		task.Difficulty = tmpl.Difficulty
		task.Source = domain.TaskSourcePreset
		task.SortOrder = startOrder + i

		if err := task.Validate(); err != nil {
			s.logger.Warn("skipping invalid preset draft",
				slog.String("template_id", tmpl.ID.String()),
				slog.String("error", err.Error()))
			continue
		}

		tasks = append(tasks, task)
		usedIDs = append(usedIDs, tmpl.ID)
	}

	s.logger.Debug("selected preset drafts",
		slog.String("kind", string(kind)),
		slog.Int("requested", count),
		slog.Int("drafted", len(tasks)))

	return tasks, usedIDs, nil
}
