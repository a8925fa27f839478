package generation

import (
	"sort"

	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// LeastCoveredCategories returns the n skill categories with the fewest
// tasks in the given per-category counts, sorted ascending by count with a
// stable alphabetical tie-break. Categories absent from the map count as
// zero. This steers new generation toward under-represented categories so
// no single category dominates a day's pool by random draw.
func LeastCoveredCategories(counts map[domain.SkillCategory]int, n int) []domain.SkillCategory {
	type coverage struct {
		category domain.SkillCategory
		count    int
	}

	// AllSkillCategories is alphabetical, so a stable sort by count alone
	// preserves the alphabetical tie-break.
	ranked := make([]coverage, 0, len(domain.AllSkillCategories))
	for _, category := range domain.AllSkillCategories {
		ranked = append(ranked, coverage{category: category, count: counts[category]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].count < ranked[j].count
	})

	if n < 1 {
		n = 1
	}
	if n > len(ranked) {
		n = len(ranked)
	}

	result := make([]domain.SkillCategory, 0, n)
	for _, c := range ranked[:n] {
		result = append(result, c.category)
	}
	return result
}

// PickBackfillKind chooses which task kind a stale-pool backfill should
// generate: inkline when the day has none yet, otherwise whichever of
// inkdot/inkline has the lower count, with inkline winning ties. Keeps
// inkdot slightly ahead without letting inkline go missing for long.
func PickBackfillKind(counts map[domain.TaskKind]int) domain.TaskKind {
	inkdot := counts[domain.TaskKindInkdot]
	inkline := counts[domain.TaskKindInkline]

	if inkline == 0 {
		return domain.TaskKindInkline
	}
	if inkdot < inkline {
		return domain.TaskKindInkdot
	}
	return domain.TaskKindInkline
}
