package generation

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// Prefix markers applied by the polish/continue transforms. The transforms
// are idempotent: an already-marked title is never double-prefixed.
const (
	polishMarker   = "[Polish] "
	continueMarker = "[Continue] "
)

// continueSeedLimit caps the continuation opening at 140 runes before the
// ellipsis is appended.
const continueSeedLimit = 140

// PromptKindDie rolls prompt kinds with a uniform six-sided die:
// 1-2 normal, 3-4 polish, 5-6 continue, giving each kind exactly 1/3
// probability. The random source is injected so tests can fix the seed.
type PromptKindDie struct {
	rng *rand.Rand
}

// NewPromptKindDie creates a die backed by the given random source.
func NewPromptKindDie(rng *rand.Rand) *PromptKindDie {
	return &PromptKindDie{rng: rng}
}

// Roll returns the next prompt kind.
func (d *PromptKindDie) Roll() domain.PromptKind {
	roll := d.rng.Intn(6) + 1
	switch {
	case roll <= 2:
		return domain.PromptKindNormal
	case roll <= 4:
		return domain.PromptKindPolish
	default:
		return domain.PromptKindContinue
	}
}

// FormatByPromptKind applies the deterministic presentation transform for
// the given prompt kind to a task's base title and description.
// wordLimitText is the human-readable length requirement embedded in the
// rewritten description ("50-100 words"). Unknown kinds fall back to
// normal, which leaves the text unchanged.
func FormatByPromptKind(kind domain.PromptKind, baseTitle, baseDescription, wordLimitText string) (string, string) {
	switch kind {
	case domain.PromptKindPolish:
		title := baseTitle
		if !strings.HasPrefix(title, polishMarker) {
			title = polishMarker + title
		}
		description := fmt.Sprintf(
			"Polish task: rewrite the following dry outline into flowing prose of %s.\nOutline:\n- %s\n- %s\nKeep the events as given; improve only the wording, pacing, and detail.",
			wordLimitText,
			strings.TrimSpace(baseTitle),
			strings.TrimSpace(baseDescription),
		)
		return title, description

	case domain.PromptKindContinue:
		title := baseTitle
		if !strings.HasPrefix(title, continueMarker) {
			title = continueMarker + title
		}
		raw := strings.TrimSpace(baseTitle) + ". " + strings.TrimSpace(baseDescription)
		raw = strings.Join(strings.Fields(raw), " ")
		starter := raw
		if runes := []rune(raw); len(runes) > continueSeedLimit {
			starter = string(runes[:continueSeedLimit]) + "…"
		}
		description := fmt.Sprintf(
			"Continuation task: read the opening below and continue it for %s.\nOpening: %s\nKeep person and tense consistent; add detail and advance one change.",
			wordLimitText,
			starter,
		)
		return title, description

	default:
		return baseTitle, baseDescription
	}
}
