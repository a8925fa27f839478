package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskTemplate is an immutable seed for daily task generation. Templates
// are created by configuration or import; the engine only ever bumps the
// use counter.
type TaskTemplate struct {
	ID           uuid.UUID     `json:"id"`
	Code         string        `json:"code"`
	Kind         TaskKind      `json:"kind"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Requirements string        `json:"requirements,omitempty"`
	Category     SkillCategory `json:"category"`
	// PromptKind pins the presentation mode. Empty means the selector
	// rolls one at generation time.
	PromptKind   PromptKind `json:"prompt_kind,omitempty"`
	TimeLimit    int        `json:"time_limit"`
	WordLimitMin int        `json:"word_limit_min"`
	WordLimitMax int        `json:"word_limit_max"`
	XPReward     int        `json:"xp_reward"`
	AttrReward   int        `json:"attr_reward"`
	Difficulty   Difficulty `json:"difficulty"`
	Tags         string     `json:"tags,omitempty"`
	IsActive     bool       `json:"is_active"`
	UseCount     int        `json:"use_count"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Validate checks if the TaskTemplate has valid data.
func (t *TaskTemplate) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if !t.Kind.IsValid() {
		return NewValidationError("kind", string(t.Kind), ErrInvalidTaskKind)
	}
	if t.Title == "" {
		return NewValidationError("title", "cannot be empty", ErrEmptyContent)
	}
	if t.Description == "" {
		return NewValidationError("description", "cannot be empty", ErrEmptyContent)
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", string(t.Category), ErrInvalidSkillCategory)
	}
	if t.PromptKind != "" && !t.PromptKind.IsValid() {
		return NewValidationError("prompt_kind", string(t.PromptKind), ErrInvalidPromptKind)
	}
	return nil
}
