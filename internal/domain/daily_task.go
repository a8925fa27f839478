package domain

import (
	"time"

	"github.com/google/uuid"
)

// DailyTask is one concrete writing exercise scoped to a calendar date.
// Tasks are created only by the generation policy engine; the claimed and
// completed flags are set exactly once each, monotonically, by the task
// lifecycle manager.
type DailyTask struct {
	ID           uuid.UUID     `json:"id"`
	TaskDate     string        `json:"task_date"` // YYYY-MM-DD
	TemplateID   *uuid.UUID    `json:"template_id,omitempty"`
	Kind         TaskKind      `json:"kind"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Requirements string        `json:"requirements,omitempty"`
	PromptKind   PromptKind    `json:"prompt_kind"`
	TimeLimit    int           `json:"time_limit"`
	WordLimitMin int           `json:"word_limit_min"`
	WordLimitMax int           `json:"word_limit_max"`
	Category     SkillCategory `json:"category"`
	XPReward     int           `json:"xp_reward"`
	AttrReward   int           `json:"attr_reward"`
	Difficulty   Difficulty    `json:"difficulty"`
	Source       TaskSource    `json:"source"`
	Fingerprint  string        `json:"fingerprint"`
	SortOrder    int           `json:"sort_order"`
	IsClaimed    bool          `json:"is_claimed"`
	IsCompleted  bool          `json:"is_completed"`
	CreatedAt    time.Time     `json:"created_at"`
}

// NewDailyTask creates a DailyTask draft for the given date with a fresh ID
// and a fingerprint computed from title and description. The caller fills
// the remaining attributes before validation.
func NewDailyTask(taskDate string, kind TaskKind, title, description string) *DailyTask {
	return &DailyTask{
		ID:          uuid.New(),
		TaskDate:    taskDate,
		Kind:        kind,
		Title:       title,
		Description: description,
		PromptKind:  PromptKindNormal,
		Difficulty:  DifficultyNormal,
		Fingerprint: Fingerprint(title, description),
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks if the DailyTask has valid data.
func (t *DailyTask) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrValidation)
	}
	if t.TaskDate == "" {
		return NewValidationError("task_date", "cannot be empty", ErrValidation)
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
	if !t.PromptKind.IsValid() {
		return NewValidationError("prompt_kind", string(t.PromptKind), ErrInvalidPromptKind)
	}
	if !t.Category.IsValid() {
		return NewValidationError("category", string(t.Category), ErrInvalidSkillCategory)
	}
	if t.Source != TaskSourcePreset && t.Source != TaskSourceAIGenerated {
		return NewValidationError("source", string(t.Source), ErrValidation)
	}
	if t.Fingerprint == "" {
		return NewValidationError("fingerprint", "cannot be empty", ErrValidation)
	}
	return nil
}
