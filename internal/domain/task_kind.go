package domain

// TaskKind classifies a writing exercise by length and weight.
type TaskKind string

const (
	// TaskKindInkdot is a short drill (50-100 words, 5 minutes).
	TaskKindInkdot TaskKind = "inkdot"

	// TaskKindInkline is a medium exercise (200-400 words, 20 minutes).
	TaskKindInkline TaskKind = "inkline"

	// TaskKindInkchapter is the long-form weekly challenge.
	TaskKindInkchapter TaskKind = "inkchapter"
)

// IsValid reports whether the kind is one of the known task kinds.
func (k TaskKind) IsValid() bool {
	switch k {
	case TaskKindInkdot, TaskKindInkline, TaskKindInkchapter:
		return true
	}
	return false
}

// PromptKind is the presentation mode of a task.
type PromptKind string

const (
	// PromptKindNormal presents the task text unchanged.
	PromptKindNormal PromptKind = "normal"

	// PromptKindPolish asks the writer to turn a dry outline into prose.
	PromptKindPolish PromptKind = "polish"

	// PromptKindContinue asks the writer to continue from an opening.
	PromptKindContinue PromptKind = "continue"
)

// IsValid reports whether the prompt kind is known.
func (p PromptKind) IsValid() bool {
	switch p {
	case PromptKindNormal, PromptKindPolish, PromptKindContinue:
		return true
	}
	return false
}

// SkillCategory is one of the six fixed writing-competency dimensions a
// task targets.
type SkillCategory string

const (
	SkillCharacter SkillCategory = "character"
	SkillConflict  SkillCategory = "conflict"
	SkillScene     SkillCategory = "scene"
	SkillDialogue  SkillCategory = "dialogue"
	SkillRhythm    SkillCategory = "rhythm"
	SkillStyle     SkillCategory = "style"
)

// AllSkillCategories lists the six fixed categories in alphabetical order.
// The order matters to the coverage balancer's tie-break.
var AllSkillCategories = []SkillCategory{
	SkillCharacter,
	SkillConflict,
	SkillDialogue,
	SkillRhythm,
	SkillScene,
	SkillStyle,
}

// IsValid reports whether the category is one of the six fixed categories.
func (c SkillCategory) IsValid() bool {
	switch c {
	case SkillCharacter, SkillConflict, SkillScene, SkillDialogue, SkillRhythm, SkillStyle:
		return true
	}
	return false
}

// TaskSource records how a daily task entered the pool.
type TaskSource string

const (
	// TaskSourcePreset marks tasks drawn from the static template bank.
	TaskSourcePreset TaskSource = "preset"

	// TaskSourceAIGenerated marks tasks produced by the generation adapter.
	TaskSourceAIGenerated TaskSource = "ai_generated"
)

// Difficulty is the coarse difficulty label attached to a task.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)
