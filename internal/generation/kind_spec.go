package generation

import "github.com/inkgrove/inkgrove-api/internal/domain"

// KindSpec holds the fixed per-kind generation constants: display name,
// limits, and the reward shape applied to AI-generated tasks.
type KindSpec struct {
	Name          string
	WordLimitText string
	TimeLimitText string
	WordLimitMin  int
	WordLimitMax  int
	TimeLimit     int
	XPReward      int
	AttrReward    int
}

var kindSpecs = map[domain.TaskKind]KindSpec{
	domain.TaskKindInkdot: {
		Name:          "inkdot",
		WordLimitText: "50-100 words",
		TimeLimitText: "5 minutes",
		WordLimitMin:  50,
		WordLimitMax:  100,
		TimeLimit:     5,
		XPReward:      10,
		AttrReward:    1,
	},
	domain.TaskKindInkline: {
		Name:          "inkline",
		WordLimitText: "200-400 words",
		TimeLimitText: "20 minutes",
		WordLimitMin:  200,
		WordLimitMax:  400,
		TimeLimit:     20,
		XPReward:      30,
		AttrReward:    2,
	},
}

// SpecForKind returns the generation constants for a kind. Unknown kinds
// get the inkdot spec; only inkdot and inkline flow through daily
// generation.
func SpecForKind(kind domain.TaskKind) KindSpec {
	if spec, ok := kindSpecs[kind]; ok {
		return spec
	}
	return kindSpecs[domain.TaskKindInkdot]
}

// categoryDefinitions is the one-line definition per skill category
// embedded in generation prompts.
var categoryDefinitions = []struct {
	Category   domain.SkillCategory
	Definition string
}{
	{domain.SkillCharacter, "characterization: portrayal, appearance, psychology, telling detail"},
	{domain.SkillConflict, "conflict: tension design, dilemmas, stakes"},
	{domain.SkillScene, "scene: environment, atmosphere, sensory texture"},
	{domain.SkillDialogue, "dialogue: lines, subtext, voice"},
	{domain.SkillRhythm, "rhythm: narrative pacing, speed control, negative space"},
	{domain.SkillStyle, "style: diction, rhetoric, imagery"},
}
