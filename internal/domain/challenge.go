package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChallengeType is a daily challenge archetype.
type ChallengeType string

const (
	// ChallengeTaskCount asks for N completed inkdot tasks.
	ChallengeTaskCount ChallengeType = "task_count"

	// ChallengeWordCount asks for N words written across the day.
	ChallengeWordCount ChallengeType = "word_count"

	// ChallengeInklineComplete asks for one completed inkline task.
	ChallengeInklineComplete ChallengeType = "inkline_complete"

	// ChallengeScoreAbove asks for one evaluation of 80 or higher.
	ChallengeScoreAbove ChallengeType = "score_above"
)

// IsValid reports whether the challenge type is a known archetype.
func (t ChallengeType) IsValid() bool {
	switch t {
	case ChallengeTaskCount, ChallengeWordCount, ChallengeInklineComplete, ChallengeScoreAbove:
		return true
	}
	return false
}

// DailyChallenge is the single challenge for one calendar date. Progress
// accumulates from lifecycle events; IsCompleted is set once and never
// cleared.
type DailyChallenge struct {
	ID            uuid.UUID     `json:"id"`
	ChallengeDate string        `json:"challenge_date"` // YYYY-MM-DD
	Type          ChallengeType `json:"type"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	TargetValue   int           `json:"target_value"`
	CurrentValue  int           `json:"current_value"`
	XPReward      int           `json:"xp_reward"`
	IsCompleted   bool          `json:"is_completed"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// WeeklyChallenge is the long-form challenge for one ISO week, derived from
// an inkchapter template. It holds at most one linked submission.
type WeeklyChallenge struct {
	ID           uuid.UUID `json:"id"`
	WeekStart    string    `json:"week_start"` // Monday, YYYY-MM-DD
	WeekEnd      string    `json:"week_end"`   // Sunday, YYYY-MM-DD
	Title        string    `json:"title"`
	Theme        string    `json:"theme"`
	Description  string    `json:"description"`
	Requirements string    `json:"requirements,omitempty"`
	WordLimitMin int       `json:"word_limit_min"`
	WordLimitMax int       `json:"word_limit_max"`
	XPReward     int       `json:"xp_reward"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// WeeklySubmission is a user's submission against a weekly challenge.
type WeeklySubmission struct {
	ID          uuid.UUID       `json:"id"`
	ChallengeID uuid.UUID       `json:"challenge_id"`
	Status      RecordStatus    `json:"status"`
	Content     string          `json:"content"`
	WordCount   int             `json:"word_count"`
	Score       *int            `json:"score,omitempty"`
	AIFeedback  []byte          `json:"ai_feedback,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// WeekStartOf returns the Monday of the ISO week containing t, in t's
// location, formatted YYYY-MM-DD.
func WeekStartOf(t time.Time) string {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday belongs to the week that started the prior Monday
	}
	monday := t.AddDate(0, 0, -(weekday - 1))
	return monday.Format("2006-01-02")
}

// WeekEndOf returns the Sunday of the ISO week containing t, formatted
// YYYY-MM-DD.
func WeekEndOf(t time.Time) string {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	sunday := t.AddDate(0, 0, 7-weekday)
	return sunday.Format("2006-01-02")
}
