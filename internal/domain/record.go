package domain

import (
	"encoding/json"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// RecordStatus is the state of a task attempt record. Transitions are
// linear: draft -> submitted -> completed, with no backward moves.
type RecordStatus string

const (
	RecordStatusDraft     RecordStatus = "draft"
	RecordStatusSubmitted RecordStatus = "submitted"
	RecordStatusCompleted RecordStatus = "completed"
)

// IsValid reports whether the status is a known record status.
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusDraft, RecordStatusSubmitted, RecordStatusCompleted:
		return true
	}
	return false
}

// TaskRecord is one user's work on one DailyTask. At most one non-completed
// record may exist per task; once completed, a fresh start creates a new
// record.
type TaskRecord struct {
	ID          uuid.UUID       `json:"id"`
	TaskID      uuid.UUID       `json:"task_id"`
	Kind        TaskKind        `json:"kind"`
	Status      RecordStatus    `json:"status"`
	Content     string          `json:"content"`
	WordCount   int             `json:"word_count"`
	TimeSpent   int             `json:"time_spent"`
	Score       *int            `json:"score,omitempty"`
	AIFeedback  json.RawMessage `json:"ai_feedback,omitempty"`
	XPEarned    int             `json:"xp_earned"`
	AttrEarned  int             `json:"attr_earned"`
	Category    SkillCategory   `json:"category,omitempty"`
	SubmittedAt *time.Time      `json:"submitted_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewTaskRecord creates a fresh draft record for the given task.
func NewTaskRecord(taskID uuid.UUID, kind TaskKind) *TaskRecord {
	now := time.Now().UTC()
	return &TaskRecord{
		ID:        uuid.New(),
		TaskID:    taskID,
		Kind:      kind,
		Status:    RecordStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WordCount counts the content runes that remain after stripping whitespace
// and punctuation. Rune-based counting treats CJK text and space-delimited
// text uniformly.
func WordCount(content string) int {
	n := 0
	for _, r := range content {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			continue
		}
		n++
	}
	return n
}
