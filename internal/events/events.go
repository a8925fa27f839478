package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/inkgrove/inkgrove-api/internal/domain"
)

// ProgressEventType identifies what a lifecycle event reports.
type ProgressEventType string

const (
	// EventTaskComplete fires once when any task reaches completed.
	EventTaskComplete ProgressEventType = "task_complete"

	// EventInkdotComplete fires when a completed task is an inkdot.
	EventInkdotComplete ProgressEventType = "inkdot_complete"

	// EventInklineComplete fires when a completed task is an inkline.
	EventInklineComplete ProgressEventType = "inkline_complete"

	// EventWordAdded carries the word count of a completed submission.
	EventWordAdded ProgressEventType = "word_added"

	// EventScoreReceived carries an evaluation score.
	EventScoreReceived ProgressEventType = "score_received"
)

// ProgressEvent is one unit of lifecycle progress published by the task
// lifecycle manager and consumed by the challenge tracker. Value carries
// the magnitude for accumulating types (word_added, score_received) and is
// 1 for the completion types.
type ProgressEvent struct {
	ID        uuid.UUID
	Type      ProgressEventType
	TaskID    uuid.UUID
	Kind      domain.TaskKind
	Value     int
	CreatedAt time.Time
}

// NewProgressEvent creates a ProgressEvent with a fresh ID.
func NewProgressEvent(eventType ProgressEventType, taskID uuid.UUID, kind domain.TaskKind, value int) *ProgressEvent {
	return &ProgressEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		Kind:      kind,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
}

// Handler processes progress events.
type Handler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ProgressEvent) error
}

// Emitter publishes progress events without knowledge of the handlers.
type Emitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// All handlers run even when one fails; the first error is returned.
	EmitEvent(ctx context.Context, event *ProgressEvent) error
}
