package generation

import "context"

// Feature tags distinguish prompt families for routing and metering in the
// adapter. They are opaque to this package beyond their identity.
type Feature string

const (
	// FeatureTaskGenerate is the daily task candidate generation prompt.
	FeatureTaskGenerate Feature = "ink_task_generate"

	// FeatureTaskEvaluate is the submission evaluation prompt.
	FeatureTaskEvaluate Feature = "ink_task_evaluate"

	// FeatureWeeklyEvaluate is the weekly challenge evaluation prompt.
	FeatureWeeklyEvaluate Feature = "ink_weekly_evaluate"
)

// Message is one turn of a generation request.
type Message struct {
	Role    string
	Content string
}

// Options carries per-request generation parameters.
type Options struct {
	Temperature float32
}

// TextGenerator defines the interface to the external text-generation
// service. This interface is the boundary between the generation core and
// the LLM adapter.
type TextGenerator interface {
	// Generate sends the messages to the model and returns its raw text
	// response. Implementations are expected to bound the call themselves
	// (retries, deadlines); callers treat a returned error as a failed
	// generation attempt, not a fatal condition.
	Generate(ctx context.Context, feature Feature, messages []Message, opts Options) (string, error)
}
