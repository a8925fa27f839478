package generation

import "errors"

// Common errors returned by the generation package.
var (
	// ErrGenerationFailed is returned when task generation fails for any
	// general reason.
	ErrGenerationFailed = errors.New("failed to generate tasks")

	// ErrMalformedResponse is returned when the model response contains no
	// well-formed structure of the expected shape. Parsing fails closed:
	// a structural mismatch never yields partial data.
	ErrMalformedResponse = errors.New("malformed response from language model")

	// ErrContentBlocked is returned when the model blocks the content due
	// to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary errors that might
	// resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
