// Package gemini implements the generation.TextGenerator interface over
// Google's Gemini API. The adapter owns request shaping, retry with
// exponential backoff, and mapping of API failures onto the generation
// package's error taxonomy; prompt construction and response parsing stay
// with the callers.
package gemini
