// Package generation contains the task-pool generation core: the coverage
// balancer, the template selector, the AI candidate generator, the
// submission evaluator, and the quota policy engine that drives them.
//
// The external language model is reached only through the TextGenerator
// interface, keeping the generation logic testable without network access.
package generation
