// Package scheduler drives the engine's periodic triggers: the midnight
// retention sweep, the post-midnight generation run, and the short-cadence
// backfill poll. It also exposes manual generation and a status snapshot
// for the operations endpoints.
package scheduler
