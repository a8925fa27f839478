// Package service implements the application-level operations over the
// store and generation layers: the task lifecycle (start, draft, submit,
// evaluate, reward) and the daily/weekly challenge tracking. Services own
// orchestration and transactions; encoding stays with the API layer and
// SQL with the stores.
package service
