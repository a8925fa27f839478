// Package api contains the HTTP handlers, request/response models, and
// error mapping for the service's REST surface: today's task pool, the
// attempt lifecycle, challenge tracking, and the scheduler's operational
// endpoints.
package api
