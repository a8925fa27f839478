// Package events provides the in-process progress event channel between
// the task lifecycle manager and the challenge tracker.
package events
