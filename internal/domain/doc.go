// Package domain defines the core business entities and errors for the
// daily task-pool engine: task templates, daily tasks, attempt records,
// and daily/weekly challenges.
package domain
