package scheduler

import "errors"

var (
	// ErrNoSchedule — у task нет cron-выражения.
	ErrNoSchedule = errors.New("task has no schedule")

	// ErrEmptyWorkerID — Lease без идентификатора воркера.
	ErrEmptyWorkerID = errors.New("worker id must not be empty")
)
