package orchestrator

import "errors"

// Ошибки сервиса.
var (
	// ErrNoScheduler — Service создан без планировщика.
	ErrNoScheduler = errors.New("scheduler is required")

	// ErrAlreadyStarted — повторный Start.
	ErrAlreadyStarted = errors.New("service already started")
)
