package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnknownCategory — нет executor'а для категории task.
	ErrUnknownCategory = errors.New("unknown task category")

	// ErrWorkerStopped — воркер остановлен во время выполнения task.
	ErrWorkerStopped = errors.New("worker stopped")

	// ErrHTTPRequest — HTTP-запрос завершился ошибкой.
	ErrHTTPRequest = errors.New("http request failed")

	// ErrInvalidPayload — payload task не подходит executor'у.
	ErrInvalidPayload = errors.New("invalid payload")
)
