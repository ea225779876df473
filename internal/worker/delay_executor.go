package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/shaiso/Taskmill/internal/domain"
)

const defaultDelay = time.Second

// DelayExecutor — executor для категории "delay".
//
// Ожидает указанное время. Поддерживает отмену через context.
//
// Config (из task.Payload):
//   - duration (string): Go duration, например "250ms" или "2s"
//   - duration_sec (number): длительность в секундах, если duration не задан
//
// Без обоих ключей ждёт 1s.
type DelayExecutor struct{}

// Execute выполняет задержку.
func (e *DelayExecutor) Execute(ctx context.Context, task *domain.Task) (*ExecutionResult, error) {
	delay, err := delayFromPayload(task.Payload)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return &ExecutionResult{
			Outputs: map[string]any{"delayed": delay.String()},
		}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// delayFromPayload извлекает длительность задержки.
func delayFromPayload(payload map[string]any) (time.Duration, error) {
	if val, ok := payload["duration"]; ok {
		s, ok := val.(string)
		if !ok {
			return 0, fmt.Errorf("%w: duration must be a string, got %T", ErrInvalidPayload, val)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: duration: %v", ErrInvalidPayload, err)
		}
		if d < 0 {
			return 0, fmt.Errorf("%w: duration must not be negative", ErrInvalidPayload)
		}
		return d, nil
	}

	if val, ok := payload["duration_sec"]; ok {
		switch v := val.(type) {
		case float64:
			if v >= 0 {
				return time.Duration(v * float64(time.Second)), nil
			}
		case int:
			if v >= 0 {
				return time.Duration(v) * time.Second, nil
			}
		}
		return 0, fmt.Errorf("%w: duration_sec must be a non-negative number", ErrInvalidPayload)
	}

	return defaultDelay, nil
}
