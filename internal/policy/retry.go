package policy

import (
	"fmt"
	"time"

	"github.com/shaiso/Taskmill/internal/domain"
)

// Action — решение RetryPolicy.
type Action int

const (
	// ActionRetry — вернуть task в очередь.
	ActionRetry Action = iota

	// ActionFail — перевести task в FAILED.
	ActionFail
)

// String возвращает строковое представление Action.
func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// RetryPolicy решает судьбу task после Fail.
//
// OnFailure получает копию task в статусе LEASED и возвращает
// обновлённую копию. Lease к этому моменту уже снят.
type RetryPolicy interface {
	OnFailure(task domain.Task, now time.Time) (Action, domain.Task)
}

// PenaltyRetry — retry со штрафом к приоритету.
//
// Каждая попытка увеличивает RetryCount и опускает task в очереди:
// EffectivePriority = Priority - RetryCount. После MaxRetries
// попыток task переходит в FAILED.
type PenaltyRetry struct{}

// OnFailure реализует RetryPolicy.
func (PenaltyRetry) OnFailure(task domain.Task, now time.Time) (Action, domain.Task) {
	if !task.CanRetry() {
		task.MarkFinished(domain.TaskStatusFailed, now)
		return ActionFail, task
	}

	task.RetryCount++
	task.EffectivePriority = task.Priority - task.RetryCount
	task.Status = domain.TaskStatusPending
	task.ClearLease()
	return ActionRetry, task
}

// NoRetry — любой Fail сразу переводит task в FAILED.
type NoRetry struct{}

// OnFailure реализует RetryPolicy.
func (NoRetry) OnFailure(task domain.Task, now time.Time) (Action, domain.Task) {
	task.MarkFinished(domain.TaskStatusFailed, now)
	return ActionFail, task
}

// ParseRetry возвращает RetryPolicy по имени: "penalty" или "none".
// Пустое имя — PenaltyRetry.
func ParseRetry(name string) (RetryPolicy, error) {
	switch name {
	case "", "penalty":
		return PenaltyRetry{}, nil
	case "none":
		return NoRetry{}, nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q", name)
	}
}
