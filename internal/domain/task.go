package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// DefaultCategory — категория task, если она не указана при отправке.
const DefaultCategory = "default"

// Task — единица работы в планировщике.
//
// Task создаётся через Scheduler.Submit и больше никогда не удаляется:
// задачи в финальных статусах остаются в Task Store для истории.
//
// Task выполняется воркером, который получил на него lease.
type Task struct {
	// ID — уникальный идентификатор task.
	ID uuid.UUID `json:"id"`

	// Seq — порядковый номер отправки (монотонно растёт).
	Seq int64 `json:"seq"`

	// Title — короткое название задачи.
	Title string `json:"title"`

	// Description — описание задачи (опционально).
	Description string `json:"description,omitempty"`

	// Category — категория, по ней воркер выбирает executor.
	Category string `json:"category"`

	// Priority — приоритет при отправке (больше = срочнее).
	Priority int `json:"priority"`

	// EffectivePriority — приоритет в очереди с учётом штрафа за retry.
	// EffectivePriority = Priority - RetryCount.
	EffectivePriority int `json:"effective_priority"`

	// Status — текущий статус task.
	Status TaskStatus `json:"status"`

	// Dependencies — ID задач, которые должны завершиться раньше этой.
	Dependencies []uuid.UUID `json:"dependencies,omitempty"`

	// Payload — входные данные для executor'а.
	Payload map[string]any `json:"payload,omitempty"`

	// Schedule — cron-выражение (информационное, см. Scheduler.NextRun).
	Schedule string `json:"schedule,omitempty"`

	// CreatedAt — время отправки.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt — дедлайн TTL. Nil — task не истекает.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// LeaseOwner — воркер, который держит lease.
	LeaseOwner string `json:"lease_owner,omitempty"`

	// LeasedAt — время получения lease.
	LeasedAt *time.Time `json:"leased_at,omitempty"`

	// FinishedAt — время перехода в финальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// RetryCount — сколько раз task уже возвращался в очередь.
	RetryCount int `json:"retry_count"`

	// MaxRetries — максимальное число retry.
	MaxRetries int `json:"max_retries"`

	// LastError — причина последнего Fail.
	LastError string `json:"last_error,omitempty"`
}

// Clone возвращает глубокую копию task.
// Store и Scheduler наружу отдают только копии.
func (t *Task) Clone() Task {
	cp := *t
	cp.Dependencies = slices.Clone(t.Dependencies)
	cp.Payload = maps.Clone(t.Payload)
	cp.ExpiresAt = cloneTime(t.ExpiresAt)
	cp.LeasedAt = cloneTime(t.LeasedAt)
	cp.FinishedAt = cloneTime(t.FinishedAt)
	return cp
}

// IsFinished возвращает true, если task в финальном статусе.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}

// IsExpired проверяет, истёк ли TTL к моменту now.
// Граница включительная: ExpiresAt == now уже считается истёкшим.
func (t *Task) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}

// CanRetry проверяет, можно ли сделать ещё одну попытку.
func (t *Task) CanRetry() bool {
	return t.RetryCount < t.MaxRetries
}

// Duration возвращает время от отправки до финального статуса.
func (t *Task) Duration() time.Duration {
	if t.FinishedAt == nil {
		return 0
	}
	return t.FinishedAt.Sub(t.CreatedAt)
}

// MarkLeased выдаёт task воркеру.
func (t *Task) MarkLeased(workerID string, now time.Time) {
	t.Status = TaskStatusLeased
	t.LeaseOwner = workerID
	t.LeasedAt = &now
}

// ClearLease снимает отметку о lease.
func (t *Task) ClearLease() {
	t.LeaseOwner = ""
	t.LeasedAt = nil
}

// MarkFinished переводит task в финальный статус.
func (t *Task) MarkFinished(status TaskStatus, now time.Time) {
	t.Status = status
	t.FinishedAt = &now
	t.ClearLease()
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
