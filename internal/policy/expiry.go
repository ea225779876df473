package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// TaskStore — часть Task Store, нужная для вычистки истёкших task.
type TaskStore interface {
	List(pred func(*domain.Task) bool) []domain.Task
	UpdateStatus(id uuid.UUID, status domain.TaskStatus, now time.Time) error
}

// ExpiryPolicy решает, истёк ли TTL task.
type ExpiryPolicy struct {
	store TaskStore
}

// NewExpiryPolicy создаёт ExpiryPolicy поверх Task Store.
func NewExpiryPolicy(store TaskStore) *ExpiryPolicy {
	return &ExpiryPolicy{store: store}
}

// Expired возвращает true, если task не в финальном статусе
// и ExpiresAt <= now.
func (p *ExpiryPolicy) Expired(task *domain.Task, now time.Time) bool {
	return !task.IsFinished() && task.IsExpired(now)
}

// SweepExpired переводит в EXPIRED все нефинальные task с ExpiresAt <= now
// и возвращает их ID в порядке отправки.
//
// before вызывается для каждого task до смены статуса (например, чтобы
// снять lease). before может быть nil.
func (p *ExpiryPolicy) SweepExpired(now time.Time, before func(domain.Task)) ([]uuid.UUID, error) {
	expired := p.store.List(func(t *domain.Task) bool {
		return p.Expired(t, now)
	})

	ids := make([]uuid.UUID, 0, len(expired))
	for _, task := range expired {
		if before != nil {
			before(task)
		}
		if err := p.store.UpdateStatus(task.ID, domain.TaskStatusExpired, now); err != nil {
			return ids, fmt.Errorf("expire task %s: %w", task.ID, err)
		}
		ids = append(ids, task.ID)
	}

	return ids, nil
}
