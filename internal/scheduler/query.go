package scheduler

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/lease"
	"github.com/shaiso/Taskmill/internal/store"
)

// ListFilter — фильтр для List.
type ListFilter struct {
	Status   domain.TaskStatus // пусто — любой статус
	Category string            // пусто — любая категория
	Limit    int               // 0 — без ограничения
}

// DependencyInfo — состояние зависимостей task.
type DependencyInfo struct {
	// Prerequisites — ещё не выполненные предпосылки.
	Prerequisites []uuid.UUID `json:"prerequisites"`

	// Dependents — задачи, которые ждут этот task.
	Dependents []uuid.UUID `json:"dependents"`

	// Blocked — предпосылка завершилась неудачей, task никогда не станет ready.
	Blocked bool `json:"blocked"`

	// Queued — task стоит в очереди на выдачу.
	Queued bool `json:"queued"`
}

// Get возвращает копию task.
func (s *Scheduler) Get(taskID uuid.UUID) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.store.Get(taskID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, taskID)
	}
	return task, nil
}

// List возвращает копии task в порядке отправки.
func (s *Scheduler) List(filter ListFilter) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	var preds []func(*domain.Task) bool
	if filter.Status != "" {
		preds = append(preds, store.ByStatus(filter.Status))
	}
	if filter.Category != "" {
		preds = append(preds, store.ByCategory(filter.Category))
	}

	tasks := s.store.List(store.And(preds...))
	if filter.Limit > 0 && len(tasks) > filter.Limit {
		tasks = tasks[:filter.Limit]
	}
	return tasks
}

// Dependencies возвращает состояние зависимостей task.
func (s *Scheduler) Dependencies(taskID uuid.UUID) (DependencyInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(taskID) {
		return DependencyInfo{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, taskID)
	}
	return DependencyInfo{
		Prerequisites: s.graph.Prerequisites(taskID),
		Dependents:    s.graph.Dependents(taskID),
		Blocked:       s.graph.IsBlocked(taskID),
		Queued:        s.queue.Contains(taskID),
	}, nil
}

// ActiveLeases возвращает активные lease воркера.
// Пустой workerID — lease всех воркеров.
func (s *Scheduler) ActiveLeases(workerID string) []lease.Lease {
	s.mu.Lock()
	defer s.mu.Unlock()

	if workerID == "" {
		return s.leases.Active()
	}

	ids := s.leases.ActiveFor(workerID)
	result := make([]lease.Lease, 0, len(ids))
	for _, id := range ids {
		if l, ok := s.leases.Get(id); ok {
			result = append(result, l)
		}
	}
	return result
}

// NextRun вычисляет следующий запуск task по его cron-выражению.
func (s *Scheduler) NextRun(taskID uuid.UUID, from time.Time) (time.Time, error) {
	task, err := s.Get(taskID)
	if err != nil {
		return time.Time{}, err
	}
	if task.Schedule == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoSchedule, taskID)
	}
	return NextRunAfter(task.Schedule, from)
}

// Snapshot возвращает копии всех task для экспорта.
func (s *Scheduler) Snapshot() []domain.Task {
	return s.List(ListFilter{})
}
