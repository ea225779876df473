package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// IDGenerator — источник идентификаторов task.
type IDGenerator func() uuid.UUID

// Store — хранилище task в памяти.
type Store struct {
	tasks map[uuid.UUID]*domain.Task
	newID IDGenerator
	seq   int64
}

// New создаёт пустой Store. Если newID == nil, используется uuid.New.
func New(newID IDGenerator) *Store {
	if newID == nil {
		newID = uuid.New
	}
	return &Store{
		tasks: make(map[uuid.UUID]*domain.Task),
		newID: newID,
	}
}

// Create создаёт task в статусе pending и возвращает его ID.
//
// Проверяет только сам spec; зависимости проверяет Dependency Graph.
func (s *Store) Create(spec domain.TaskSpec, now time.Time) (uuid.UUID, error) {
	if err := spec.Validate(); err != nil {
		return uuid.Nil, err
	}

	id := s.newID()
	if _, exists := s.tasks[id]; exists {
		return uuid.Nil, fmt.Errorf("%w: duplicate id %s", domain.ErrInvalidSpec, id)
	}

	s.seq++
	task := &domain.Task{
		ID:                id,
		Seq:               s.seq,
		Title:             spec.Title,
		Description:       spec.Description,
		Category:          spec.CategoryOrDefault(),
		Priority:          spec.Priority,
		EffectivePriority: spec.Priority,
		Status:            domain.TaskStatusPending,
		Payload:           spec.Payload,
		Schedule:          spec.Schedule,
		CreatedAt:         now,
		MaxRetries:        spec.MaxRetries,
	}
	if spec.TTL != nil {
		expiresAt := now.Add(*spec.TTL)
		task.ExpiresAt = &expiresAt
	}
	task.Dependencies = append(task.Dependencies, spec.Dependencies...)

	// храним собственную копию, spec остаётся у вызывающего
	stored := task.Clone()
	s.tasks[id] = &stored

	return id, nil
}

// Get возвращает копию task.
func (s *Store) Get(id uuid.UUID) (domain.Task, bool) {
	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, false
	}
	return task.Clone(), true
}

// Has проверяет, существует ли task.
func (s *Store) Has(id uuid.UUID) bool {
	_, ok := s.tasks[id]
	return ok
}

// Status возвращает текущий статус task без копирования записи.
func (s *Store) Status(id uuid.UUID) (domain.TaskStatus, bool) {
	task, ok := s.tasks[id]
	if !ok {
		return "", false
	}
	return task.Status, true
}

// UpdateStatus переводит task в новый статус.
//
// Финальные статусы проставляют FinishedAt и снимают отметку о lease.
func (s *Store) UpdateStatus(id uuid.UUID, status domain.TaskStatus, now time.Time) error {
	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownTask, id)
	}
	if !task.Status.CanTransitionTo(status) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, task.Status, status)
	}

	if status.IsTerminal() {
		task.MarkFinished(status, now)
		return nil
	}
	task.Status = status
	return nil
}

// Mutate применяет fn к копии task и сохраняет результат.
//
// Если fn вернул ошибку или сменил статус недопустимым переходом,
// запись остаётся без изменений. ID и Seq изменить нельзя.
func (s *Store) Mutate(id uuid.UUID, fn func(*domain.Task) error) (domain.Task, error) {
	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, id)
	}

	draft := task.Clone()
	if err := fn(&draft); err != nil {
		return domain.Task{}, err
	}
	if draft.Status != task.Status && !task.Status.CanTransitionTo(draft.Status) {
		return domain.Task{}, fmt.Errorf("%w: %s → %s", domain.ErrInvalidTransition, task.Status, draft.Status)
	}
	draft.ID = task.ID
	draft.Seq = task.Seq

	*task = draft
	return task.Clone(), nil
}

// Discard удаляет task, который ещё не был опубликован.
// Используется только для отката неудачного Submit.
func (s *Store) Discard(id uuid.UUID) {
	delete(s.tasks, id)
}

// List возвращает копии task, для которых pred вернул true, в порядке отправки.
// pred == nil возвращает все task.
func (s *Store) List(pred func(*domain.Task) bool) []domain.Task {
	result := make([]domain.Task, 0)
	for _, task := range s.tasks {
		if pred != nil && !pred(task) {
			continue
		}
		result = append(result, task.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})
	return result
}

// Each вызывает fn для каждого task без копирования. fn не должен менять task.
func (s *Store) Each(fn func(*domain.Task)) {
	for _, task := range s.tasks {
		fn(task)
	}
}

// ByStatus возвращает предикат для List по набору статусов.
func ByStatus(statuses ...domain.TaskStatus) func(*domain.Task) bool {
	return func(t *domain.Task) bool {
		for _, s := range statuses {
			if t.Status == s {
				return true
			}
		}
		return false
	}
}

// ByCategory возвращает предикат для List по категории.
func ByCategory(category string) func(*domain.Task) bool {
	return func(t *domain.Task) bool {
		return t.Category == category
	}
}

// And объединяет предикаты. nil-предикаты пропускаются.
func And(preds ...func(*domain.Task) bool) func(*domain.Task) bool {
	return func(t *domain.Task) bool {
		for _, p := range preds {
			if p != nil && !p(t) {
				return false
			}
		}
		return true
	}
}
