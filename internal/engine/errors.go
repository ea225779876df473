package engine

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
)

// CycleError — ребро prereq → task замкнуло бы цикл.
type CycleError struct {
	TaskID       uuid.UUID   // task, для которого добавлялись рёбра
	Prerequisite uuid.UUID   // предпосылка, создающая цикл
	Path         []uuid.UUID // цикл от TaskID обратно к TaskID
	Err          error       // базовая ошибка
}

// Error реализует интерфейс error.
func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = id.String()
	}
	return e.Err.Error() + ": " + strings.Join(parts, " -> ")
}

// Unwrap возвращает базовую ошибку.
func (e *CycleError) Unwrap() error {
	return e.Err
}

// NewCycleError создаёт CycleError поверх domain.ErrCycleDetected.
func NewCycleError(taskID, prereqID uuid.UUID, path []uuid.UUID) *CycleError {
	return &CycleError{
		TaskID:       taskID,
		Prerequisite: prereqID,
		Path:         path,
		Err:          domain.ErrCycleDetected,
	}
}
