package domain

import "errors"

// Ошибки планировщика.
var (
	// ErrInvalidSpec — некорректные параметры отправки task.
	ErrInvalidSpec = errors.New("invalid task spec")

	// ErrCycleDetected — зависимость создала бы цикл.
	ErrCycleDetected = errors.New("dependency cycle detected")

	// ErrUnknownTask — task с таким ID не существует.
	ErrUnknownTask = errors.New("unknown task")

	// ErrNotLeased — Complete/Fail для task без активного lease.
	ErrNotLeased = errors.New("task is not leased")

	// ErrNoReadyTask — в очереди нет готовых задач. Это не сбой, а пустая очередь.
	ErrNoReadyTask = errors.New("no ready task")

	// ErrInvalidTransition — недопустимый переход статуса.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// SpecError — ошибка валидации TaskSpec с указанием поля.
type SpecError struct {
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *SpecError) Error() string {
	if e.Field != "" {
		return e.Err.Error() + ": " + e.Field + ": " + e.Message
	}
	return e.Err.Error() + ": " + e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *SpecError) Unwrap() error {
	return e.Err
}

// NewSpecError создаёт SpecError поверх ErrInvalidSpec.
func NewSpecError(field, message string) *SpecError {
	return &SpecError{
		Field:   field,
		Message: message,
		Err:     ErrInvalidSpec,
	}
}
