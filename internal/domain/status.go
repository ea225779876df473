package domain

// TaskStatus — статус task в планировщике.
//
// Жизненный цикл:
//
//	PENDING (blocked) → READY (в очереди) → LEASED → COMPLETED
//	                                              ↘ PENDING (retry, обратно в очередь)
//	                                              ↘ FAILED (retry исчерпаны)
//	PENDING / READY / LEASED → EXPIRED (истёк TTL)
type TaskStatus string

const (
	// TaskStatusPending — task ждёт завершения зависимостей (или возвращён на retry).
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusReady — все зависимости выполнены, task стоит в очереди.
	TaskStatusReady TaskStatus = "ready"

	// TaskStatusLeased — task выдан воркеру.
	TaskStatusLeased TaskStatus = "leased"

	// TaskStatusCompleted — task успешно завершён.
	TaskStatusCompleted TaskStatus = "completed"

	// TaskStatusFailed — task завершился с ошибкой после всех retry.
	TaskStatusFailed TaskStatus = "failed"

	// TaskStatusExpired — TTL истёк раньше, чем task был выполнен.
	TaskStatusExpired TaskStatus = "expired"
)

// transitions — допустимые переходы между статусами.
var transitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending: {TaskStatusReady, TaskStatusExpired},
	TaskStatusReady:   {TaskStatusLeased, TaskStatusExpired},
	TaskStatusLeased:  {TaskStatusCompleted, TaskStatusPending, TaskStatusFailed, TaskStatusExpired},
}

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusExpired:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что статус известен.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusReady, TaskStatusLeased,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo проверяет, разрешён ли переход s → next.
// Единственный переход "назад" — LEASED → PENDING при retry.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// String возвращает строковое представление TaskStatus.
func (s TaskStatus) String() string {
	return string(s)
}

// ParseTaskStatus парсит строку в TaskStatus.
// Возвращает false для неизвестного значения.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	status := TaskStatus(s)
	return status, status.IsValid()
}

// AllStatuses возвращает все статусы в порядке жизненного цикла.
func AllStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusPending,
		TaskStatusReady,
		TaskStatusLeased,
		TaskStatusCompleted,
		TaskStatusFailed,
		TaskStatusExpired,
	}
}
