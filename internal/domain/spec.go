package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskSpec — параметры отправки новой task.
type TaskSpec struct {
	// Title — обязательное название.
	Title string `json:"title"`

	// Description — описание (опционально).
	Description string `json:"description,omitempty"`

	// Category — категория для выбора executor'а (default: "default").
	Category string `json:"category,omitempty"`

	// Priority — приоритет (больше = срочнее).
	Priority int `json:"priority"`

	// Dependencies — ID задач-предпосылок.
	Dependencies []uuid.UUID `json:"dependencies,omitempty"`

	// TTL — время жизни с момента отправки. Nil — без ограничения.
	// TTL = 0 означает, что task истекает сразу.
	TTL *time.Duration `json:"ttl,omitempty"`

	// MaxRetries — сколько раз task можно вернуть в очередь после Fail.
	MaxRetries int `json:"max_retries"`

	// Payload — входные данные для executor'а.
	Payload map[string]any `json:"payload,omitempty"`

	// Schedule — cron-выражение (опционально).
	Schedule string `json:"schedule,omitempty"`
}

// Validate проверяет поля, которые не зависят от состояния планировщика.
func (s *TaskSpec) Validate() error {
	if strings.TrimSpace(s.Title) == "" {
		return NewSpecError("title", "title must not be empty")
	}
	if s.MaxRetries < 0 {
		return NewSpecError("max_retries", "max_retries must not be negative")
	}
	if s.TTL != nil && *s.TTL < 0 {
		return NewSpecError("ttl", "ttl must not be negative")
	}
	seen := make(map[uuid.UUID]struct{}, len(s.Dependencies))
	for _, dep := range s.Dependencies {
		if dep == uuid.Nil {
			return NewSpecError("dependencies", "dependency id must not be nil")
		}
		if _, dup := seen[dep]; dup {
			return NewSpecError("dependencies", "duplicate dependency "+dep.String())
		}
		seen[dep] = struct{}{}
	}
	return nil
}

// CategoryOrDefault возвращает категорию или DefaultCategory.
func (s *TaskSpec) CategoryOrDefault() string {
	if s.Category == "" {
		return DefaultCategory
	}
	return s.Category
}
