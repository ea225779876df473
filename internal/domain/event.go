package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType — тип события жизненного цикла task.
type EventType string

// Типы событий.
const (
	EventTaskSubmitted EventType = "task.submitted"
	EventTaskReady     EventType = "task.ready"
	EventTaskLeased    EventType = "task.leased"
	EventTaskCompleted EventType = "task.completed"
	EventTaskRetried   EventType = "task.retried"
	EventTaskFailed    EventType = "task.failed"
	EventTaskExpired   EventType = "task.expired"
)

// Event — событие, которое планировщик отдаёт наружу после операции.
type Event struct {
	Type     EventType  `json:"type"`
	TaskID   uuid.UUID  `json:"task_id"`
	WorkerID string     `json:"worker_id,omitempty"`
	Status   TaskStatus `json:"status"`
	Attempt  int        `json:"attempt"`
	Reason   string     `json:"reason,omitempty"`
	At       time.Time  `json:"at"`
}

// NewEvent создаёт событие по текущему состоянию task.
func NewEvent(typ EventType, task *Task, at time.Time) Event {
	return Event{
		Type:     typ,
		TaskID:   task.ID,
		WorkerID: task.LeaseOwner,
		Status:   task.Status,
		Attempt:  task.RetryCount,
		At:       at,
	}
}
