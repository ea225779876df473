package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/lease"
	"github.com/shaiso/Taskmill/internal/scheduler"
)

// Stats DTOs

// StatsResponse — ответ со счётчиками планировщика.
type StatsResponse struct {
	Pending          int     `json:"pending"`
	Ready            int     `json:"ready"`
	Leased           int     `json:"leased"`
	Completed        int     `json:"completed"`
	Failed           int     `json:"failed"`
	Expired          int     `json:"expired"`
	Total            int     `json:"total"`
	ActiveWorkers    int     `json:"active_workers"`
	QueueDepth       int     `json:"queue_depth"`
	AvgCompletionSec float64 `json:"avg_completion_sec"`
}

// StatsFromDomain конвертирует domain.QueueStats в StatsResponse.
func StatsFromDomain(s domain.QueueStats) StatsResponse {
	return StatsResponse{
		Pending:          s.Pending,
		Ready:            s.Ready,
		Leased:           s.Leased,
		Completed:        s.Completed,
		Failed:           s.Failed,
		Expired:          s.Expired,
		Total:            s.Total,
		ActiveWorkers:    s.ActiveWorkers,
		QueueDepth:       s.QueueDepth,
		AvgCompletionSec: s.AvgCompletion.Seconds(),
	}
}

// Task DTOs

// TaskResponse — ответ с task.
type TaskResponse struct {
	ID                uuid.UUID      `json:"id"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	Category          string         `json:"category"`
	Priority          int            `json:"priority"`
	EffectivePriority int            `json:"effective_priority"`
	Status            string         `json:"status"`
	Dependencies      []uuid.UUID    `json:"dependencies,omitempty"`
	Payload           map[string]any `json:"payload,omitempty"`
	Schedule          string         `json:"schedule,omitempty"`
	RetryCount        int            `json:"retry_count"`
	MaxRetries        int            `json:"max_retries"`
	LeaseOwner        string         `json:"lease_owner,omitempty"`
	LastError         string         `json:"last_error,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	LeasedAt          *time.Time     `json:"leased_at,omitempty"`
	FinishedAt        *time.Time     `json:"finished_at,omitempty"`
}

// TaskFromDomain конвертирует domain.Task в TaskResponse.
func TaskFromDomain(t domain.Task) TaskResponse {
	return TaskResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Category:          t.Category,
		Priority:          t.Priority,
		EffectivePriority: t.EffectivePriority,
		Status:            t.Status.String(),
		Dependencies:      t.Dependencies,
		Payload:           t.Payload,
		Schedule:          t.Schedule,
		RetryCount:        t.RetryCount,
		MaxRetries:        t.MaxRetries,
		LeaseOwner:        t.LeaseOwner,
		LastError:         t.LastError,
		CreatedAt:         t.CreatedAt,
		ExpiresAt:         t.ExpiresAt,
		LeasedAt:          t.LeasedAt,
		FinishedAt:        t.FinishedAt,
	}
}

// TaskDetailResponse — task с состоянием зависимостей.
type TaskDetailResponse struct {
	TaskResponse

	// Waiting — невыполненные предпосылки.
	Waiting    []uuid.UUID `json:"waiting"`
	Dependents []uuid.UUID `json:"dependents"`
	Blocked    bool        `json:"blocked"`
	Queued     bool        `json:"queued"`

	// NextRun — следующий запуск по Schedule.
	NextRun *time.Time `json:"next_run,omitempty"`
}

// TaskDetailFromDomain собирает TaskDetailResponse.
func TaskDetailFromDomain(t domain.Task, deps scheduler.DependencyInfo, nextRun *time.Time) TaskDetailResponse {
	waiting := deps.Prerequisites
	if waiting == nil {
		waiting = []uuid.UUID{}
	}
	dependents := deps.Dependents
	if dependents == nil {
		dependents = []uuid.UUID{}
	}
	return TaskDetailResponse{
		TaskResponse: TaskFromDomain(t),
		Waiting:      waiting,
		Dependents:   dependents,
		Blocked:      deps.Blocked,
		Queued:       deps.Queued,
		NextRun:      nextRun,
	}
}

// Lease DTOs

// LeaseResponse — ответ с lease.
type LeaseResponse struct {
	TaskID     uuid.UUID `json:"task_id"`
	WorkerID   string    `json:"worker_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	HeldSec    float64   `json:"held_sec"`
}

// LeaseFromDomain конвертирует lease.Lease в LeaseResponse.
func LeaseFromDomain(l lease.Lease, now time.Time) LeaseResponse {
	return LeaseResponse{
		TaskID:     l.TaskID,
		WorkerID:   l.WorkerID,
		AcquiredAt: l.AcquiredAt,
		HeldSec:    now.Sub(l.AcquiredAt).Seconds(),
	}
}

// Snapshot DTOs

// SnapshotCountsResponse — количество task в snapshot по статусам.
// Counts содержит все статусы, в том числе с нулём.
type SnapshotCountsResponse struct {
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// SnapshotCountsFromDomain конвертирует счётчики репозитория в ответ.
func SnapshotCountsFromDomain(counts map[domain.TaskStatus]int) SnapshotCountsResponse {
	resp := SnapshotCountsResponse{Counts: make(map[string]int, len(counts))}
	for _, status := range domain.AllStatuses() {
		n := counts[status]
		resp.Counts[status.String()] = n
		resp.Total += n
	}
	return resp
}
