package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/scheduler"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// GetStats возвращает счётчики планировщика.
// GET /api/v1/stats
func (h *Handler) GetStats(w http.ResponseWriter, _ *http.Request) {
	Success(w, StatsFromDomain(h.scheduler.Stats()))
}

// ListTasks возвращает список task с фильтрацией.
// GET /api/v1/tasks?status=...&category=...&limit=...
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := scheduler.ListFilter{Limit: defaultListLimit}
	query := r.URL.Query()

	if s := query.Get("status"); s != "" {
		status, ok := domain.ParseTaskStatus(s)
		if !ok {
			BadRequest(w, "invalid status")
			return
		}
		filter.Status = status
	}

	filter.Category = query.Get("category")

	if s := query.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}

	tasks := h.scheduler.List(filter)

	result := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		result[i] = TaskFromDomain(task)
	}

	List(w, result, len(result))
}

// GetTask возвращает task с зависимостями и следующим запуском.
// GET /api/v1/tasks/{id}
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.scheduler.Get(id)
	if HandleSchedulerError(w, h.logger, err, "task not found") {
		return
	}

	deps, err := h.scheduler.Dependencies(id)
	if HandleSchedulerError(w, h.logger, err, "task not found") {
		return
	}

	var nextRun *time.Time
	if task.Schedule != "" {
		next, err := h.scheduler.NextRun(id, h.now())
		if err != nil {
			h.logger.Warn("next run calculation failed", "task_id", id, "error", err)
		} else {
			nextRun = &next
		}
	}

	Success(w, TaskDetailFromDomain(task, deps, nextRun))
}

// ListLeases возвращает все активные lease.
// GET /api/v1/leases
func (h *Handler) ListLeases(w http.ResponseWriter, _ *http.Request) {
	h.writeLeases(w, "")
}

// ListWorkerLeases возвращает активные lease воркера.
// GET /api/v1/workers/{id}/leases
func (h *Handler) ListWorkerLeases(w http.ResponseWriter, r *http.Request) {
	workerID := r.PathValue("id")
	if workerID == "" {
		BadRequest(w, "worker id is required")
		return
	}
	h.writeLeases(w, workerID)
}

func (h *Handler) writeLeases(w http.ResponseWriter, workerID string) {
	leases := h.scheduler.ActiveLeases(workerID)
	now := h.now()

	result := make([]LeaseResponse, len(leases))
	for i, l := range leases {
		result[i] = LeaseFromDomain(l, now)
	}

	List(w, result, len(result))
}
