package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/repo"
)

// GetSnapshotCounts возвращает количество task в последнем snapshot.
// GET /api/v1/snapshot
func (h *Handler) GetSnapshotCounts(w http.ResponseWriter, r *http.Request) {
	if !h.snapshotsEnabled(w) {
		return
	}

	counts, err := h.snapshots.CountByStatus(r.Context())
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, SnapshotCountsFromDomain(counts))
}

// ListSnapshotTasks возвращает task из snapshot с заданным статусом.
// GET /api/v1/snapshot/tasks?status=...&limit=...
func (h *Handler) ListSnapshotTasks(w http.ResponseWriter, r *http.Request) {
	if !h.snapshotsEnabled(w) {
		return
	}

	query := r.URL.Query()
	status, ok := domain.ParseTaskStatus(query.Get("status"))
	if !ok {
		BadRequest(w, "status is required")
		return
	}

	limit := defaultListLimit
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			BadRequest(w, "invalid limit")
			return
		}
		limit = min(n, maxListLimit)
	}

	tasks, err := h.snapshots.ListByStatus(r.Context(), status, limit)
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	result := make([]TaskResponse, len(tasks))
	for i, task := range tasks {
		result[i] = TaskFromDomain(task)
	}

	List(w, result, len(result))
}

// GetSnapshotTask возвращает task из snapshot.
// GET /api/v1/snapshot/tasks/{id}
func (h *Handler) GetSnapshotTask(w http.ResponseWriter, r *http.Request) {
	if !h.snapshotsEnabled(w) {
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid task id")
		return
	}

	task, err := h.snapshots.Get(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		NotFound(w, "task not found in snapshot")
		return
	}
	if err != nil {
		InternalError(w, h.logger, err)
		return
	}

	Success(w, TaskFromDomain(*task))
}

func (h *Handler) snapshotsEnabled(w http.ResponseWriter) bool {
	if h.snapshots == nil {
		Unavailable(w, "snapshots are disabled")
		return false
	}
	return true
}
