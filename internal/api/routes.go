package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		RequestID(h.logger),
		Logging(h.logger),
		Recovery(h.logger),
	)

	// Stats
	mux.Handle("GET /api/v1/stats", chain(http.HandlerFunc(h.GetStats)))

	// Tasks
	mux.Handle("GET /api/v1/tasks", chain(http.HandlerFunc(h.ListTasks)))
	mux.Handle("GET /api/v1/tasks/{id}", chain(http.HandlerFunc(h.GetTask)))

	// Leases
	mux.Handle("GET /api/v1/leases", chain(http.HandlerFunc(h.ListLeases)))
	mux.Handle("GET /api/v1/workers/{id}/leases", chain(http.HandlerFunc(h.ListWorkerLeases)))

	// Snapshot
	mux.Handle("GET /api/v1/snapshot", chain(http.HandlerFunc(h.GetSnapshotCounts)))
	mux.Handle("GET /api/v1/snapshot/tasks", chain(http.HandlerFunc(h.ListSnapshotTasks)))
	mux.Handle("GET /api/v1/snapshot/tasks/{id}", chain(http.HandlerFunc(h.GetSnapshotTask)))
}
