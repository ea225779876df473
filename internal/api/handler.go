package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/lease"
	"github.com/shaiso/Taskmill/internal/scheduler"
)

// Reader — операции чтения планировщика, которые нужны API.
type Reader interface {
	Get(taskID uuid.UUID) (domain.Task, error)
	List(filter scheduler.ListFilter) []domain.Task
	Dependencies(taskID uuid.UUID) (scheduler.DependencyInfo, error)
	ActiveLeases(workerID string) []lease.Lease
	NextRun(taskID uuid.UUID, from time.Time) (time.Time, error)
	Stats() domain.QueueStats
}

// SnapshotReader — чтение последнего snapshot из БД.
type SnapshotReader interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByStatus(ctx context.Context, status domain.TaskStatus, limit int) ([]domain.Task, error)
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	scheduler Reader
	snapshots SnapshotReader
	now       func() time.Time
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Scheduler Reader
	Snapshots SnapshotReader   // опционально; без него /snapshot отвечает 503
	Clock     func() time.Time // для NextRun (default: time.Now)
	Logger    *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		scheduler: cfg.Scheduler,
		snapshots: cfg.Snapshots,
		now:       clock,
		logger:    logger,
	}
}
