package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/mq"
	"github.com/shaiso/Taskmill/internal/telemetry"
)

// Default configuration values.
const (
	defaultSweepInterval    = time.Second
	defaultSnapshotInterval = 30 * time.Second
	publishTimeout          = 5 * time.Second
	finalSnapshotTimeout    = 10 * time.Second
)

// Scheduler — операции планировщика, которые использует Service.
type Scheduler interface {
	Submit(spec domain.TaskSpec) (uuid.UUID, error)
	Sweep(now time.Time) []uuid.UUID
	ReclaimStale(cutoff time.Time) []uuid.UUID
	Stats() domain.QueueStats
	Snapshot() []domain.Task
}

// SnapshotStore сохраняет выгрузку Task Store.
type SnapshotStore interface {
	Save(ctx context.Context, tasks []domain.Task, at time.Time) error
}

// EventPublisher публикует события жизненного цикла.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev domain.Event) error
}

// Service — фоновые процессы вокруг планировщика.
type Service struct {
	scheduler Scheduler
	snapshots SnapshotStore
	publisher EventPublisher
	conn      *mq.Connection
	bus       *EventBus
	metrics   *telemetry.Metrics

	// Configuration
	sweepInterval    time.Duration
	snapshotInterval time.Duration
	leaseTimeout     time.Duration
	now              func() time.Time

	submitConsumer *mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	started    bool
	stopped    bool
	stateMu    sync.Mutex
}

// Config — конфигурация Service.
type Config struct {
	Scheduler Scheduler

	// Опциональные адаптеры
	Snapshots SnapshotStore  // nil — snapshot выключен
	Publisher EventPublisher // nil — события только логируются
	Conn      *mq.Connection // nil — без приёма заявок из очереди
	Events    *EventBus      // источник событий планировщика
	Metrics   *telemetry.Metrics

	SweepInterval    time.Duration // интервал Sweep (default: 1s)
	SnapshotInterval time.Duration // интервал snapshot (default: 30s)
	LeaseTimeout     time.Duration // 0 — lease не отбираются
	Clock            func() time.Time

	Logger *slog.Logger
}

// New создаёт новый Service.
func New(cfg Config) (*Service, error) {
	if cfg.Scheduler == nil {
		return nil, ErrNoScheduler
	}

	sweepInterval := cfg.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}

	snapshotInterval := cfg.SnapshotInterval
	if snapshotInterval <= 0 {
		snapshotInterval = defaultSnapshotInterval
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		scheduler:        cfg.Scheduler,
		snapshots:        cfg.Snapshots,
		publisher:        cfg.Publisher,
		conn:             cfg.Conn,
		bus:              cfg.Events,
		metrics:          cfg.Metrics,
		sweepInterval:    sweepInterval,
		snapshotInterval: snapshotInterval,
		leaseTimeout:     cfg.LeaseTimeout,
		now:              clock,
		logger:           logger,
	}, nil
}

// Start запускает фоновые горутины.
//
// Запускает:
//   - sweep loop (Sweep + ReclaimStale + метрики)
//   - snapshot loop, если задан Snapshots
//   - публикацию событий, если задан Events
//   - consumer tasks.submit, если задан Conn
func (s *Service) Start(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}
	s.started = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel

	s.logger.Info("starting service",
		"sweep_interval", s.sweepInterval,
		"snapshot_interval", s.snapshotInterval,
		"lease_timeout", s.leaseTimeout,
		"snapshots", s.snapshots != nil,
		"publisher", s.publisher != nil,
		"consumer", s.conn != nil,
	)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sweepLoop(ctx)
	}()

	if s.snapshots != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.snapshotLoop(ctx)
		}()
	}

	if s.bus != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.eventLoop(ctx)
		}()
	}

	if s.conn != nil {
		s.submitConsumer = mq.NewConsumer(s.conn, s.logger, mq.ConsumerConfig{
			Queue:                 string(mq.QueueTasksSubmit),
			Handler:               s.handleSubmit,
			Prefetch:              10,
			DeadLetterRedelivered: true,
			Observe: func(queue string, outcome mq.Outcome) {
				s.metrics.DeliverySettled(queue, string(outcome))
			},
		})

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.submitConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Error("submit consumer error", "error", err)
			}
		}()
	}

	s.logger.Info("service started")
	return nil
}

// Stop останавливает Service и ждёт завершения горутин.
// Перед выходом пишет финальный snapshot.
func (s *Service) Stop() {
	s.stateMu.Lock()
	if s.stopped || !s.started {
		s.stateMu.Unlock()
		return
	}
	s.stopped = true
	s.stateMu.Unlock()

	s.logger.Info("stopping service...")

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	if s.submitConsumer != nil {
		s.submitConsumer.Stop()
	}

	// Ждём завершения горутин
	s.wg.Wait()

	if s.snapshots != nil {
		ctx, cancel := context.WithTimeout(context.Background(), finalSnapshotTimeout)
		s.snapshot(ctx)
		cancel()
	}

	s.logger.Info("service stopped")
}

// IsStopped проверяет, остановлен ли Service.
func (s *Service) IsStopped() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.stopped
}

// sweepLoop — периодическая очистка.
func (s *Service) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.now())
		}
	}
}

// tick выполняет один цикл обслуживания планировщика.
func (s *Service) tick(now time.Time) {
	s.scheduler.Sweep(now)

	if s.leaseTimeout > 0 {
		s.scheduler.ReclaimStale(now.Add(-s.leaseTimeout))
	}

	s.metrics.ObserveStats(s.scheduler.Stats())
}

// snapshotLoop — периодическая выгрузка Task Store.
func (s *Service) snapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.snapshot(ctx)
		}
	}
}

// snapshot сохраняет текущее состояние. Ошибки только логируются.
func (s *Service) snapshot(ctx context.Context) {
	tasks := s.scheduler.Snapshot()
	start := time.Now()

	if err := s.snapshots.Save(ctx, tasks, s.now()); err != nil {
		s.logger.Warn("snapshot failed", "tasks", len(tasks), "error", err)
		return
	}

	s.logger.Debug("snapshot saved",
		"tasks", len(tasks),
		"duration", time.Since(start),
	)
}

// eventLoop публикует события, пока не отменён ctx.
func (s *Service) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if dropped := s.bus.Dropped(); dropped > 0 {
				s.logger.Warn("events dropped due to full buffer", "count", dropped)
			}
			return
		case ev := <-s.bus.Events():
			s.publish(ctx, ev)
		}
	}
}

// publish отправляет одно событие. Без publisher события отбрасываются.
func (s *Service) publish(ctx context.Context, ev domain.Event) {
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.PublishEvent(pubCtx, ev); err != nil {
		s.logger.Warn("failed to publish event",
			"event", ev.Type,
			"task_id", ev.TaskID,
			"error", err,
		)
	}
}
