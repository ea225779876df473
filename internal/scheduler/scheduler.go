package scheduler

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/engine"
	"github.com/shaiso/Taskmill/internal/lease"
	"github.com/shaiso/Taskmill/internal/policy"
	"github.com/shaiso/Taskmill/internal/queue"
	"github.com/shaiso/Taskmill/internal/store"
	"github.com/shaiso/Taskmill/internal/telemetry"
)

// ReasonLeaseTimeout — причина Fail для lease, отобранного по таймауту.
const ReasonLeaseTimeout = "lease timeout"

// EventSink получает события после выхода из критической секции.
// Emit не должен блокироваться.
type EventSink interface {
	Emit(ev domain.Event)
}

// EventSinkFunc — адаптер функции к EventSink.
type EventSinkFunc func(ev domain.Event)

// Emit реализует EventSink.
func (f EventSinkFunc) Emit(ev domain.Event) { f(ev) }

// Scheduler — приоритетный планировщик с зависимостями, lease, retry и TTL.
type Scheduler struct {
	mu sync.Mutex

	store  *store.Store
	graph  *engine.Graph
	queue  *queue.Queue
	leases *lease.Manager
	retry  policy.RetryPolicy
	expiry *policy.ExpiryPolicy

	now        func() time.Time
	enqueueSeq int64

	// Для средней длительности COMPLETED task.
	completedCount int
	completedTotal time.Duration

	// События текущей операции, отправляются после Unlock.
	outbox []domain.Event

	events  EventSink
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// Config — конфигурация Scheduler.
type Config struct {
	Clock              func() time.Time   // источник времени (default: time.Now)
	IDGenerator        store.IDGenerator  // генератор ID task (default: uuid.New)
	RetryPolicy        policy.RetryPolicy // политика retry (default: PenaltyRetry)
	StrictDependencies bool               // отклонять неизвестные зависимости
	Events             EventSink          // получатель событий (опционально)
	Metrics            *telemetry.Metrics // метрики (опционально)
	Logger             *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	retry := cfg.RetryPolicy
	if retry == nil {
		retry = policy.PenaltyRetry{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		store:   store.New(cfg.IDGenerator),
		leases:  lease.NewManager(),
		retry:   retry,
		now:     clock,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		logger:  logger,
	}
	s.graph = engine.NewGraph(engine.GraphConfig{
		Status: s.store.Status,
		Strict: cfg.StrictDependencies,
	})
	s.queue = queue.New(s.leasable)
	s.expiry = policy.NewExpiryPolicy(s.store)

	return s
}

// Submit создаёт task и регистрирует его зависимости.
//
// Проверка spec и цикла выполняется до изменения состояния: при ошибке
// планировщик остаётся в прежнем виде. Task без невыполненных
// зависимостей сразу попадает в очередь.
func (s *Scheduler) Submit(spec domain.TaskSpec) (uuid.UUID, error) {
	if spec.Schedule != "" {
		if err := ValidateSchedule(spec.Schedule); err != nil {
			s.metrics.TaskRejected("invalid")
			return uuid.Nil, err
		}
	}

	s.mu.Lock()
	id, err := s.submit(spec)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	if err != nil {
		s.logger.Debug("task rejected", "title", spec.Title, "error", err)
	}
	return id, err
}

func (s *Scheduler) submit(spec domain.TaskSpec) (uuid.UUID, error) {
	now := s.now()

	id, err := s.store.Create(spec, now)
	if err != nil {
		s.metrics.TaskRejected("invalid")
		return uuid.Nil, err
	}

	if err := s.graph.AddEdges(id, spec.Dependencies); err != nil {
		s.store.Discard(id)
		s.metrics.TaskRejected(rejectReason(err))
		return uuid.Nil, err
	}

	task, _ := s.store.Get(id)
	s.metrics.TaskSubmitted()
	s.record(domain.NewEvent(domain.EventTaskSubmitted, &task, now))

	// Task с истёкшим TTL в очередь не попадает и ждёт Sweep в PENDING.
	if s.graph.IsReady(id) && !s.expiry.Expired(&task, now) {
		if err := s.enqueue(id, now); err != nil {
			return id, err
		}
	}

	return id, nil
}

// Lease выдаёт воркеру task с наивысшим приоритетом.
//
// Никогда не блокируется: при пустой очереди возвращает domain.ErrNoReadyTask.
// Истёкшие task по пути переводятся в EXPIRED.
func (s *Scheduler) Lease(workerID string) (domain.Task, error) {
	if workerID == "" {
		return domain.Task{}, ErrEmptyWorkerID
	}

	s.mu.Lock()
	task, err := s.lease(workerID)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	return task, err
}

func (s *Scheduler) lease(workerID string) (domain.Task, error) {
	now := s.now()

	id, ok := s.queue.PopReady(now)
	if !ok {
		s.metrics.LeaseEmpty()
		return domain.Task{}, domain.ErrNoReadyTask
	}

	task, err := s.store.Mutate(id, func(t *domain.Task) error {
		t.MarkLeased(workerID, now)
		return nil
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("lease task %s: %w", id, err)
	}
	s.leases.Acquire(id, workerID, now)

	s.metrics.LeaseGranted()
	s.metrics.Transition(domain.TaskStatusLeased)
	s.record(domain.NewEvent(domain.EventTaskLeased, &task, now))

	return task, nil
}

// Complete завершает task и ставит в очередь разблокированные зависимые.
//
// Повторный вызов возвращает domain.ErrNotLeased и не трогает зависимые.
func (s *Scheduler) Complete(taskID uuid.UUID) error {
	s.mu.Lock()
	err := s.complete(taskID)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	return err
}

func (s *Scheduler) complete(taskID uuid.UUID) error {
	task, err := s.leased(taskID)
	if err != nil {
		return err
	}
	now := s.now()
	workerID := task.LeaseOwner

	s.leases.Release(taskID)
	if err := s.store.UpdateStatus(taskID, domain.TaskStatusCompleted, now); err != nil {
		return err
	}
	task, _ = s.store.Get(taskID)

	s.completedCount++
	s.completedTotal += task.Duration()
	s.metrics.Transition(domain.TaskStatusCompleted)
	s.metrics.TaskCompleted(task.Duration())

	ev := domain.NewEvent(domain.EventTaskCompleted, &task, now)
	ev.WorkerID = workerID
	s.record(ev)

	for _, depID := range s.graph.OnCompleted(taskID) {
		dep, ok := s.store.Get(depID)
		if !ok || dep.Status != domain.TaskStatusPending {
			continue
		}
		if s.expiry.Expired(&dep, now) {
			s.expire(dep, now)
			continue
		}
		if err := s.enqueue(depID, now); err != nil {
			return err
		}
	}

	return nil
}

// Fail сообщает о неудачной попытке выполнения task.
//
// Истёкший task сразу переходит в EXPIRED. Иначе решение принимает
// RetryPolicy: task возвращается в очередь со штрафом или переходит в FAILED.
func (s *Scheduler) Fail(taskID uuid.UUID, reason string) error {
	s.mu.Lock()
	err := s.fail(taskID, reason)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	return err
}

func (s *Scheduler) fail(taskID uuid.UUID, reason string) error {
	task, err := s.leased(taskID)
	if err != nil {
		return err
	}
	now := s.now()
	workerID := task.LeaseOwner

	s.leases.Release(taskID)

	if s.expiry.Expired(&task, now) {
		s.expire(task, now)
		return nil
	}

	action, updated := s.retry.OnFailure(task, now)
	updated.LastError = reason
	task, err = s.store.Mutate(taskID, func(t *domain.Task) error {
		*t = updated
		return nil
	})
	if err != nil {
		return fmt.Errorf("apply retry policy: %w", err)
	}

	switch action {
	case policy.ActionRetry:
		s.metrics.Transition(domain.TaskStatusPending)
		ev := domain.NewEvent(domain.EventTaskRetried, &task, now)
		ev.WorkerID = workerID
		ev.Reason = reason
		s.record(ev)
		return s.enqueue(taskID, now)

	default:
		s.metrics.Transition(domain.TaskStatusFailed)
		ev := domain.NewEvent(domain.EventTaskFailed, &task, now)
		ev.WorkerID = workerID
		ev.Reason = reason
		s.record(ev)
		s.graph.OnTerminated(taskID)
		return nil
	}
}

// Sweep переводит в EXPIRED все нефинальные task с ExpiresAt <= now.
// Lease истёкших task снимается. Возвращает ID в порядке отправки.
func (s *Scheduler) Sweep(now time.Time) []uuid.UUID {
	s.mu.Lock()
	ids, err := s.sweep(now)
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	if err != nil {
		s.logger.Error("sweep failed", "error", err)
	}
	if len(ids) > 0 {
		s.logger.Info("expired tasks swept", "count", len(ids))
	}
	return ids
}

func (s *Scheduler) sweep(now time.Time) ([]uuid.UUID, error) {
	ids, err := s.expiry.SweepExpired(now, func(t domain.Task) {
		s.leases.Release(t.ID)
	})

	for _, id := range ids {
		task, _ := s.store.Get(id)
		s.afterExpire(&task, now)
	}
	return ids, err
}

// ReclaimStale отбирает lease, выданные раньше cutoff, и проводит их
// через Fail с причиной ReasonLeaseTimeout. Возвращает ID task.
func (s *Scheduler) ReclaimStale(cutoff time.Time) []uuid.UUID {
	s.mu.Lock()
	stale := s.leases.Stale(cutoff)
	ids := make([]uuid.UUID, 0, len(stale))
	var errs []error
	for _, l := range stale {
		if err := s.fail(l.TaskID, ReasonLeaseTimeout); err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, l.TaskID)
	}
	events := s.drain()
	s.mu.Unlock()

	s.emit(events)
	if err := errors.Join(errs...); err != nil {
		s.logger.Error("reclaim stale leases failed", "error", err)
	}
	if len(ids) > 0 {
		s.logger.Warn("stale leases reclaimed", "count", len(ids))
	}
	return ids
}

// Stats возвращает снимок счётчиков.
func (s *Scheduler) Stats() domain.QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats domain.QueueStats
	s.store.Each(func(t *domain.Task) {
		stats.Count(t.Status)
	})
	stats.ActiveWorkers = s.leases.Workers()
	stats.QueueDepth = s.queue.Len()
	if s.completedCount > 0 {
		stats.AvgCompletion = s.completedTotal / time.Duration(s.completedCount)
	}
	return stats
}

// leased возвращает task, если на нём есть активный lease.
func (s *Scheduler) leased(taskID uuid.UUID) (domain.Task, error) {
	task, ok := s.store.Get(taskID)
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrUnknownTask, taskID)
	}
	if task.Status != domain.TaskStatusLeased {
		return domain.Task{}, fmt.Errorf("%w: %s is %s", domain.ErrNotLeased, taskID, task.Status)
	}
	if _, ok := s.leases.Get(taskID); !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrNotLeased, taskID)
	}
	return task, nil
}

// enqueue переводит pending task в READY и кладёт его в очередь.
func (s *Scheduler) enqueue(taskID uuid.UUID, now time.Time) error {
	if err := s.store.UpdateStatus(taskID, domain.TaskStatusReady, now); err != nil {
		return fmt.Errorf("enqueue task %s: %w", taskID, err)
	}
	task, _ := s.store.Get(taskID)

	s.enqueueSeq++
	s.queue.Push(taskID, task.EffectivePriority, s.enqueueSeq)

	s.metrics.Transition(domain.TaskStatusReady)
	s.record(domain.NewEvent(domain.EventTaskReady, &task, now))
	return nil
}

// leasable — фильтр очереди: выдавать можно только READY task с живым TTL.
// Истёкший task переводится в EXPIRED прямо здесь.
func (s *Scheduler) leasable(taskID uuid.UUID, now time.Time) bool {
	task, ok := s.store.Get(taskID)
	if !ok || task.Status != domain.TaskStatusReady {
		return false
	}
	if s.expiry.Expired(&task, now) {
		s.expire(task, now)
		return false
	}
	return true
}

// expire переводит task в EXPIRED, снимая lease.
func (s *Scheduler) expire(task domain.Task, now time.Time) {
	s.leases.Release(task.ID)
	if err := s.store.UpdateStatus(task.ID, domain.TaskStatusExpired, now); err != nil {
		s.logger.Error("failed to expire task", "task_id", task.ID, "error", err)
		return
	}
	task, _ = s.store.Get(task.ID)
	s.afterExpire(&task, now)
}

func (s *Scheduler) afterExpire(task *domain.Task, now time.Time) {
	s.graph.OnTerminated(task.ID)
	s.metrics.Transition(domain.TaskStatusExpired)
	s.record(domain.NewEvent(domain.EventTaskExpired, task, now))
}

// record откладывает событие до выхода из критической секции.
func (s *Scheduler) record(ev domain.Event) {
	s.outbox = append(s.outbox, ev)
}

// drain забирает накопленные события. Вызывается под мьютексом.
func (s *Scheduler) drain() []domain.Event {
	events := s.outbox
	s.outbox = nil
	return events
}

// emit логирует события и передаёт их в EventSink.
func (s *Scheduler) emit(events []domain.Event) {
	for _, ev := range events {
		s.logger.Debug("task event",
			"event", ev.Type,
			"task_id", ev.TaskID,
			"worker_id", ev.WorkerID,
			"attempt", ev.Attempt,
		)
		if s.events != nil {
			s.events.Emit(ev)
		}
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrCycleDetected):
		return "cycle"
	case errors.Is(err, domain.ErrUnknownTask):
		return "unknown_dependency"
	default:
		return "invalid"
	}
}
