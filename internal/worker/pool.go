package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/telemetry"
)

// Default configuration values.
const (
	defaultConcurrency  = 1
	defaultPollInterval = 500 * time.Millisecond
)

// Scheduler — операции планировщика, которые использует Pool.
type Scheduler interface {
	Lease(workerID string) (domain.Task, error)
	Complete(taskID uuid.UUID) error
	Fail(taskID uuid.UUID, reason string) error
}

// Pool — набор воркеров внутри процесса.
//
// Каждый воркер — горутина с собственным worker ID, которая:
//   - Берёт lease на самый приоритетный READY task
//   - Выполняет его executor'ом, зарегистрированным для категории
//   - Вызывает Complete или Fail
//   - Ждёт PollInterval, если очередь пуста
type Pool struct {
	scheduler Scheduler
	registry  *Registry

	// Configuration
	concurrency  int
	pollInterval time.Duration
	taskTimeout  time.Duration
	name         string

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Pool.
type Config struct {
	Scheduler Scheduler

	// Executor registry (опционально; если nil — используется NewRegistry())
	Registry *Registry

	Concurrency  int           // количество воркеров (default: 1)
	PollInterval time.Duration // пауза при пустой очереди (default: 500ms)
	TaskTimeout  time.Duration // таймаут одного выполнения, 0 — без таймаута

	// Name — префикс worker ID (default: случайный).
	Name string

	Logger *slog.Logger
}

// New создаёт новый Pool.
func New(cfg Config) *Pool {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	name := cfg.Name
	if name == "" {
		name = "worker-" + uuid.NewString()[:8]
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Pool{
		scheduler:    cfg.Scheduler,
		registry:     registry,
		concurrency:  concurrency,
		pollInterval: pollInterval,
		taskTimeout:  cfg.TaskTimeout,
		name:         name,
		logger:       logger,
	}
}

// WorkerID возвращает ID i-го воркера пула.
func (p *Pool) WorkerID(i int) string {
	return fmt.Sprintf("%s-%d", p.name, i)
}

// Start запускает воркеры.
func (p *Pool) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelFunc = cancel

	p.logger.Info("starting worker pool",
		"name", p.name,
		"concurrency", p.concurrency,
		"poll_interval", p.pollInterval,
	)

	for i := 0; i < p.concurrency; i++ {
		workerID := p.WorkerID(i)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, workerID)
		}()
	}

	return nil
}

// Stop останавливает воркеры и ждёт их завершения.
// Task, выполнение которых прервано, уходят в Fail.
func (p *Pool) Stop() {
	p.stoppedMu.Lock()
	p.stopped = true
	p.stoppedMu.Unlock()

	p.logger.Info("stopping worker pool...")

	if p.cancelFunc != nil {
		p.cancelFunc()
	}

	p.wg.Wait()

	p.logger.Info("worker pool stopped")
}

// IsStopped проверяет, остановлен ли Pool.
func (p *Pool) IsStopped() bool {
	p.stoppedMu.RLock()
	defer p.stoppedMu.RUnlock()
	return p.stopped
}

// run — цикл одного воркера.
func (p *Pool) run(ctx context.Context, workerID string) {
	logger := telemetry.WithWorkerID(p.logger, workerID)

	for {
		if ctx.Err() != nil {
			return
		}

		task, err := p.scheduler.Lease(workerID)
		if err != nil {
			if !errors.Is(err, domain.ErrNoReadyTask) {
				logger.Error("lease failed", "error", err)
			}
			if !p.wait(ctx) {
				return
			}
			continue
		}

		p.process(ctx, logger, &task)
	}
}

// wait ждёт PollInterval. Возвращает false, если ctx отменён.
func (p *Pool) wait(ctx context.Context) bool {
	timer := time.NewTimer(p.pollInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// process выполняет task и сообщает результат планировщику.
func (p *Pool) process(ctx context.Context, logger *slog.Logger, task *domain.Task) {
	logger = telemetry.WithTaskID(logger, task.ID.String())
	start := time.Now()

	reason := p.execute(ctx, logger, task)
	if reason == "" {
		if err := p.scheduler.Complete(task.ID); err != nil {
			logger.Error("complete failed", "error", err)
			return
		}
		logger.Debug("task executed", "category", task.Category, "duration", time.Since(start))
		return
	}

	logger.Warn("task execution failed",
		"category", task.Category,
		"attempt", task.RetryCount+1,
		"reason", reason,
	)
	if err := p.scheduler.Fail(task.ID, reason); err != nil {
		logger.Error("fail failed", "error", err)
	}
}

// execute запускает executor. Возвращает причину неудачи или "".
func (p *Pool) execute(ctx context.Context, logger *slog.Logger, task *domain.Task) (reason string) {
	executor, err := p.registry.Get(task.Category)
	if err != nil {
		return err.Error()
	}

	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.taskTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("executor panic", "panic", r)
			reason = fmt.Sprintf("executor panic: %v", r)
		}
	}()

	result, err := executor.Execute(ctx, task)
	switch {
	case err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled):
		return ErrWorkerStopped.Error()
	case err != nil:
		return err.Error()
	case result != nil && result.Error != "":
		return result.Error
	}

	if result != nil && len(result.Outputs) > 0 {
		logger.Debug("executor outputs", "outputs", result.Outputs)
	}
	return ""
}
