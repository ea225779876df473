// Taskmill Server — приоритетный планировщик задач.
//
// Server:
//   - Держит Task Store, граф зависимостей, очередь и lease в памяти
//   - Периодически переводит истёкшие task в EXPIRED
//   - Принимает заявки из очереди tasks.submit (RabbitMQ)
//   - Публикует события жизненного цикла в exchange taskmill.events
//   - Сохраняет snapshot в PostgreSQL
//   - Выполняет task встроенными воркерами (WORKER_CONCURRENCY > 0)
//   - Отдаёт состояние через HTTP API, /healthz и /metrics
//
// PostgreSQL и RabbitMQ опциональны: без них сервер работает только
// в памяти.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Taskmill/internal/api"
	"github.com/shaiso/Taskmill/internal/config"
	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/mq"
	"github.com/shaiso/Taskmill/internal/orchestrator"
	"github.com/shaiso/Taskmill/internal/policy"
	"github.com/shaiso/Taskmill/internal/repo"
	"github.com/shaiso/Taskmill/internal/scheduler"
	"github.com/shaiso/Taskmill/internal/telemetry"
	"github.com/shaiso/Taskmill/internal/worker"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting taskmill-server")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	events := orchestrator.NewEventBus(0)

	// Config.Load уже проверил имя политики
	retry, _ := policy.ParseRetry(cfg.RetryPolicy)

	sched := scheduler.New(scheduler.Config{
		StrictDependencies: cfg.StrictDependencies,
		RetryPolicy:        retry,
		Events:             events,
		Metrics:            metrics,
		Logger:             logger,
	})

	svcCfg := orchestrator.Config{
		Scheduler:        sched,
		Events:           events,
		Metrics:          metrics,
		SweepInterval:    cfg.SweepInterval,
		SnapshotInterval: cfg.SnapshotInterval,
		LeaseTimeout:     cfg.LeaseTimeout,
		Logger:           logger,
	}

	apiCfg := api.Config{Scheduler: sched, Logger: logger}

	// PostgreSQL
	pool, err := repo.NewPoolFromDSN(ctx, cmp.Or(cfg.DatabaseURL, repo.DefaultDSN))
	if err != nil {
		logger.Warn("database not available, snapshots disabled", "error", err)
	} else {
		defer pool.Close()
		logger.Info("database connected")

		if err := repo.EnsureSchema(ctx, pool); err != nil {
			logger.Warn("failed to ensure schema, snapshots disabled", "error", err)
		} else {
			snapshots := repo.NewSnapshotRepo(pool)
			svcCfg.Snapshots = snapshots
			apiCfg.Snapshots = snapshots
			logLastSnapshot(ctx, logger, snapshots)
		}
	}

	// RabbitMQ
	mqConn, err := mq.NewConnection(cmp.Or(cfg.RabbitMQURL, mq.DefaultURL()), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, queue ingestion and event publishing disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		svcCfg.Conn = mqConn
		svcCfg.Publisher = mq.NewPublisher(mqConn, logger)
	}

	svc, err := orchestrator.New(svcCfg)
	if err != nil {
		logger.Error("failed to create service", "error", err)
		os.Exit(1)
	}
	if err := svc.Start(ctx); err != nil {
		logger.Error("failed to start service", "error", err)
		os.Exit(1)
	}

	// Встроенные воркеры
	var workers *worker.Pool
	if cfg.WorkerConcurrency > 0 {
		workers = worker.New(worker.Config{
			Scheduler:    sched,
			Concurrency:  cfg.WorkerConcurrency,
			PollInterval: cfg.WorkerPollInterval,
			Logger:       logger,
		})
		if err := workers.Start(ctx); err != nil {
			logger.Error("failed to start workers", "error", err)
			os.Exit(1)
		}
	}

	// HTTP mux: API + /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		broker := "disabled"
		if svcCfg.Conn != nil {
			broker = "connected"
			if !svcCfg.Conn.Healthy() {
				broker = "reconnecting"
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s rabbitmq=%s", time.Since(startTime), broker)
	})
	mux.Handle("/metrics", promhttp.Handler())

	api.NewHandler(apiCfg).RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Сначала воркеры (прерванные task возвращаются в очередь),
	// затем Service пишет финальный snapshot.
	if workers != nil {
		workers.Stop()
	}
	svc.Stop()

	logger.Info("taskmill-server stopped")
}

// logLastSnapshot выводит счётчики snapshot, оставшегося от прошлого запуска.
// Состояние из него не восстанавливается.
func logLastSnapshot(ctx context.Context, logger *slog.Logger, snapshots *repo.SnapshotRepo) {
	counts, err := snapshots.CountByStatus(ctx)
	if err != nil {
		logger.Warn("failed to read last snapshot", "error", err)
		return
	}

	args := make([]any, 0, 2*len(domain.AllStatuses()))
	for _, status := range domain.AllStatuses() {
		args = append(args, status.String(), counts[status])
	}
	logger.Info("last snapshot", args...)
}
