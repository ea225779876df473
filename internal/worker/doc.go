// Package worker выполняет task внутри процесса.
//
// # Обзор
//
// Pool запускает N горутин-воркеров поверх планировщика. Каждый воркер
// берёт lease, выполняет task и сообщает результат через Complete или
// Fail. Retry и backoff здесь не реализуются: повтор делает планировщик,
// понижая приоритет task на каждую попытку.
//
//	pool := worker.New(worker.Config{
//	    Scheduler:   sched,
//	    Concurrency: 4,
//	    Logger:      logger,
//	})
//
//	if err := pool.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer pool.Stop()
//
// # Executor
//
// Executor выбирается по категории task через Registry:
//   - default, noop — NoopExecutor, сразу успешно
//   - delay — DelayExecutor, ожидание из payload
//   - http — HTTPExecutor, webhook из payload
//
// Свои executor'ы регистрируются через Registry.Register, в том числе
// обычные функции через ExecutorFunc.
//
// # Ошибки
//
// Ошибка Execute, непустой ExecutionResult.Error и panic executor'а
// одинаково приводят к Fail с текстом ошибки в качестве причины.
// Task без executor'а для категории тоже уходит в Fail.
package worker
