// Package scheduler реализует приоритетный планировщик задач.
//
// Scheduler собирает вместе Task Store, граф зависимостей, приоритетную
// очередь, Lease Manager и политики retry/TTL. Все публичные операции
// выполняются под одним мьютексом, поэтому порядок выдачи задач
// (priority, затем FIFO) не зависит от того, какие горутины вызывают Lease.
//
// Структура:
//   - scheduler.go — Submit, Lease, Complete, Fail, Sweep, Stats
//   - query.go     — чтение состояния (Get, List, Dependencies, ActiveLeases)
//   - cron.go      — проверка cron-выражений и вычисление следующего запуска
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Logger: logger,
//	    Events: sink, // опционально
//	})
//
//	id, err := sched.Submit(domain.TaskSpec{Title: "build", Priority: 5})
//
//	task, err := sched.Lease("worker-1")
//	if errors.Is(err, domain.ErrNoReadyTask) {
//	    // очередь пуста, повторить позже
//	}
//	err = sched.Complete(task.ID)
//
// Lease никогда не блокируется. Истёкшие task вычищает Sweep, который
// вызывается периодически снаружи (см. internal/orchestrator).
package scheduler
