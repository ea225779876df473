// Package orchestrator запускает фоновые процессы вокруг планировщика.
//
// Service отвечает за:
//   - Периодический Sweep истёкших task
//   - Возврат в очередь task с просроченным lease (если задан LeaseTimeout)
//   - Обновление метрик по снимку Stats
//   - Периодическую выгрузку snapshot в PostgreSQL
//   - Публикацию событий жизненного цикла в RabbitMQ
//   - Приём заявок на создание task из очереди tasks.submit
//
// Сам планировщик ничего не знает о времени и I/O: всё это здесь.
package orchestrator
