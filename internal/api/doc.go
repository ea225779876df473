// Package api содержит HTTP API для чтения состояния планировщика.
//
// Структура:
//   - handler.go      — Handler с DI (планировщик, clock, logger)
//   - routes.go       — регистрация маршрутов
//   - middleware.go   — middleware (logging, recovery)
//   - response.go     — унифицированные JSON-ответы и обработка ошибок
//   - dto.go          — Data Transfer Objects
//   - task_handler.go — обработчики для /stats, /tasks, /leases
//
// API только читает: task отправляются через очередь tasks.submit,
// а выполняются воркерами.
package api
