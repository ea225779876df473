// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий и заявок
//   - consumer.go   — потребление сообщений из очередей
//   - payload.go    — формат заявки на создание task
//
// Типы сообщений:
//   - task.submit                — заявка на создание task (tasks.submit)
//   - task.submitted ... expired — события жизненного цикла (taskmill.events)
//
// Exchanges:
//   - taskmill.submit — заявки
//   - taskmill.events — события (topic, routing key = тип события)
//   - taskmill.dlq    — dead letter queue
package mq
