// Package cli реализует инструмент командной строки Taskmill.
//
// # Обзор
//
// CLI — клиентская утилита для просмотра состояния планировщика через
// HTTP API и отправки task через RabbitMQ. Для чтения CLI не импортирует
// внутренние пакеты сервера, типы ответов продублированы в client.go.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Taskmill API. Инкапсулирует запросы, парсинг ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8090")
//	stats, err := client.Stats()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: taskmill tasks list --json | jq .
//
// ## Commands
//
//   - stats: счётчики планировщика
//   - tasks: list, show
//   - leases: активные lease (всех или одного воркера)
//   - submit: заявка в очередь tasks.submit
//
// Каждая команда создаётся фабричной функцией (NewTaskCmd и т.д.),
// принимающей clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
