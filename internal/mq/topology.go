package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeSubmit Exchange = "taskmill.submit"
	ExchangeEvents Exchange = "taskmill.events"
	ExchangeDLQ    Exchange = "taskmill.dlq"
)

// Queues — имена очередей.
const (
	QueueTasksSubmit Queue = "tasks.submit"
	QueueTasksEvents Queue = "tasks.events"
	QueueDLQSubmit   Queue = "dlq.submit"
)

// Routing keys.
const (
	RoutingKeySubmit    RoutingKey = "submit"
	RoutingKeyAllEvents RoutingKey = "task.#"
	RoutingKeyDLQSubmit RoutingKey = "submit"
)

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		// 1. Создаём exchanges
		if err := declareExchanges(ch); err != nil {
			return err
		}

		// 2. Создаём queues
		if err := declareQueues(ch); err != nil {
			return err
		}

		// 3. Привязываем queues к exchanges
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeSubmit, amqp.ExchangeDirect},
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Некорректные заявки уходят в DLQ
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQSubmit),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueTasksSubmit, dlqArgs},
		{QueueTasksEvents, nil},
		{QueueDLQSubmit, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	for _, b := range bindings() {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

func bindings() []binding {
	return []binding{
		{QueueTasksSubmit, RoutingKeySubmit, ExchangeSubmit},
		{QueueTasksEvents, RoutingKeyAllEvents, ExchangeEvents},
		{QueueDLQSubmit, RoutingKeyDLQSubmit, ExchangeDLQ},
	}
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Taskmill RabbitMQ Topology:

    taskmill.submit (direct)
    └── tasks.submit [routing: submit]
            Consumer: taskmill-server
            DLQ: dlq.submit

    taskmill.events (topic)
    └── tasks.events [routing: task.#]
            Consumer: external (audit, alerting)

    taskmill.dlq (direct)
    └── dlq.submit [routing: submit]
            Manual processing
  `
}
