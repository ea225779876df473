package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно сообщение.
//
// nil — сообщение подтверждается; ошибка с ErrReject (см. Reject) — уходит
// в DLQ; любая другая ошибка — возвращается в очередь.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery — доставленное сообщение.
type Delivery struct {
	// Message — распарсенное тело.
	Message Message

	// Raw — исходная AMQP доставка.
	Raw amqp.Delivery
}

// Outcome — чем закончилась обработка доставки.
type Outcome string

const (
	OutcomeAck        Outcome = "ack"
	OutcomeRequeue    Outcome = "requeue"
	OutcomeDeadLetter Outcome = "dead_letter"
)

// ConsumerConfig — конфигурация Consumer.
type ConsumerConfig struct {
	Queue    string
	Handler  Handler
	Prefetch int // default: 1

	// DeadLetterRedelivered — сообщение, которое уже возвращалось
	// в очередь, при повторной ошибке уходит в DLQ.
	DeadLetterRedelivered bool

	// Observe вызывается после каждой доставки (опционально).
	Observe func(queue string, outcome Outcome)
}

// Consumer читает очередь и передаёт сообщения в Handler.
// После reconnect соединения подписка восстанавливается.
type Consumer struct {
	conn   *Connection
	logger *slog.Logger
	cfg    ConsumerConfig

	cancelFunc context.CancelFunc
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		conn:   conn,
		logger: logger.With("queue", cfg.Queue),
		cfg:    cfg,
	}
}

// Start читает очередь до отмены ctx или вызова Stop.
// Блокируется; возвращает ctx.Err().
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		// Подписываемся на reconnect до subscribe, чтобы не пропустить его
		reconnected := c.conn.Reconnected()

		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.logger.Info("consumer started")
			c.drain(ctx, deliveries)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		c.logger.Warn("consumer paused until reconnect")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-reconnected:
		}
	}
}

// Stop останавливает Consumer.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// subscribe выставляет prefetch и начинает чтение очереди с ручным ack.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", c.cfg.Queue, err)
	}
	return deliveries, nil
}

// drain обрабатывает доставки, пока канал открыт и ctx жив.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			outcome := c.handle(ctx, raw)
			if c.cfg.Observe != nil {
				c.cfg.Observe(c.cfg.Queue, outcome)
			}
		}
	}
}

// handle разбирает доставку, вызывает Handler и подтверждает результат.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) Outcome {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("malformed message",
			"delivery_tag", raw.DeliveryTag,
			"error", err,
		)
		return c.settle(raw, OutcomeDeadLetter)
	}

	logger := c.logger.With("message_id", msg.ID, "type", msg.Type)
	logger.Debug("message received", "redelivered", raw.Redelivered)

	err := c.cfg.Handler(ctx, &Delivery{Message: msg, Raw: raw})
	outcome := c.outcome(err, raw.Redelivered)

	switch outcome {
	case OutcomeDeadLetter:
		logger.Warn("message dead-lettered", "redelivered", raw.Redelivered, "error", err)
	case OutcomeRequeue:
		logger.Error("message requeued", "error", err)
	}

	return c.settle(raw, outcome)
}

// outcome переводит результат Handler в способ подтверждения.
func (c *Consumer) outcome(err error, redelivered bool) Outcome {
	switch {
	case err == nil:
		return OutcomeAck
	case errors.Is(err, ErrReject):
		return OutcomeDeadLetter
	case redelivered && c.cfg.DeadLetterRedelivered:
		return OutcomeDeadLetter
	default:
		return OutcomeRequeue
	}
}

// settle отправляет брокеру ack или nack.
func (c *Consumer) settle(raw amqp.Delivery, outcome Outcome) Outcome {
	var err error
	switch outcome {
	case OutcomeAck:
		err = raw.Ack(false)
	case OutcomeRequeue:
		err = raw.Nack(false, true)
	default:
		err = raw.Nack(false, false)
	}
	if err != nil {
		c.logger.Error("failed to settle delivery", "outcome", outcome, "error", err)
	}
	return outcome
}

// ParsePayload раскладывает payload сообщения в T.
// Payload после json.Unmarshal — map[string]any, поэтому идёт через повторный Marshal.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
