package orchestrator

import (
	"sync/atomic"

	"github.com/shaiso/Taskmill/internal/domain"
)

const defaultEventBuffer = 1024

// EventBus — буфер событий между планировщиком и публикацией в RabbitMQ.
//
// Реализует scheduler.EventSink. Emit никогда не блокируется: при
// переполненном буфере событие отбрасывается и учитывается в Dropped.
type EventBus struct {
	ch      chan domain.Event
	dropped atomic.Int64
}

// NewEventBus создаёт буфер на size событий (default: 1024).
func NewEventBus(size int) *EventBus {
	if size <= 0 {
		size = defaultEventBuffer
	}
	return &EventBus{ch: make(chan domain.Event, size)}
}

// Emit реализует scheduler.EventSink.
func (b *EventBus) Emit(ev domain.Event) {
	select {
	case b.ch <- ev:
	default:
		b.dropped.Add(1)
	}
}

// Events возвращает канал для чтения событий.
func (b *EventBus) Events() <-chan domain.Event {
	return b.ch
}

// Dropped возвращает количество отброшенных событий.
func (b *EventBus) Dropped() int64 {
	return b.dropped.Load()
}
