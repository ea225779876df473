package mq

import (
	"errors"
	"fmt"
)

var (
	// ErrNoChannel — соединение с RabbitMQ сейчас недоступно.
	ErrNoChannel = errors.New("no channel available")

	// ErrReject — сообщение некорректно, повторная доставка не поможет.
	// Consumer отправляет такие сообщения в DLQ.
	ErrReject = errors.New("message rejected")
)

// Reject оборачивает err так, что consumer не вернёт сообщение в очередь.
func Reject(err error) error {
	return fmt.Errorf("%w: %w", ErrReject, err)
}
