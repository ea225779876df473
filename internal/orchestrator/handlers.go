package orchestrator

import (
	"context"
	"errors"

	"github.com/shaiso/Taskmill/internal/domain"
	"github.com/shaiso/Taskmill/internal/mq"
	"github.com/shaiso/Taskmill/internal/telemetry"
)

// handleSubmit обрабатывает заявку на создание task из tasks.submit.
//
// Заявки, которые не пройдут и при повторной доставке (битый payload,
// некорректный spec, цикл, неизвестная зависимость), отправляются в DLQ.
func (s *Service) handleSubmit(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.SubmitPayload](&delivery.Message)
	if err != nil {
		s.logger.Error("failed to parse submit payload",
			"message_id", delivery.Message.ID,
			"error", err,
		)
		return mq.Reject(err)
	}

	spec, err := payload.ToSpec()
	if err != nil {
		return mq.Reject(err)
	}

	id, err := s.scheduler.Submit(spec)
	if err != nil {
		if isPermanent(err) {
			return mq.Reject(err)
		}
		return err
	}

	telemetry.WithTaskID(s.logger, id.String()).Info("task submitted from queue",
		"message_id", delivery.Message.ID,
		"title", spec.Title,
	)
	return nil
}

// isPermanent проверяет, что ошибка Submit не исчезнет при повторе.
func isPermanent(err error) bool {
	return errors.Is(err, domain.ErrInvalidSpec) ||
		errors.Is(err, domain.ErrCycleDetected) ||
		errors.Is(err, domain.ErrUnknownTask)
}
