package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Taskmill/internal/mq"
)

const submitTimeout = 10 * time.Second

// Submitter отправляет заявку на создание task.
type Submitter interface {
	PublishSubmit(ctx context.Context, payload mq.SubmitPayload) error
}

// SubmitterFunc открывает Submitter. close освобождает соединение.
type SubmitterFunc func() (s Submitter, close func(), err error)

// NewSubmitCmd создаёт команду отправки task через очередь tasks.submit.
//
// Task создаётся асинхронно: ошибки валидации spec видны только в логах
// сервера и в DLQ.
func NewSubmitCmd(submitterFn SubmitterFunc, outputFn func() *Output) *cobra.Command {
	var payload mq.SubmitPayload
	var dependsOn []string
	var payloadJSON string

	cmd := &cobra.Command{
		Use:   "submit TITLE",
		Short: "Submit a task via RabbitMQ",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload.Title = args[0]

			deps, err := parseDependencies(dependsOn)
			if err != nil {
				return err
			}
			payload.Dependencies = deps

			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &payload.Payload); err != nil {
					return fmt.Errorf("invalid --payload: %w", err)
				}
			}

			// Ошибки TTL и прочих полей ловим до отправки
			spec, err := payload.ToSpec()
			if err != nil {
				return err
			}
			if err := spec.Validate(); err != nil {
				return err
			}

			submitter, closeFn, err := submitterFn()
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := context.WithTimeout(cmd.Context(), submitTimeout)
			defer cancel()

			if err := submitter.PublishSubmit(ctx, payload); err != nil {
				return err
			}

			outputFn().Success(fmt.Sprintf("Task %q submitted", payload.Title))
			return nil
		},
	}

	cmd.Flags().StringVar(&payload.Description, "description", "", "Task description")
	cmd.Flags().StringVar(&payload.Category, "category", "", "Task category (selects the executor)")
	cmd.Flags().IntVar(&payload.Priority, "priority", 0, "Priority (higher runs first)")
	cmd.Flags().StringSliceVar(&dependsOn, "depends-on", nil, "IDs of tasks that must complete first")
	cmd.Flags().StringVar(&payload.TTL, "ttl", "", "Time to live, e.g. 30s or 5m")
	cmd.Flags().IntVar(&payload.MaxRetries, "max-retries", 0, "Maximum number of retries")
	cmd.Flags().StringVar(&payloadJSON, "payload", "", "Executor payload as a JSON object")
	cmd.Flags().StringVar(&payload.Schedule, "schedule", "", "Cron expression (informational)")

	return cmd
}

func parseDependencies(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	deps := make([]uuid.UUID, len(values))
	for i, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid dependency id %q: %w", v, err)
		}
		deps[i] = id
	}
	return deps, nil
}
