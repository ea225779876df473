package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/Taskmill/internal/domain"
)

// NewSnapshotCmd создаёт группу команд для просмотра последнего
// snapshot в PostgreSQL. Без подкоманды выводит счётчики по статусам.
func NewSnapshotCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect the last persisted snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := clientFn().SnapshotCounts()
			if err != nil {
				return err
			}

			statuses := domain.AllStatuses()
			fields := make([][2]string, 0, len(statuses)+1)
			for _, status := range statuses {
				fields = append(fields, [2]string{status.String(), strconv.Itoa(counts.Counts[status.String()])})
			}
			fields = append(fields, [2]string{"total", strconv.Itoa(counts.Total)})

			return outputFn().Fields(fields, counts)
		},
	}

	cmd.AddCommand(
		newSnapshotListCmd(clientFn, outputFn),
		newSnapshotShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newSnapshotListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshot tasks with a status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := clientFn().ListSnapshotTasks(status, limit)
			if err != nil {
				return err
			}

			headers, rows := taskTable(tasks)
			return outputFn().Print(headers, rows, tasks)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Task status (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")
	cmd.MarkFlagRequired("status")

	return cmd
}

func newSnapshotShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show a task as of the last snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetSnapshotTask(args[0])
			if err != nil {
				return err
			}

			return outputFn().Fields(taskFields(task), task)
		},
	}
}
