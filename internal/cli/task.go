package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewStatsCmd создаёт команду вывода счётчиков планировщика.
func NewStatsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show scheduler statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := clientFn().Stats()
			if err != nil {
				return err
			}

			fields := [][2]string{
				{"pending", strconv.Itoa(stats.Pending)},
				{"ready", strconv.Itoa(stats.Ready)},
				{"leased", strconv.Itoa(stats.Leased)},
				{"completed", strconv.Itoa(stats.Completed)},
				{"failed", strconv.Itoa(stats.Failed)},
				{"expired", strconv.Itoa(stats.Expired)},
				{"total", strconv.Itoa(stats.Total)},
				{"active_workers", strconv.Itoa(stats.ActiveWorkers)},
				{"queue_depth", strconv.Itoa(stats.QueueDepth)},
				{"avg_completion", fmt.Sprintf("%.3fs", stats.AvgCompletionSec)},
			}

			return outputFn().Fields(fields, stats)
		},
	}
}

// NewTaskCmd создаёт группу команд для просмотра tasks.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Inspect tasks",
	}

	cmd.AddCommand(
		newTaskListCmd(clientFn, outputFn),
		newTaskShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newTaskListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListTasksOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := clientFn().ListTasks(opts)
			if err != nil {
				return err
			}

			headers, rows := taskTable(tasks)
			return outputFn().Print(headers, rows, tasks)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (pending, ready, leased, completed, failed, expired)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Filter by category")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newTaskShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show TASK_ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := clientFn().GetTask(args[0])
			if err != nil {
				return err
			}

			return outputFn().Fields(taskFields(&task.TaskResponse,
				[2]string{"waiting", joinOrDash(task.Waiting)},
				[2]string{"dependents", joinOrDash(task.Dependents)},
				[2]string{"blocked", strconv.FormatBool(task.Blocked)},
				[2]string{"queued", strconv.FormatBool(task.Queued)},
				[2]string{"next_run", task.NextRun},
			), task)
		},
	}
}

// NewLeaseCmd создаёт команду вывода активных lease.
func NewLeaseCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workerID string

	cmd := &cobra.Command{
		Use:   "leases",
		Short: "List active leases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			leases, err := clientFn().ListLeases(workerID)
			if err != nil {
				return err
			}

			headers := []string{"TASK_ID", "WORKER_ID", "ACQUIRED", "HELD"}
			rows := make([][]string, len(leases))
			for i, l := range leases {
				rows[i] = []string{l.TaskID, l.WorkerID, l.AcquiredAt, fmt.Sprintf("%.1fs", l.HeldSec)}
			}

			return outputFn().Print(headers, rows, leases)
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Show leases of a single worker")

	return cmd
}

func joinOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ",")
}

// taskTable раскладывает список task в строки таблицы.
func taskTable(tasks []TaskResponse) ([]string, [][]string) {
	headers := []string{"ID", "TITLE", "CATEGORY", "PRIORITY", "STATUS", "RETRIES", "CREATED"}
	rows := make([][]string, len(tasks))
	for i, t := range tasks {
		rows[i] = []string{
			t.ID,
			t.Title,
			t.Category,
			fmt.Sprintf("%d (%d)", t.Priority, t.EffectivePriority),
			t.Status,
			fmt.Sprintf("%d/%d", t.RetryCount, t.MaxRetries),
			t.CreatedAt,
		}
	}
	return headers, rows
}

// taskFields — поля task для Output.Fields, extra добавляются в конец.
func taskFields(t *TaskResponse, extra ...[2]string) [][2]string {
	fields := [][2]string{
		{"id", t.ID},
		{"title", t.Title},
		{"category", t.Category},
		{"status", t.Status},
		{"priority", fmt.Sprintf("%d (effective %d)", t.Priority, t.EffectivePriority)},
		{"retries", fmt.Sprintf("%d/%d", t.RetryCount, t.MaxRetries)},
		{"lease_owner", t.LeaseOwner},
		{"last_error", t.LastError},
		{"schedule", t.Schedule},
		{"expires_at", t.ExpiresAt},
		{"finished_at", t.FinishedAt},
	}
	return append(fields, extra...)
}
