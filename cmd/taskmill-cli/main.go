// Taskmill CLI — инструмент командной строки для просмотра состояния
// планировщика и отправки task.
//
// Использование:
//
//	taskmill [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	stats   Счётчики планировщика
//	tasks   Просмотр tasks (list, show)
//	leases  Активные lease
//	submit  Отправка task через RabbitMQ
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Taskmill/internal/cli"
	"github.com/shaiso/Taskmill/internal/mq"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var rabbitURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "taskmill",
		Short:         "Taskmill CLI — priority task scheduler",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8090", "API server URL")
	rootCmd.PersistentFlags().StringVar(&rabbitURL, "rabbitmq-url", mq.DefaultURL(), "RabbitMQ URL (for submit)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	submitterFn := func() (cli.Submitter, func(), error) {
		// Логи соединения в CLI не нужны
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		conn, err := mq.NewConnection(rabbitURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", err)
		}
		return mq.NewPublisher(conn, logger), func() { conn.Close() }, nil
	}

	rootCmd.AddCommand(
		cli.NewStatsCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewLeaseCmd(clientFn, outputFn),
		cli.NewSnapshotCmd(clientFn, outputFn),
		cli.NewSubmitCmd(submitterFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
