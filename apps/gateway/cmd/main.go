package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "gateway",
		Short:        "Safe event hooks: cache invalidation and push notifications",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("redis-addr", "localhost:6379", "Redis address")
	root.PersistentFlags().String("db-url", "", "Postgres DSN")
	root.PersistentFlags().String("config-service-url", "", "config service base URL")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook API and the event consumer",
		RunE:  runServe,
	}
	serveCmd.Flags().Int("api-port", 8080, "API port")
	serveCmd.Flags().String("events-transport", "kafka", "event transport (kafka, amqp, none)")
	serveCmd.Flags().Int("events-concurrency", 8, "events processed concurrently")

	root.AddCommand(serveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Process the events of a JSONL file once",
		Args:  cobra.ExactArgs(1),
		RunE:  runReplay,
	}

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
