package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"chargecast/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the Temporal worker serving estimation workflows",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	acts, err := worker.BuildActivities(cfg, logger)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Worker.HostPort,
		Namespace: cfg.Worker.Namespace,
	})
	if err != nil {
		return fmt.Errorf("connect to temporal at %s: %w", cfg.Worker.HostPort, err)
	}
	defer c.Close()

	w := sdkworker.New(c, cfg.Worker.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, acts)

	logger.Info("worker starting",
		"task_queue", cfg.Worker.TaskQueue,
		"namespace", cfg.Worker.Namespace)
	return w.Run(sdkworker.InterruptCh())
}
