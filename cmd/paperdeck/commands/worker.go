package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"paperdeck/internal/bootstrap"
	"paperdeck/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume process jobs from RabbitMQ",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	app, err := bootstrap.New(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			app.Logger.Warn().Err(err).Msg("close resources failed")
		}
	}()

	if app.MQConn == nil {
		return fmt.Errorf("worker needs rabbitmq: set rabbitmq.enabled")
	}

	w := worker.NewProcessWorker(app.MQConn, app.Batch, app.Config.RabbitMQ.ProcessQueue,
		app.Logger.With().Str("component", "worker").Logger())
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start process worker failed: %w", err)
	}
	app.Logger.Info().Str("queue", app.Config.RabbitMQ.ProcessQueue).Msg("worker started")

	<-ctx.Done()
	app.Logger.Info().Msg("worker stopping")
	w.Close()
	return nil
}
