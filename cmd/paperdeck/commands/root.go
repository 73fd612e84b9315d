package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "paperdeck",
	Short: "Turn research paper PDFs into published Marp slide decks",
	Long: `paperdeck reads PDFs from object storage, runs them through a chain of
language-model stages that produce Marp markdown, renders the result to HTML
and publishes it behind a CDN. It runs as an HTTP API, a one-shot batch or a
queue worker.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default configs/config.toml or $CONFIG_FILE)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
