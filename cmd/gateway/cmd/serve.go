// cmd/gateway/cmd/serve.go
package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sensorgate/internal/app/server"
	"sensorgate/internal/config"
	"sensorgate/internal/utils/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway",
	Long: `Starts the gateway: restores the buffer snapshot, connects to the
organization's Fabric peer, begins the periodic upload cycle and serves the
HTTP API until interrupted.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.NewConfig()
		log := logger.New(cfg.Env)

		app, err := server.New(cfg, log)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
