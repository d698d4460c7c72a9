package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/shelfdb/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve starts the shelfdb HTTP API:
1. Opens (or creates) the SQLite store and migrates its schema
2. Starts the session manager and in-memory search cache
3. Serves the search, cache-ingest and saved-books endpoints
4. Shuts down gracefully on SIGINT/SIGTERM`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Override the listen port from the CLI flag if provided
		if port, _ := cmd.Flags().GetInt("listen-port"); port != 0 {
			viper.Set("port", port)
		}

		application, err := app.NewApp()
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}

		if err := application.Run(); err != nil {
			return fmt.Errorf("serve failed: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().Int("listen-port", 0, "HTTP listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
