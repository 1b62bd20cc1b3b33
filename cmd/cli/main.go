package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	databaseURL string
	host        string
	logger      = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var rootCmd = &cobra.Command{
	Use:   "meetbasket-cli",
	Short: "Maintenance commands for the MeetBasket backend",
	Long: `Runs database migrations and the maintenance jobs the server schedules
(rating recompute, premium expiry, tournament statuses) on demand.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
	},
}

func init() {
	_ = godotenv.Load()
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres DSN (default $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error while executing your command: %s\n", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
