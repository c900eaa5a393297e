package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reservas",
	Short: "shared resource reservation service",
	Long: `Arbitrates exclusive access to shared resources among distributed
clients using Lamport logical clocks for a global request ordering.
Configuration can be set via command line flags or environment variables
in the form RESERVAS_<FLAG> (e.g. RESERVAS_DATABASE_URL).`,
}

func init() {
	// Missing .env is fine; explicit env always wins.
	_ = godotenv.Load()

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
