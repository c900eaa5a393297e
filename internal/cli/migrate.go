package cli

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/andrescamil/Sistema-reserva-recursos-compartidos/migrations"
)

var migrateCmd = &cobra.Command{
	Use:     "migrate",
	Short:   "Apply pending database migrations and exit",
	PreRunE: bindServeFlags,
	RunE:    runMigrate,
}

func init() {
	migrateCmd.Flags().String("database-url", defaultDatabaseURL, "Postgres connection string")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	logger := hclog.New(&hclog.LoggerOptions{Name: "reservas.migrate"})

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, viper.GetString("database-url"))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := migrations.Apply(ctx, pool); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
