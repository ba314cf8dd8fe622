package cmd

import (
	"github.com/spf13/cobra"

	"invoicing-backend/logger"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed the default admin",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApplication(cmd.Context())
		if err != nil {
			return err
		}
		defer app.close()

		log := logger.WithComponent("migrate")
		log.Info().Str("driver", app.cfg.DBDriver).Msg("schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
