package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicing-backend/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing backend - invoices, payments and overdue tracking",
	Long: `Invoicing backend manages invoices and the payments recorded against them.

Every payment change re-derives the invoice status (PENDING, PARTIALLY_PAID,
PARTIALLY_PAID_OVERDUE, OVERDUE, PAID), and a daily sweep moves invoices past
their due date into the overdue statuses.`,
	Version:      version,
	SilenceUsage: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
