package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicing-backend/logger"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the overdue sweep once and exit",
	Long: `Reconcile every open invoice whose due date has passed.

Invoices without payments become OVERDUE; partially paid ones become
PARTIALLY_PAID_OVERDUE unless STATUS_SPLIT_PARTIAL_OVERDUE=false.`,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("sweep")

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	result, err := app.deps.Sweeper.Run(cmd.Context())
	if result != nil {
		for _, t := range result.Transitions {
			fmt.Printf("%s  %s -> %s\n", t.InvoiceID, t.From, t.To)
		}
		log.Info().
			Int("scanned", result.Scanned).
			Int("updated", len(result.Transitions)).
			Msg("sweep finished")
	}
	return err
}
