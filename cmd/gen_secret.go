package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicing-backend/utils"
)

var genSecretCmd = &cobra.Command{
	Use:   "gen-secret",
	Short: "Print a random value suitable for JWT_SECRET",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(utils.GenerateJWTSecret())
	},
}

func init() {
	rootCmd.AddCommand(genSecretCmd)
}
