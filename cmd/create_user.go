package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicing-backend/models"
)

var createUserCmd = &cobra.Command{
	Use:     "create-user",
	Short:   "Add a user with a role",
	Example: `  invoicing create-user --username jane --email jane@example.com --password s3cret-pass --role ROLE_MODERATOR`,
	RunE:    runCreateUser,
}

func init() {
	rootCmd.AddCommand(createUserCmd)

	createUserCmd.Flags().String("username", "", "Username (required)")
	createUserCmd.Flags().String("email", "", "Email address (required)")
	createUserCmd.Flags().String("password", "", "Password, at least 8 characters (required)")
	createUserCmd.Flags().String("role", models.RoleUser, "One of ROLE_USER, ROLE_MODERATOR, ROLE_ADMIN")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("email")
	_ = createUserCmd.MarkFlagRequired("password")
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")

	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	app, err := newApplication(cmd.Context())
	if err != nil {
		return err
	}
	defer app.close()

	user, err := app.deps.Users.Register(cmd.Context(), username, email, password, role)
	if err != nil {
		return err
	}

	fmt.Printf("created %s (%s) with role %s\n", user.Username, user.ID, user.Role)
	return nil
}
