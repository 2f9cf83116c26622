package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/voting-be/internal/models"
	"github.com/spf13/cobra"
)

var (
	userName     string
	userEmail    string
	userPassword string
	userAge      int
	userAdmin    bool
)

func init() {
	useraddCmd.Flags().StringVar(&userName, "name", "", "display name")
	useraddCmd.Flags().StringVar(&userEmail, "email", "", "login email")
	useraddCmd.Flags().StringVar(&userPassword, "password", "", "login password (at least 6 characters)")
	useraddCmd.Flags().IntVar(&userAge, "age", 0, "age")
	useraddCmd.Flags().BoolVar(&userAdmin, "admin", false, "create the admin account")
	_ = useraddCmd.MarkFlagRequired("name")
	_ = useraddCmd.MarkFlagRequired("email")
	_ = useraddCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(useraddCmd)
}

var useraddCmd = &cobra.Command{
	Use:   "useradd",
	Short: "Create a user account directly in the store",
	Example: `  voting-be useradd --name Admin --email admin@example.com --password secret1 --admin
  voting-be useradd --name Jane --email jane@example.com --password secret1 --age 30`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		st, err := openStores(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.close()

		role := models.RoleVoter
		if userAdmin {
			role = models.RoleAdmin
		}
		user, err := st.users.CreateUser(ctx, models.SignupPayload{
			Name:     userName,
			Email:    userEmail,
			Password: userPassword,
			Age:      userAge,
			Role:     role,
		})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", user.Role, user.Email, user.ID)
		return nil
	},
}
