package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

// usersRootCmd returns the "users" command group for credential table management.
// The admin account is protected by the user service, not by these commands.
func usersRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts in the credential table",
	}

	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersAddCmd())
	cmd.AddCommand(usersUpdateCmd())
	cmd.AddCommand(usersDeleteCmd())

	return cmd
}

func withUsers(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := loadApp(envName)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.openCredentials(cmd.Context()); err != nil {
		return err
	}
	return fn(a)
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withUsers(cmd, func(a *app) error {
				rows, err := a.users.List(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "USERNAME\tEMAIL\tADMIN")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%t\n", r.Username, r.Email, credential.IsAdmin(r.Username))
				}
				return tw.Flush()
			})
		},
	}
}

func usersAddCmd() *cobra.Command {
	var email, pass string

	cmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, func(a *app) error {
				if err := a.users.Register(cmd.Context(), args[0], email, pass); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %q created\n", args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&pass, "password", "", "password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func usersUpdateCmd() *cobra.Command {
	var newUsername, email string

	cmd := &cobra.Command{
		Use:   "update <username>",
		Short: "Rename an account and replace its email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if newUsername == "" {
				newUsername = args[0]
			}
			return withUsers(cmd, func(a *app) error {
				if !cmd.Flags().Changed("email") {
					rows, err := a.users.List(cmd.Context())
					if err != nil {
						return err
					}
					if email, err = currentEmail(rows, args[0]); err != nil {
						return err
					}
				}
				if err := a.users.Update(cmd.Context(), args[0], newUsername, email); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %q updated\n", newUsername)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&newUsername, "username", "", "new username (default: unchanged)")
	cmd.Flags().StringVar(&email, "email", "", "new email (default: unchanged)")
	return cmd
}

func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUsers(cmd, func(a *app) error {
				if err := a.users.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "User %q deleted\n", args[0])
				return nil
			})
		},
	}
}

// currentEmail returns the stored email of username, the first row when duplicates exist.
func currentEmail(rows []credential.Credential, username string) (string, error) {
	for _, r := range rows {
		if r.Username == username {
			return r.Email, nil
		}
	}
	return "", fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}
