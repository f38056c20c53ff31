package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newUserRemoveCommand(ctx))
	userCmd.AddCommand(newUserListCommand(ctx))
	userCmd.AddCommand(newUserSetPasswordCommand(ctx))
	userCmd.AddCommand(newUserSetAdminCommand(ctx))

	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var admin bool

	cmd := &cobra.Command{
		Use:   "add <name> <password>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.CreateUser(args[0], args[1], admin); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&admin, "admin", false, "Grant administrative rights")
	return cmd
}

func newUserRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.DeleteUser(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed user %s\n", args[0])
			return nil
		},
	}
}

func newUserListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			users := store.Users()
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users configured")
				return nil
			}
			rows := make([][]string, 0, len(users))
			for _, user := range users {
				admin := ""
				if user.Admin {
					admin = "yes"
				}
				lastfm := user.LastFMUsername
				rows = append(rows, []string{user.Name, admin, lastfm})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "Admin", "Last.fm"},
				rows,
			))
			return nil
		},
	}
}

func newUserSetPasswordCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set-password <name> <password>",
		Short: "Replace a user's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.SetPassword(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated password for %s\n", args[0])
			return nil
		},
	}
}

func newUserSetAdminCommand(ctx *commandContext) *cobra.Command {
	var revoke bool

	cmd := &cobra.Command{
		Use:   "set-admin <name>",
		Short: "Grant or revoke administrative rights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.SetAdmin(args[0], !revoke); err != nil {
				return err
			}
			if revoke {
				fmt.Fprintf(cmd.OutOrStdout(), "Revoked admin rights from %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Granted admin rights to %s\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&revoke, "revoke", false, "Revoke instead of grant")
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login <name> <password>",
		Short: "Verify credentials and print a bearer token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			token, err := store.Login(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
