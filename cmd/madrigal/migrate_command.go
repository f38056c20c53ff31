package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"madrigal/internal/auth"
	"madrigal/internal/legacy"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var deleteLegacyDB bool

	cmd := &cobra.Command{
		Use:   "migrate <legacy-db-path>",
		Short: "Import settings, mounts, and users from a legacy database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			engine := legacy.NewEngine(store, nil, ctx.ensureLogger())
			result, err := engine.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			// The imported secret replaces the local one so tokens issued
			// by the old deployment keep verifying.
			secretPath, err := ctx.secretPath()
			if err != nil {
				return err
			}
			if err := auth.WriteSecret(secretPath, result.Secret); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Imported %d mount(s) and %d user(s) from %s\n",
				len(store.Mounts()), len(store.Users()), args[0])

			if deleteLegacyDB {
				if err := legacy.DeleteDB(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted legacy database %s\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteLegacyDB, "delete-legacy-db", false, "Remove the legacy database after a successful import")
	return cmd
}
