package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"madrigal/internal/config"
)

func newMountCommand(ctx *commandContext) *cobra.Command {
	mountCmd := &cobra.Command{
		Use:   "mount",
		Short: "Manage collection mount points",
	}

	mountCmd.AddCommand(newMountAddCommand(ctx))
	mountCmd.AddCommand(newMountRemoveCommand(ctx))
	mountCmd.AddCommand(newMountListCommand(ctx))

	return mountCmd
}

func newMountAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <source>",
		Short: "Expose a directory under a virtual root name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			mounts := append(store.Mounts(), config.MountDir{Name: args[0], Source: args[1]})
			if err := store.SetMounts(mounts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Mounted %s as %s\n", args[1], args[0])
			return nil
		},
	}
}

func newMountRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a mount point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			current := store.Mounts()
			kept := current[:0]
			for _, mount := range current {
				if mount.Name != args[0] {
					kept = append(kept, mount)
				}
			}
			if len(kept) == len(current) {
				return fmt.Errorf("no mount named %q", args[0])
			}
			if err := store.SetMounts(kept); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed mount %s\n", args[0])
			return nil
		},
	}
}

func newMountListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List mount points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			mounts := store.Mounts()
			if len(mounts) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No mounts configured")
				return nil
			}
			rows := make([][]string, 0, len(mounts))
			for _, mount := range mounts {
				rows = append(rows, []string{mount.Name, mount.Source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Source"}, rows))
			return nil
		},
	}
}
