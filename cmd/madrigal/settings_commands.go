package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSettingsCommand(ctx *commandContext) *cobra.Command {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and change server settings",
	}

	settingsCmd.AddCommand(newSettingsShowCommand(ctx))
	settingsCmd.AddCommand(newSettingsSetCommand(ctx))

	return settingsCmd
}

func newSettingsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print current settings with defaults applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			settings := store.Settings()
			ddns := settings.DDNSUpdateURL
			if ddns == "" {
				ddns = "(unset)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Setting", "Value"},
				[][]string{
					{"Reindex interval", settings.ReindexInterval.String()},
					{"Album art pattern", settings.AlbumArtPattern.String()},
					{"DDNS update URL", ddns},
				},
			))
			return nil
		},
	}
}

func newSettingsSetCommand(ctx *commandContext) *cobra.Command {
	var reindexInterval time.Duration
	var albumArtPattern string
	var ddnsURL string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if reindexInterval == 0 && albumArtPattern == "" && !cmd.Flags().Changed("ddns-url") {
				return fmt.Errorf("nothing to change; see --help for available settings")
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if reindexInterval != 0 {
				if err := store.SetReindexInterval(reindexInterval); err != nil {
					return err
				}
				fmt.Fprintf(out, "Reindex interval set to %s\n", reindexInterval)
			}
			if albumArtPattern != "" {
				if err := store.SetAlbumArtPattern(albumArtPattern); err != nil {
					return err
				}
				fmt.Fprintf(out, "Album art pattern set to %s\n", albumArtPattern)
			}
			if cmd.Flags().Changed("ddns-url") {
				if err := store.SetDDNSUpdateURL(ddnsURL); err != nil {
					return err
				}
				if ddnsURL == "" {
					fmt.Fprintln(out, "DDNS update URL cleared")
				} else {
					fmt.Fprintf(out, "DDNS update URL set to %s\n", ddnsURL)
				}
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&reindexInterval, "reindex-interval", 0, "Delay between collection rescans (e.g. 30m)")
	cmd.Flags().StringVar(&albumArtPattern, "album-art-pattern", "", "Filename pattern used to locate album art")
	cmd.Flags().StringVar(&ddnsURL, "ddns-url", "", "URL polled to refresh dynamic DNS records (empty clears)")
	return cmd
}
