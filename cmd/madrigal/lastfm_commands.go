package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"madrigal/internal/lastfm"
)

func newLastFMCommand(ctx *commandContext) *cobra.Command {
	lastfmCmd := &cobra.Command{
		Use:   "lastfm",
		Short: "Manage last.fm account links",
	}

	lastfmCmd.AddCommand(newLastFMLinkTokenCommand(ctx))
	lastfmCmd.AddCommand(newLastFMLinkCommand(ctx))
	lastfmCmd.AddCommand(newLastFMUnlinkCommand(ctx))

	return lastfmCmd
}

func newLastFMLinkTokenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "link-token <name>",
		Short: "Issue a token for completing a last.fm account link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			token, err := store.GenerateLinkToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newLastFMLinkCommand(ctx *commandContext) *cobra.Command {
	var apiKey string
	var apiSecret string

	cmd := &cobra.Command{
		Use:   "link <name> <lastfm-token>",
		Short: "Exchange a last.fm token and store the session on the user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" || apiSecret == "" {
				return fmt.Errorf("--api-key and --api-secret are required")
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			sink := lastfm.NewClient(apiKey, apiSecret)
			manager := lastfm.NewManager(store, nil, sink, ctx.ensureLogger())
			if err := manager.Link(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Linked last.fm account for %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "api-key", "", "last.fm API key")
	cmd.Flags().StringVar(&apiSecret, "api-secret", "", "last.fm shared secret")
	return cmd
}

func newLastFMUnlinkCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <name>",
		Short: "Discard the stored last.fm credential for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}
			if err := store.UnlinkLastFM(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlinked last.fm account for %s\n", args[0])
			return nil
		},
	}
}
