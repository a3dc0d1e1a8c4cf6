package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mkstream/pkg/api"
	"mkstream/pkg/config"
)

// newPostCmd creates the "mkstream post" subcommand.
func newPostCmd(configPath *string) *cobra.Command {
	var visibility string

	cmd := &cobra.Command{
		Use:   "post <text>...",
		Short: "Create a note on the configured instance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Secrets.URI == "" || cfg.Secrets.Token == "" {
				return fmt.Errorf("config %s: secrets.uri and secrets.token are required", *configPath)
			}

			text := strings.Join(args, " ")
			client := api.New(cfg.Secrets.URI, cfg.Secrets.Token)
			if err := client.CreateNote(cmd.Context(), text, visibility); err != nil {
				return fmt.Errorf("create note: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "posted")
			return nil
		},
	}

	cmd.Flags().StringVar(&visibility, "visibility", "public", "note visibility: public, home, followers or specified")

	return cmd
}
