package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// configTemplate is the starter configuration written by `mkstream init`.
const configTemplate = `[secrets]
uri = "misskey.example"
token = "your-api-token"

[output]
# jsonl | human | auto (auto: human on a terminal, jsonl when piped)
format = "jsonl"

[streaming]
# timeline channels: home, local, social, hybridTimeline, global
channels = ["hybridTimeline"]

[command]
# Forward each event to an external program as one JSON line on stdin.
enabled = false
program = "openclaw"
args = ["message", "send"]
# Event kinds to forward; empty = all.
events = ["note", "mention", "notification"]
max_queue_size = 100

[archive]
# Record events to a local SQLite database, queryable with "mkstream logs".
enabled = false
path = "mkstream.db"
`

// newInitCmd creates the "mkstream init" subcommand.
func newInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config.toml",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")

	return cmd
}
