package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mkstream/internal/version"
)

// newRootCmd creates the root mkstream command with all subcommands attached.
func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "mkstream",
		Short:         "Misskey streaming event normalizer",
		Long:          "mkstream connects to a Misskey instance's streaming API, normalizes\nevents into a stable taxonomy, and optionally pipes them to an external command.",
		Version:       fmt.Sprintf("mkstream %s", version.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config.toml")

	cmd.AddCommand(
		newStreamCmd(&configPath),
		newPostCmd(&configPath),
		newLogsCmd(&configPath),
		newInitCmd(&configPath),
	)

	return cmd
}

// defaultConfigPath places config.toml next to the executable, falling back
// to the working directory when the executable path cannot be resolved.
func defaultConfigPath() string {
	exe, err := os.Executable()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(filepath.Dir(exe), "config.toml")
}
