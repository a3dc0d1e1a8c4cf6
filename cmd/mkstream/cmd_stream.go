package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mkstream/pkg/archive"
	"mkstream/pkg/command"
	"mkstream/pkg/config"
	"mkstream/pkg/event"
	"mkstream/pkg/streaming"
)

// newStreamCmd creates the "mkstream stream" subcommand.
func newStreamCmd(configPath *string) *cobra.Command {
	var format string
	var channels []string

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Connect to the streaming API and emit normalized events",
		Long: `Connects to the instance's streaming WebSocket, subscribes to the
configured channels, and prints one normalized event per line.

Events matching the configured allow-list are also forwarded to the
external command, one child process invocation per event.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if format != "" {
				cfg.Output.Format = format
			}
			if len(channels) > 0 {
				cfg.Streaming.Channels = channels
			}
			if err := cfg.ValidateStream(); err != nil {
				return fmt.Errorf("config %s: %w", *configPath, err)
			}
			return runStream(cmd, cfg)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: jsonl, human or auto (overrides config)")
	cmd.Flags().StringArrayVar(&channels, "channel", nil, "channel to subscribe (repeatable, overrides config)")

	return cmd
}

// runStream wires the pipeline: streaming client -> handler -> stdout,
// archive, and the command forwarder.
func runStream(cmd *cobra.Command, cfg *config.Config) error {
	stdoutTTY := isatty.IsTerminal(os.Stdout.Fd())

	renderer := event.Renderer{
		Format: resolveFormat(cfg.Output.Format, stdoutTTY),
	}
	renderer.Color = renderer.Format == event.FormatHuman && stdoutTTY

	var recorder event.Recorder
	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	cmdCfg := command.Config{
		Enabled:      cfg.Command.Enabled,
		Program:      cfg.Command.Program,
		Args:         cfg.Command.Args,
		Events:       cfg.Command.Events,
		MaxQueueSize: cfg.Command.MaxQueueSize,
	}
	executor := command.NewExecutor(cmdCfg, command.ExecLauncher{})
	forwarder := command.NewForwarder(cmdCfg, executor)
	forwarder.Start()
	defer forwarder.Stop()

	handler := event.NewHandler(os.Stdout, renderer, forwarder, recorder)
	client := streaming.New(cfg.Secrets.URI, cfg.Secrets.Token, cfg.Streaming.Channels, handler)

	return client.Run(cmd.Context())
}

// resolveFormat maps the config selector onto a renderer format; "auto"
// picks human on a terminal and jsonl when piped.
func resolveFormat(selector string, tty bool) event.Format {
	switch selector {
	case config.FormatHuman:
		return event.FormatHuman
	case config.FormatAuto:
		if tty {
			return event.FormatHuman
		}
		return event.FormatJSONL
	default:
		return event.FormatJSONL
	}
}
