package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"mkstream/pkg/archive"
	"mkstream/pkg/config"
)

// followPollInterval is the fallback poll cadence while following; SQLite
// WAL writes don't always produce a watchable event on the main db file.
const followPollInterval = time.Second

// logsConfig holds configuration for the logs command.
type logsConfig struct {
	tail   int
	follow bool
	kind   string
}

// newLogsCmd creates the "mkstream logs" subcommand.
func newLogsCmd(configPath *string) *cobra.Command {
	var lc logsConfig

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Query and tail the event archive",
		Long:  "Displays archived events recorded by `mkstream stream` with\n[archive] enabled. Optionally filter by event kind and follow new events.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}

			store, err := archive.OpenReadOnly(cfg.Archive.Path)
			if err != nil {
				return fmt.Errorf("open archive: %w", err)
			}
			defer store.Close()

			w := cmd.OutOrStdout()
			last, err := printTail(cmd.Context(), store, w, lc)
			if err != nil {
				return err
			}
			if !lc.follow {
				return nil
			}
			return followLogs(cmd.Context(), store, w, cfg.Archive.Path, lc.kind, last)
		},
	}

	cmd.Flags().IntVar(&lc.tail, "tail", 20, "number of recent events to show")
	cmd.Flags().BoolVarP(&lc.follow, "follow", "f", false, "wait for and print new events")
	cmd.Flags().StringVar(&lc.kind, "event", "", "only show events of this kind")

	return cmd
}

// printTail prints the most recent events and returns the last printed
// sequence number.
func printTail(ctx context.Context, store *archive.Store, w io.Writer, lc logsConfig) (int64, error) {
	rows, err := store.Tail(ctx, lc.kind, lc.tail)
	if err != nil {
		return 0, err
	}
	var last int64
	for _, r := range rows {
		printRow(w, r)
		last = r.Seq
	}
	return last, nil
}

// followLogs prints new events as they are archived, waking on filesystem
// changes to the database with a poll fallback.
func followLogs(ctx context.Context, store *archive.Store, w io.Writer, dbPath, kind string, last int64) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: the WAL checkpoint may replace or touch files
	// next to the database rather than the database itself.
	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(dbPath), err)
	}

	ticker := time.NewTicker(followPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-watcher.Events:
		case err := <-watcher.Errors:
			if err != nil {
				return fmt.Errorf("watch archive: %w", err)
			}
		case <-ticker.C:
		}

		rows, err := store.Query(ctx, archive.QueryOpts{Kind: kind, AfterSeq: last})
		if err != nil {
			return err
		}
		for _, r := range rows {
			printRow(w, r)
			last = r.Seq
		}
	}
}

// printRow re-assembles the stored event as a jsonl line.
func printRow(w io.Writer, r archive.Row) {
	fmt.Fprintf(w, "{\"ts\":%q,\"event\":%q,\"data\":%s}\n", r.TS, r.Kind, r.Data)
}
