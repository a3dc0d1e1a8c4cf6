// Package config loads the mkstream TOML configuration file. The file is
// read once at startup; the resulting value is immutable for the process
// lifetime and passed by reference into the components that need it.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Output format selectors. Auto resolves to human on a terminal and jsonl
// otherwise.
const (
	FormatJSONL = "jsonl"
	FormatHuman = "human"
	FormatAuto  = "auto"
)

// Config is the full configuration surface.
type Config struct {
	Secrets   Secrets   `toml:"secrets"`
	Output    Output    `toml:"output"`
	Command   Command   `toml:"command"`
	Streaming Streaming `toml:"streaming"`
	Archive   Archive   `toml:"archive"`
}

// Secrets identifies the Misskey instance and API token.
type Secrets struct {
	URI   string `toml:"uri"`   // instance host, e.g. "misskey.example"
	Token string `toml:"token"` // API token ("i" parameter)
}

// Output selects the stdout rendering format.
type Output struct {
	Format string `toml:"format"` // jsonl | human | auto
}

// Command configures external event forwarding.
type Command struct {
	Enabled      bool     `toml:"enabled"`
	Program      string   `toml:"program"`
	Args         []string `toml:"args"`
	Events       []string `toml:"events"` // kinds to forward; empty = all
	MaxQueueSize int      `toml:"max_queue_size"`
}

// Streaming configures the WebSocket subscription.
type Streaming struct {
	Channels []string `toml:"channels"`
}

// Archive configures the SQLite event archive.
type Archive struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Defaults applied by Load when the file leaves fields unset.
const (
	DefaultFormat       = FormatJSONL
	DefaultMaxQueueSize = 100
	DefaultArchivePath  = "mkstream.db"
)

// DefaultChannels is the subscription list used when [streaming] names none.
var DefaultChannels = []string{"hybridTimeline"}

// Load reads and parses the configuration file at path and applies
// defaults. A missing or unparseable file is an error; a missing config is
// one of the two fatal conditions of the program.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = DefaultFormat
	}
	if c.Command.MaxQueueSize <= 0 {
		c.Command.MaxQueueSize = DefaultMaxQueueSize
	}
	if len(c.Streaming.Channels) == 0 {
		c.Streaming.Channels = append([]string(nil), DefaultChannels...)
	}
	if c.Archive.Path == "" {
		c.Archive.Path = DefaultArchivePath
	}
}

// ValidateStream checks the fields the stream command requires.
func (c *Config) ValidateStream() error {
	if c.Secrets.URI == "" {
		return fmt.Errorf("secrets.uri is required")
	}
	if c.Secrets.Token == "" {
		return fmt.Errorf("secrets.token is required")
	}
	switch c.Output.Format {
	case FormatJSONL, FormatHuman, FormatAuto:
	default:
		return fmt.Errorf("output.format must be %q, %q or %q, got %q",
			FormatJSONL, FormatHuman, FormatAuto, c.Output.Format)
	}
	if c.Command.Enabled && c.Command.Program == "" {
		return fmt.Errorf("command.enabled is set but command.program is empty")
	}
	return nil
}
