// Package command forwards canonical events to a user-configured external
// program. Events are serialized once, queued in a bounded drop-oldest FIFO,
// and drained by a single worker that spawns one child process per event,
// pipes the payload to its stdin, and enforces a hard wait deadline.
//
// Forwarding is best-effort by design: overflow silently drops the oldest
// entries, and child failures are logged but never propagate to the
// stream-reading path.
package command

// DefaultMaxQueueSize bounds the dispatch queue when the configuration
// does not set a capacity.
const DefaultMaxQueueSize = 100

// Config controls external command forwarding. It is read once at startup
// and immutable for the process lifetime.
type Config struct {
	Enabled      bool     // forward events at all
	Program      string   // program to spawn, resolved via PATH
	Args         []string // fixed arguments, prepended before stdin payload
	Events       []string // event kinds to forward; empty = all
	MaxQueueSize int      // queue capacity; DefaultMaxQueueSize if <= 0
}

// queueSize returns the effective queue capacity.
func (c Config) queueSize() int {
	if c.MaxQueueSize <= 0 {
		return DefaultMaxQueueSize
	}
	return c.MaxQueueSize
}
