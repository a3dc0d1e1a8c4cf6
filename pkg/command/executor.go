package command

import (
	"log"
	"os"
	"time"
)

// DefaultDispatchTimeout is how long a child process may run before it is
// forcibly terminated.
const DefaultDispatchTimeout = 10 * time.Second

// Executor spawns the configured program once per payload, writes the
// payload to its stdin, and waits for completion with a hard deadline.
// Exactly one child is in flight at a time; every failure mode (spawn
// error, non-zero exit, timeout) is logged and isolated; none of them
// stops the pipeline.
type Executor struct {
	cfg      Config
	launcher Launcher
	timeout  time.Duration
	logger   *log.Logger
}

// NewExecutor creates an Executor with the default deadline, logging
// diagnostics to stderr.
func NewExecutor(cfg Config, launcher Launcher) *Executor {
	return &Executor{
		cfg:      cfg,
		launcher: launcher,
		timeout:  DefaultDispatchTimeout,
		logger:   log.New(os.Stderr, "[cmd] ", 0),
	}
}

// SetTimeout overrides the wait deadline (for tests).
func (e *Executor) SetTimeout(d time.Duration) {
	e.timeout = d
}

// SetLogger overrides the diagnostic logger (for tests).
func (e *Executor) SetLogger(l *log.Logger) {
	e.logger = l
}

// Dispatch runs one invocation: spawn, feed payload, wait, and reap.
func (e *Executor) Dispatch(payload string) {
	proc, err := e.launcher.Launch(e.cfg.Program, e.cfg.Args)
	if err != nil {
		e.logger.Printf("launch %q: %v", e.cfg.Program, err)
		return
	}

	if err := proc.WriteAndCloseInput([]byte(payload)); err != nil {
		// The child may have exited before reading; still wait below so it
		// gets reaped.
		e.logger.Printf("write to %q: %v", e.cfg.Program, err)
	}

	res, err := proc.WaitTimeout(e.timeout)
	switch {
	case err != nil:
		e.logger.Printf("wait for %q: %v", e.cfg.Program, err)
	case res.TimedOut:
		_ = proc.ForceKill()
		e.logger.Printf("%q timed out after %s, killed", e.cfg.Program, e.timeout)
	case res.ExitCode != 0:
		e.logger.Printf("%q exited with code %d", e.cfg.Program, res.ExitCode)
	}
}
