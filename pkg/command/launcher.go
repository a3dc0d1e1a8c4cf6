package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// WaitResult is the outcome of waiting on a child process.
type WaitResult struct {
	TimedOut bool
	ExitCode int
}

// Process is one spawned child. The contract is narrow on purpose: feed it
// exactly one payload line, wait with a deadline, and force-kill if the
// deadline elapses. ForceKill must also reap so repeated timeouts cannot
// leak processes.
type Process interface {
	WriteAndCloseInput(line []byte) error
	WaitTimeout(d time.Duration) (WaitResult, error)
	ForceKill() error
}

// Launcher abstracts child process creation so tests can fake it. Platform
// details (pipe setup, argument handling) live behind this boundary.
type Launcher interface {
	Launch(program string, args []string) (Process, error)
}

// ExecLauncher is the production Launcher built on os/exec. The child
// inherits the parent's stdout and stderr; only stdin is piped.
type ExecLauncher struct{}

// Launch starts program with the fixed argument list and returns a handle
// to the running child.
func (ExecLauncher) Launch(program string, args []string) (Process, error) {
	cmd := exec.Command(program, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("start %s: %w", program, err)
	}

	p := &execProcess{cmd: cmd, stdin: stdin, waitCh: make(chan error, 1)}
	// Exactly one cmd.Wait call; WaitTimeout and ForceKill both consume
	// its result through waitCh.
	go func() { p.waitCh <- cmd.Wait() }()
	return p, nil
}

type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	waitCh chan error
}

func (p *execProcess) WriteAndCloseInput(line []byte) error {
	defer func() { _ = p.stdin.Close() }()
	if _, err := p.stdin.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

func (p *execProcess) WaitTimeout(d time.Duration) (WaitResult, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case err := <-p.waitCh:
		return waitResult(err)
	case <-timer.C:
		return WaitResult{TimedOut: true}, nil
	}
}

func (p *execProcess) ForceKill() error {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	// Reap: the background Wait returns once the process is gone.
	<-p.waitCh
	return nil
}

func waitResult(err error) (WaitResult, error) {
	if err == nil {
		return WaitResult{}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return WaitResult{ExitCode: exitErr.ExitCode()}, nil
	}
	return WaitResult{}, err
}
