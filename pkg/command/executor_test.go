package command_test

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"mkstream/pkg/command"
)

// fakeProcess scripts the Process interface.
type fakeProcess struct {
	input      []byte
	writeErr   error
	waitRes    command.WaitResult
	waitErr    error
	killCalled bool
}

func (p *fakeProcess) WriteAndCloseInput(line []byte) error {
	p.input = append([]byte(nil), line...)
	return p.writeErr
}

func (p *fakeProcess) WaitTimeout(time.Duration) (command.WaitResult, error) {
	return p.waitRes, p.waitErr
}

func (p *fakeProcess) ForceKill() error {
	p.killCalled = true
	return nil
}

// fakeLauncher returns a scripted process or a launch error.
type fakeLauncher struct {
	proc      *fakeProcess
	launchErr error
	program   string
	args      []string
}

func (l *fakeLauncher) Launch(program string, args []string) (command.Process, error) {
	l.program = program
	l.args = args
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.proc, nil
}

func newTestExecutor(cfg command.Config, l command.Launcher) (*command.Executor, *bytes.Buffer) {
	e := command.NewExecutor(cfg, l)
	var buf bytes.Buffer
	e.SetLogger(log.New(&buf, "", 0))
	return e, &buf
}

func TestExecutorDispatchSuccess(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{proc: &fakeProcess{}}
	e, logs := newTestExecutor(command.Config{
		Program: "openclaw",
		Args:    []string{"message", "send"},
	}, l)

	e.Dispatch(`{"event":"note","data":{}}`)

	if l.program != "openclaw" || len(l.args) != 2 || l.args[0] != "message" {
		t.Errorf("launched %q %v", l.program, l.args)
	}
	if string(l.proc.input) != `{"event":"note","data":{}}` {
		t.Errorf("payload = %q", l.proc.input)
	}
	if logs.Len() != 0 {
		t.Errorf("success should log nothing, got %q", logs.String())
	}
	if l.proc.killCalled {
		t.Error("ForceKill called on clean exit")
	}
}

func TestExecutorLaunchFailureIsIsolated(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{launchErr: errors.New("no such file")}
	e, logs := newTestExecutor(command.Config{Program: "missing-prog"}, l)

	e.Dispatch(`{}`)

	if !strings.Contains(logs.String(), "missing-prog") || !strings.Contains(logs.String(), "no such file") {
		t.Errorf("launch failure not logged: %q", logs.String())
	}
}

func TestExecutorNonZeroExitLogged(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{proc: &fakeProcess{waitRes: command.WaitResult{ExitCode: 3}}}
	e, logs := newTestExecutor(command.Config{Program: "failing"}, l)

	e.Dispatch(`{}`)

	if !strings.Contains(logs.String(), "exited with code 3") {
		t.Errorf("non-zero exit not logged: %q", logs.String())
	}
	if l.proc.killCalled {
		t.Error("ForceKill called on normal non-zero exit")
	}
}

func TestExecutorTimeoutKillsAndReaps(t *testing.T) {
	t.Parallel()

	l := &fakeLauncher{proc: &fakeProcess{waitRes: command.WaitResult{TimedOut: true}}}
	e, logs := newTestExecutor(command.Config{Program: "hung"}, l)
	e.SetTimeout(10 * time.Millisecond)

	e.Dispatch(`{}`)

	if !l.proc.killCalled {
		t.Error("timed-out process was not force-killed")
	}
	if !strings.Contains(logs.String(), "timed out") {
		t.Errorf("timeout not logged: %q", logs.String())
	}
}

func TestExecutorWriteFailureStillWaits(t *testing.T) {
	t.Parallel()

	// The child may exit before reading stdin; the write error must be
	// logged and the process still waited on.
	l := &fakeLauncher{proc: &fakeProcess{
		writeErr: errors.New("broken pipe"),
		waitRes:  command.WaitResult{ExitCode: 1},
	}}
	e, logs := newTestExecutor(command.Config{Program: "quick-exit"}, l)

	e.Dispatch(`{}`)

	if !strings.Contains(logs.String(), "broken pipe") {
		t.Errorf("write failure not logged: %q", logs.String())
	}
	if !strings.Contains(logs.String(), "exited with code 1") {
		t.Errorf("exit status not collected after write failure: %q", logs.String())
	}
}
