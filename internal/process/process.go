package process

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
)

// MIFlag selects GDB's machine-interface interpreter.
const MIFlag = "--interpreter=mi2"

// State represents the state of the backend process.
type State int

const (
	// StateCreated indicates the process has been created but not started.
	StateCreated State = iota
	// StateRunning indicates the process is currently running.
	StateRunning
	// StateExited indicates the process has exited normally or with an error.
	StateExited
	// StateKilled indicates the process was killed by a signal.
	StateKilled
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Sentinel errors.
var (
	// ErrNotStarted is returned when operations require a started process.
	ErrNotStarted = errors.New("process not started")

	// ErrAlreadyStarted is returned when starting an already started process.
	ErrAlreadyStarted = errors.New("process already started")
)

// Process is the managed GDB subprocess. It wraps an exec.Cmd with pipe
// wiring, exit tracking, and graceful shutdown. Safe for concurrent use.
type Process struct {
	// ID uniquely identifies this process instance.
	ID string

	// Stdin is the backend's command input pipe.
	Stdin io.WriteCloser

	// Stdout is the backend's MI output pipe.
	Stdout io.ReadCloser

	// Stderr is the backend's diagnostic output pipe.
	Stderr io.ReadCloser

	cmd     *exec.Cmd
	started time.Time

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	exitErr error
	mu      sync.RWMutex

	waitOnce sync.Once
}

// New creates a process for the given gdb binary with the MI flag and an
// optional target executable as the final argument. The command is not
// started; call Start.
func New(gdbPath, target string) *Process {
	args := []string{MIFlag}
	if target != "" {
		args = append(args, target)
	}
	return NewCommand(gdbPath, args...)
}

// NewCommand creates a process for an arbitrary command line.
func NewCommand(path string, args ...string) *Process {
	p := &Process{
		ID:   uuid.New().String(),
		cmd:  exec.Command(path, args...),
		done: make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

// Start wires the three standard pipes and launches the backend. A wait
// goroutine tracks the exit.
func (p *Process) Start() error {
	if p.State() != StateCreated {
		return ErrAlreadyStarted
	}

	stdin, err := p.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("create stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stderr.Close()
		return fmt.Errorf("start %s: %w", p.cmd.Path, err)
	}

	p.Stdin = stdin
	p.Stdout = stdout
	p.Stderr = stderr
	p.started = time.Now()
	p.state.Store(int32(StateRunning))

	go p.waitLoop()

	return nil
}

// waitLoop waits for the process to exit and records the outcome.
func (p *Process) waitLoop() {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()

		p.mu.Lock()
		p.exitErr = err
		p.mu.Unlock()

		exitCode := 0
		state := StateExited

		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					state = StateKilled
				}
			} else {
				exitCode = -1
			}
		}

		p.exitCode.Store(int32(exitCode))
		p.state.Store(int32(state))
		close(p.done)
	})
}

// State returns the current process state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// IsRunning returns true if the backend is currently running.
func (p *Process) IsRunning() bool {
	return p.State() == StateRunning
}

// Done returns a channel closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// ExitCode returns the exit code, or -1 if the process has not exited.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns any error from waiting on the process.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// PID returns the operating-system process ID, or -1 if not started.
func (p *Process) PID() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// Runtime returns how long the process has been running.
func (p *Process) Runtime() time.Duration {
	if p.started.IsZero() {
		return 0
	}
	return time.Since(p.started)
}

// Signal sends a signal to the process.
func (p *Process) Signal(sig syscall.Signal) error {
	if !p.IsRunning() {
		return ErrNotStarted
	}
	if p.cmd.Process == nil {
		return ErrNotStarted
	}
	return p.cmd.Process.Signal(sig)
}

// Shutdown terminates the backend: SIGTERM, wait up to grace, then SIGKILL.
// It never returns an error and is safe to call in any state, including
// after the process has already exited.
func (p *Process) Shutdown(grace time.Duration) {
	if !p.IsRunning() {
		p.closePipes()
		return
	}

	_ = p.Signal(syscall.SIGTERM)

	select {
	case <-p.done:
	case <-time.After(grace):
		_ = p.Signal(syscall.SIGKILL)
		<-p.done
	}

	p.closePipes()
}

// closePipes releases the standard I/O handles.
func (p *Process) closePipes() {
	if p.Stdin != nil {
		_ = p.Stdin.Close()
	}
	if p.Stdout != nil {
		_ = p.Stdout.Close()
	}
	if p.Stderr != nil {
		_ = p.Stderr.Close()
	}
}
