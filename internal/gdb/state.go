package gdb

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/gdbmi/internal/mi"
)

// Status represents the debuggee's execution status.
type Status int

const (
	// StatusDisconnected means no backend process is attached.
	StatusDisconnected Status = iota
	// StatusConnected means the backend is up but the debuggee has not run.
	StatusConnected
	// StatusRunning means the debuggee is executing.
	StatusRunning
	// StatusStopped means the debuggee is paused (breakpoint, step, signal).
	StatusStopped
	// StatusExited means the debuggee has finished.
	StatusExited
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnected:
		return "connected"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	case StatusExited:
		return "exited"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// State is a snapshot of the debuggee. File, Line and Function are only
// meaningful when Status is StatusStopped; they are cleared on every
// transition to running or exited, and on entry to stopped before the new
// location is parsed, so a previous stop's location never carries over.
type State struct {
	Status   Status
	File     string
	Line     int
	Function string
}

// machine maintains the debuggee state from untokenized asynchronous
// notifications. Malformed or unrecognized notifications are ignored; the
// machine never fails.
type machine struct {
	mu    sync.RWMutex
	state State

	// notify receives an immutable snapshot after every transition. Called
	// synchronously on the transitioning goroutine (the output pump for
	// notification-driven transitions).
	notify func(State)
}

func newMachine(notify func(State)) *machine {
	return &machine{notify: notify}
}

// current returns a snapshot of the state.
func (m *machine) current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition moves to status, clearing the stop location, and broadcasts.
func (m *machine) transition(status Status) {
	m.mu.Lock()
	m.state = State{Status: status}
	snapshot := m.state
	m.mu.Unlock()
	m.notify(snapshot)
}

// apply consumes one asynchronous notification payload (the text after the
// record's class byte, e.g. `stopped,reason="breakpoint-hit",frame={...}`).
func (m *machine) apply(payload string) {
	var fields mi.Fields
	class, rest := mi.SplitResult(payload)
	if decoded, err := mi.ParseFields(rest); err == nil {
		fields = decoded
	}

	reason, _ := fields.Find("reason")
	if reason == "" && strings.Contains(payload, `reason="exited`) {
		// Malformed payloads still honor an exited reason.
		reason = "exited"
	}

	switch {
	case strings.HasPrefix(reason, "exited"):
		// Checked before the stopped marker: GDB reports exits as
		// *stopped,reason="exited-normally".
		m.transition(StatusExited)
	case class == "stopped" || strings.Contains(payload, "stopped"):
		m.stopAt(fields)
	case class == "running" || strings.Contains(payload, "running"):
		m.transition(StatusRunning)
	}
}

// stopAt enters the stopped state, parsing the new location from the
// notification. Each of file/line/func is independently optional; GDB nests
// them under frame={...}, which Find descends into.
func (m *machine) stopAt(fields mi.Fields) {
	next := State{Status: StatusStopped}

	if file, ok := fields.Find("file"); ok {
		next.File = file
	}
	if line, ok := fields.Find("line"); ok {
		if n, err := strconv.Atoi(line); err == nil && n > 0 {
			next.Line = n
		}
	}
	if fn, ok := fields.Find("func"); ok {
		next.Function = fn
	}

	m.mu.Lock()
	m.state = next
	m.mu.Unlock()
	m.notify(next)
}
