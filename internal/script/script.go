// Package script runs user-supplied Lua hooks on debuggee events.
//
// A script file may define any of these global functions:
//
//	on_stop(file, line, func)  -- debuggee stopped at a location
//	on_running()               -- debuggee resumed
//	on_exit()                  -- debuggee exited
//
// Absent hooks are skipped. Hooks run synchronously under one lock;
// gopher-lua's LState is not goroutine-safe.
package script

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultHookTimeout bounds each hook call. Enforcement is at Lua
// instruction granularity via the state's context.
const DefaultHookTimeout = 5 * time.Second

// ErrClosed is returned when a hook fires after Close.
var ErrClosed = errors.New("script: hooks closed")

// Hooks owns one Lua state loaded from a script file.
type Hooks struct {
	mu      sync.Mutex
	state   *lua.LState
	timeout time.Duration
	closed  bool
}

// Option configures Hooks.
type Option func(*Hooks)

// WithHookTimeout sets the per-hook execution timeout.
func WithHookTimeout(d time.Duration) Option {
	return func(h *Hooks) {
		h.timeout = d
	}
}

// Load reads and executes a script file, leaving its hook functions
// registered as globals. Only the base, table, string and math libraries
// are opened; io, os, debug and package stay closed.
func Load(path string, opts ...Option) (*Hooks, error) {
	h := &Hooks{timeout: DefaultHookTimeout}
	for _, opt := range opts {
		opt(h)
	}

	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	if err := L.DoFile(path); err != nil {
		L.Close()
		return nil, fmt.Errorf("loading script %s: %w", path, err)
	}

	h.state = L
	return h, nil
}

// OnStop invokes the on_stop hook, if defined.
func (h *Hooks) OnStop(file string, line int, function string) error {
	return h.call("on_stop", lua.LString(file), lua.LNumber(line), lua.LString(function))
}

// OnRunning invokes the on_running hook, if defined.
func (h *Hooks) OnRunning() error {
	return h.call("on_running")
}

// OnExit invokes the on_exit hook, if defined.
func (h *Hooks) OnExit() error {
	return h.call("on_exit")
}

// call runs one named global function with args. Undefined hooks are a
// no-op, not an error.
func (h *Hooks) call(name string, args ...lua.LValue) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	fn := h.state.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	h.state.SetContext(ctx)
	defer h.state.RemoveContext()

	err := h.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, args...)
	if err != nil {
		return fmt.Errorf("hook %s: %w", name, err)
	}
	return nil
}

// Close releases the Lua state. Safe to call more than once.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	h.state.Close()
}
