package gdb

import (
	"context"
	"fmt"
	"strconv"
)

// Breakpoint is a source-line breakpoint as reported by the backend. The
// caller owns the record; the engine keeps no reference to it.
type Breakpoint struct {
	// Number is the backend's breakpoint identifier, 0 when the reply
	// carried none.
	Number    int
	File      string
	Line      int
	Condition string
}

// WatchKind selects the access mode a watchpoint triggers on.
type WatchKind int

const (
	// WatchWrite triggers when the expression is written. This is the
	// default; unrecognized kinds fall back to it.
	WatchWrite WatchKind = iota
	// WatchRead triggers when the expression is read.
	WatchRead
	// WatchAccess triggers on both reads and writes.
	WatchAccess
)

// ParseWatchKind maps a kind name to a WatchKind. Unrecognized names
// default to WatchWrite.
func ParseWatchKind(s string) WatchKind {
	switch s {
	case "read":
		return WatchRead
	case "access":
		return WatchAccess
	default:
		return WatchWrite
	}
}

// flag returns the -break-watch mode flag.
func (k WatchKind) flag() string {
	switch k {
	case WatchRead:
		return "-r"
	case WatchAccess:
		return "-a"
	default:
		return "-w"
	}
}

// String returns the kind name.
func (k WatchKind) String() string {
	switch k {
	case WatchRead:
		return "read"
	case WatchAccess:
		return "access"
	default:
		return "write"
	}
}

// Watchpoint is a data watchpoint as reported by the backend.
type Watchpoint struct {
	Number     int
	Expression string
	Kind       WatchKind
}

// SetBreakpoint inserts a breakpoint at file:line, optionally guarded by a
// condition expression. Success or failure is decided by the reply class;
// a backend rejection is returned as an error carrying the backend's
// message.
func (s *Session) SetBreakpoint(ctx context.Context, file string, line int, condition string) (Breakpoint, error) {
	cmd := fmt.Sprintf("-break-insert %s:%d", file, line)
	if condition != "" {
		cmd += " -c " + condition
	}

	rec, err := s.SendSync(ctx, cmd)
	if err != nil {
		return Breakpoint{}, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		if msg := backendMessage(rec); msg != "" {
			return Breakpoint{}, fmt.Errorf("set breakpoint %s:%d: %s", file, line, msg)
		}
		return Breakpoint{}, fmt.Errorf("set breakpoint %s:%d: unexpected reply: %w", file, line, ErrParse)
	}

	bp := Breakpoint{File: file, Line: line, Condition: condition}
	if bkpt, ok := fields.Get("bkpt"); ok {
		if num, ok := bkpt.Fields.Str("number"); ok {
			bp.Number, _ = strconv.Atoi(num)
		}
	}
	return bp, nil
}

// DeleteBreakpoint removes a breakpoint by its backend number.
func (s *Session) DeleteBreakpoint(ctx context.Context, number int) error {
	rec, err := s.SendSync(ctx, fmt.Sprintf("-break-delete %d", number))
	if err != nil {
		return err
	}
	if !isDone(rec) {
		if msg := backendMessage(rec); msg != "" {
			return fmt.Errorf("delete breakpoint %d: %s", number, msg)
		}
		return fmt.Errorf("delete breakpoint %d: unexpected reply: %w", number, ErrParse)
	}
	return nil
}

// SetWatchpoint sets a watchpoint on an expression. The kind selects the
// triggering access; unrecognized kinds already defaulted to write in
// ParseWatchKind.
func (s *Session) SetWatchpoint(ctx context.Context, expression string, kind WatchKind) (Watchpoint, error) {
	cmd := fmt.Sprintf("-break-watch %s %s", kind.flag(), expression)

	rec, err := s.SendSync(ctx, cmd)
	if err != nil {
		return Watchpoint{}, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		if msg := backendMessage(rec); msg != "" {
			return Watchpoint{}, fmt.Errorf("set watchpoint %s: %s", expression, msg)
		}
		return Watchpoint{}, fmt.Errorf("set watchpoint %s: unexpected reply: %w", expression, ErrParse)
	}

	wp := Watchpoint{Expression: expression, Kind: kind}
	// GDB names the result wpt, hw-rwpt or hw-awpt depending on the kind.
	for _, key := range []string{"wpt", "hw-rwpt", "hw-awpt"} {
		if v, ok := fields.Get(key); ok {
			if num, ok := v.Fields.Str("number"); ok {
				wp.Number, _ = strconv.Atoi(num)
			}
			break
		}
	}
	return wp, nil
}
