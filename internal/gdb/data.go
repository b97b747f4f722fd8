package gdb

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dshills/gdbmi/internal/mi"
)

// Evaluate evaluates an expression in the current frame and returns the
// backend's rendering of its value. A backend rejection (no such symbol,
// bad syntax) is returned as an error carrying the backend's message.
func (s *Session) Evaluate(ctx context.Context, expression string) (string, error) {
	rec, err := s.SendSync(ctx, "-data-evaluate-expression "+expression)
	if err != nil {
		return "", err
	}

	fields, ok := doneFields(rec)
	if !ok {
		if msg := backendMessage(rec); msg != "" {
			return "", fmt.Errorf("evaluate %q: %s", expression, msg)
		}
		return "", fmt.Errorf("evaluate %q: unexpected reply: %w", expression, ErrParse)
	}

	value, ok := fields.Str("value")
	if !ok {
		return "", fmt.Errorf("evaluate %q: reply carries no value: %w", expression, ErrParse)
	}
	return value, nil
}

// ReadMemory reads size bytes starting at addr, in single-byte units.
// Malformed hex entries in the reply are skipped, not fatal; the remaining
// bytes come back in their original order. A failed read or an unusable
// reply yields ErrMemoryAccess.
func (s *Session) ReadMemory(ctx context.Context, addr uint64, size int) ([]byte, error) {
	cmd := fmt.Sprintf("-data-read-memory 0x%x x 1 %d", addr, size)

	rec, err := s.SendSync(ctx, cmd)
	if err != nil {
		return nil, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		if msg := backendMessage(rec); msg != "" {
			return nil, fmt.Errorf("read 0x%x: %s: %w", addr, msg, ErrMemoryAccess)
		}
		return nil, fmt.Errorf("read 0x%x: unexpected reply: %w", addr, ErrMemoryAccess)
	}

	memory, ok := fields.Get("memory")
	if !ok || memory.Kind != mi.ValueList || len(memory.Items) == 0 {
		return nil, fmt.Errorf("read 0x%x: reply carries no memory rows: %w", addr, ErrMemoryAccess)
	}

	var data []byte
	for _, row := range memory.Items {
		if row.Kind != mi.ValueTuple {
			continue
		}
		cells, ok := row.Fields.Get("data")
		if !ok || cells.Kind != mi.ValueList {
			continue
		}
		for _, cell := range cells.Items {
			if cell.Kind != mi.ValueString {
				continue
			}
			b, err := strconv.ParseUint(cell.Str, 0, 8)
			if err != nil {
				// Malformed entries are dropped, the rest kept.
				continue
			}
			data = append(data, byte(b))
		}
	}

	if data == nil {
		return nil, fmt.Errorf("read 0x%x: no decodable bytes: %w", addr, ErrMemoryAccess)
	}
	return data, nil
}
