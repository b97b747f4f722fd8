package gdb

import (
	"context"
	"strconv"

	"github.com/dshills/gdbmi/internal/mi"
)

// StackFrame is one frame of the debuggee's call stack.
type StackFrame struct {
	Level    int
	Address  string
	Function string
	File     string
	Line     int
}

// Variable is a stack variable in the current frame.
type Variable struct {
	Name  string
	Value string
	Type  string
}

// CallStack lists the debuggee's call stack, one frame per record. Frames
// that fail to decode are skipped; the rest are returned. Absence is a
// normal outcome and yields an empty list.
func (s *Session) CallStack(ctx context.Context) ([]StackFrame, error) {
	rec, err := s.SendSync(ctx, "-stack-list-frames")
	if err != nil {
		return nil, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		return []StackFrame{}, nil
	}
	stack, ok := fields.Get("stack")
	if !ok || stack.Kind != mi.ValueList {
		return []StackFrame{}, nil
	}

	frames := make([]StackFrame, 0, len(stack.Items))
	for _, item := range stack.Items {
		if item.Kind != mi.ValueTuple {
			continue
		}
		var frame StackFrame
		if level, ok := item.Fields.Str("level"); ok {
			frame.Level, _ = strconv.Atoi(level)
		}
		frame.Address, _ = item.Fields.Str("addr")
		frame.Function, _ = item.Fields.Str("func")
		frame.File, _ = item.Fields.Str("file")
		if line, ok := item.Fields.Str("line"); ok {
			frame.Line, _ = strconv.Atoi(line)
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

// StackVariables lists the variables in the current frame. Two passes are
// needed: --simple-values supplies declared types but omits large and
// aggregate values, while --all-values supplies every value but no types.
// Results are merged by name: the first pass fixes the ordering and types,
// the second overwrites values and appends names the first pass missed.
// Shadowed names at different scope depths collapse to one entry.
func (s *Session) StackVariables(ctx context.Context) ([]Variable, error) {
	simple, err := s.listVariables(ctx, "--simple-values")
	if err != nil {
		return nil, err
	}
	all, err := s.listVariables(ctx, "--all-values")
	if err != nil {
		return nil, err
	}

	merged := make([]Variable, len(simple))
	index := make(map[string]int, len(simple))
	for i, v := range simple {
		merged[i] = v
		index[v.Name] = i
	}

	for _, v := range all {
		i, ok := index[v.Name]
		if !ok {
			index[v.Name] = len(merged)
			merged = append(merged, v)
			continue
		}
		if v.Value != "" {
			merged[i].Value = v.Value
		}
	}
	return merged, nil
}

// listVariables runs one -stack-list-variables pass.
func (s *Session) listVariables(ctx context.Context, flag string) ([]Variable, error) {
	rec, err := s.SendSync(ctx, "-stack-list-variables "+flag)
	if err != nil {
		return nil, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		return []Variable{}, nil
	}
	list, ok := fields.Get("variables")
	if !ok || list.Kind != mi.ValueList {
		return []Variable{}, nil
	}

	variables := make([]Variable, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Kind != mi.ValueTuple {
			continue
		}
		name, ok := item.Fields.Str("name")
		if !ok {
			continue
		}
		v := Variable{Name: name}
		v.Value, _ = item.Fields.Str("value")
		v.Type, _ = item.Fields.Str("type")
		variables = append(variables, v)
	}
	return variables, nil
}
