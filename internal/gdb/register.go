package gdb

import (
	"context"
	"strconv"

	"github.com/dshills/gdbmi/internal/mi"
)

// Register is one machine register. Registers() fills Number and Name;
// RegisterValues() fills Number and Value.
type Register struct {
	Number int
	Name   string
	Value  string
}

// ValueFormat selects the radix for register values.
type ValueFormat string

const (
	// FormatHex renders values in hexadecimal. This is the default.
	FormatHex ValueFormat = "x"
	// FormatDecimal renders values in decimal.
	FormatDecimal ValueFormat = "d"
	// FormatOctal renders values in octal.
	FormatOctal ValueFormat = "o"
	// FormatBinary renders values in binary.
	FormatBinary ValueFormat = "t"
)

// ParseValueFormat maps a format name (hex, decimal, octal, binary, or a
// raw MI format letter) to a ValueFormat. Unrecognized names default to
// hexadecimal.
func ParseValueFormat(s string) ValueFormat {
	switch s {
	case "decimal", "d":
		return FormatDecimal
	case "octal", "o":
		return FormatOctal
	case "binary", "t":
		return FormatBinary
	default:
		return FormatHex
	}
}

// Registers lists the backend's register names. The zero-based position in
// the reply becomes the register number. Absence (wrong reply shape, no
// registers) is a normal outcome and yields an empty list.
func (s *Session) Registers(ctx context.Context) ([]Register, error) {
	rec, err := s.SendSync(ctx, "-data-list-register-names")
	if err != nil {
		return nil, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		return []Register{}, nil
	}
	names, ok := fields.Get("register-names")
	if !ok || names.Kind != mi.ValueList {
		return []Register{}, nil
	}

	registers := make([]Register, 0, len(names.Items))
	for i, item := range names.Items {
		if item.Kind != mi.ValueString {
			continue
		}
		registers = append(registers, Register{Number: i, Name: item.Str})
	}
	return registers, nil
}

// RegisterValues lists register values in the given format. An empty
// format means hexadecimal.
func (s *Session) RegisterValues(ctx context.Context, format ValueFormat) ([]Register, error) {
	if format == "" {
		format = FormatHex
	}

	rec, err := s.SendSync(ctx, "-data-list-register-values "+string(format))
	if err != nil {
		return nil, err
	}

	fields, ok := doneFields(rec)
	if !ok {
		return []Register{}, nil
	}
	values, ok := fields.Get("register-values")
	if !ok || values.Kind != mi.ValueList {
		return []Register{}, nil
	}

	registers := make([]Register, 0, len(values.Items))
	for _, item := range values.Items {
		if item.Kind != mi.ValueTuple {
			continue
		}
		var reg Register
		if num, ok := item.Fields.Str("number"); ok {
			reg.Number, _ = strconv.Atoi(num)
		}
		reg.Value, _ = item.Fields.Str("value")
		registers = append(registers, reg)
	}
	return registers, nil
}
