package mi

import (
	"fmt"
	"strings"
)

// ValueKind discriminates decoded payload nodes.
type ValueKind int

const (
	// ValueString is a scalar string.
	ValueString ValueKind = iota
	// ValueTuple is an ordered mapping decoded from {...}.
	ValueTuple
	// ValueList is an ordered sequence decoded from [...].
	ValueList
)

// Value is one node of a decoded MI payload. Exactly one of Str, Fields or
// Items is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Str    string
	Fields Fields
	Items  []Value
}

// Field is a single key="value" result within a record or tuple.
type Field struct {
	Key   string
	Value Value
}

// Fields is an ordered field sequence. Keys may repeat in backend output;
// lookups return the last occurrence.
type Fields []Field

// Get returns the value for key. The second return distinguishes an absent
// field from one decoded as an empty string. When the key repeats, the last
// occurrence wins.
func (f Fields) Get(key string) (Value, bool) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i].Key == key {
			return f[i].Value, true
		}
	}
	return Value{}, false
}

// Str returns the scalar string for key. It reports false when the field is
// absent or not a scalar.
func (f Fields) Str(key string) (string, bool) {
	v, ok := f.Get(key)
	if !ok || v.Kind != ValueString {
		return "", false
	}
	return v.Str, true
}

// Find searches for a scalar field depth-first: the top level first, then
// nested tuples and lists in order. GDB nests stop locations under
// frame={...}, so state parsing uses this rather than Get.
func (f Fields) Find(key string) (string, bool) {
	if s, ok := f.Str(key); ok {
		return s, true
	}
	for _, fld := range f {
		if s, ok := fld.Value.find(key); ok {
			return s, true
		}
	}
	return "", false
}

func (v Value) find(key string) (string, bool) {
	switch v.Kind {
	case ValueTuple:
		return v.Fields.Find(key)
	case ValueList:
		for _, item := range v.Items {
			if s, ok := item.find(key); ok {
				return s, true
			}
		}
	}
	return "", false
}

// ParseFields decodes the field text of a result or notification record,
// i.e. everything after the class word: name="x",frame={...},list=[...].
func ParseFields(s string) (Fields, error) {
	d := &valueDecoder{s: s}
	fields, err := d.fields(0)
	if err != nil {
		return nil, err
	}
	if d.i != len(d.s) {
		return nil, fmt.Errorf("trailing data at offset %d: %q", d.i, d.s[d.i:])
	}
	return fields, nil
}

// valueDecoder is a single left-to-right scan over the payload text. Depth
// is implicit in the call stack; quoting and escapes are handled in str, so
// brackets inside quoted values (a type like "int [5]") never terminate an
// enclosing collection.
type valueDecoder struct {
	s string
	i int
}

// fields decodes comma-separated results until the closing byte (0 at top
// level, '}' or ']' inside a collection) without consuming it.
func (d *valueDecoder) fields(close byte) (Fields, error) {
	fields := Fields{}
	for {
		if d.i >= len(d.s) {
			if close == 0 {
				return fields, nil
			}
			return nil, fmt.Errorf("unterminated collection, want %q", close)
		}
		if d.s[d.i] == close {
			return fields, nil
		}

		key, err := d.key()
		if err != nil {
			return nil, err
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Key: key, Value: val})

		if d.i < len(d.s) && d.s[d.i] == ',' {
			d.i++
			continue
		}
	}
}

// key consumes an identifier up to '='.
func (d *valueDecoder) key() (string, error) {
	start := d.i
	for d.i < len(d.s) {
		c := d.s[d.i]
		if c == '=' {
			key := d.s[start:d.i]
			d.i++
			if key == "" {
				return "", fmt.Errorf("empty key at offset %d", start)
			}
			return key, nil
		}
		if c == ',' || c == '{' || c == '}' || c == '[' || c == ']' || c == '"' {
			break
		}
		d.i++
	}
	return "", fmt.Errorf("expected key=value at offset %d", start)
}

func (d *valueDecoder) value() (Value, error) {
	if d.i >= len(d.s) {
		return Value{}, fmt.Errorf("expected value at offset %d", d.i)
	}
	switch d.s[d.i] {
	case '"':
		s, err := d.str()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: ValueString, Str: s}, nil
	case '{':
		d.i++
		fields, err := d.fields('}')
		if err != nil {
			return Value{}, err
		}
		d.i++ // consume '}'
		return Value{Kind: ValueTuple, Fields: fields}, nil
	case '[':
		d.i++
		items, err := d.list()
		if err != nil {
			return Value{}, err
		}
		d.i++ // consume ']'
		return Value{Kind: ValueList, Items: items}, nil
	}
	return Value{}, fmt.Errorf("unexpected byte %q at offset %d", d.s[d.i], d.i)
}

// list decodes items until ']' without consuming it. Items may be bare
// values or key=value results (stack=[frame={...},...]); for keyed items
// the value is kept and the key dropped, since the enclosing field already
// names the sequence.
func (d *valueDecoder) list() ([]Value, error) {
	items := []Value{}
	for {
		if d.i >= len(d.s) {
			return nil, fmt.Errorf("unterminated list")
		}
		if d.s[d.i] == ']' {
			return items, nil
		}

		if d.looksLikeResult() {
			if _, err := d.key(); err != nil {
				return nil, err
			}
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, val)

		if d.i < len(d.s) && d.s[d.i] == ',' {
			d.i++
		}
	}
}

// looksLikeResult reports whether the scan position starts an identifier
// followed by '=' (rather than a bare value).
func (d *valueDecoder) looksLikeResult() bool {
	for j := d.i; j < len(d.s); j++ {
		switch d.s[j] {
		case '=':
			return j > d.i
		case ',', '{', '}', '[', ']', '"':
			return false
		}
	}
	return false
}

// str consumes a quoted string, resolving \" and \\ and passing unknown
// escapes through verbatim.
func (d *valueDecoder) str() (string, error) {
	d.i++ // consume opening quote
	var b strings.Builder
	for d.i < len(d.s) {
		c := d.s[d.i]
		switch c {
		case '"':
			d.i++
			return b.String(), nil
		case '\\':
			if d.i+1 >= len(d.s) {
				return "", fmt.Errorf("unterminated escape at offset %d", d.i)
			}
			d.i++
			switch d.s[d.i] {
			case '"', '\\':
				b.WriteByte(d.s[d.i])
			default:
				b.WriteByte('\\')
				b.WriteByte(d.s[d.i])
			}
		default:
			b.WriteByte(c)
		}
		d.i++
	}
	return "", fmt.Errorf("unterminated string")
}
