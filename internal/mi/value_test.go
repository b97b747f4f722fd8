package mi

import "testing"

func TestParseFieldsScalars(t *testing.T) {
	fields, err := ParseFields(`name="x",value="1",type="int"`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	for _, want := range []struct{ key, val string }{
		{"name", "x"},
		{"value", "1"},
		{"type", "int"},
	} {
		got, ok := fields.Str(want.key)
		if !ok {
			t.Fatalf("field %q missing", want.key)
		}
		if got != want.val {
			t.Errorf("field %q = %q, want %q", want.key, got, want.val)
		}
	}
}

func TestParseFieldsNestedBrackets(t *testing.T) {
	// A type string containing brackets must not truncate the outer list.
	fields, err := ParseFields(`variables=[{name="a",value="1",type="int [5]"}]`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	vars, ok := fields.Get("variables")
	if !ok {
		t.Fatal("variables field missing")
	}
	if vars.Kind != ValueList {
		t.Fatalf("variables kind = %v, want list", vars.Kind)
	}
	if len(vars.Items) != 1 {
		t.Fatalf("expected exactly 1 variable, got %d", len(vars.Items))
	}

	typ, ok := vars.Items[0].Fields.Str("type")
	if !ok {
		t.Fatal("type field missing")
	}
	if typ != "int [5]" {
		t.Errorf("type = %q, want %q", typ, "int [5]")
	}
}

func TestParseFieldsEmptyList(t *testing.T) {
	fields, err := ParseFields(`variables=[]`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	vars, ok := fields.Get("variables")
	if !ok {
		t.Fatal("variables field missing")
	}
	if vars.Kind != ValueList {
		t.Fatalf("kind = %v, want list", vars.Kind)
	}
	if vars.Items == nil {
		t.Error("empty list decoded to nil, want empty sequence")
	}
	if len(vars.Items) != 0 {
		t.Errorf("expected empty list, got %d items", len(vars.Items))
	}
}

func TestParseFieldsAbsentVsEmpty(t *testing.T) {
	fields, err := ParseFields(`present=""`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	if v, ok := fields.Str("present"); !ok || v != "" {
		t.Errorf("present = (%q, %v), want (\"\", true)", v, ok)
	}
	if _, ok := fields.Get("absent"); ok {
		t.Error("absent field reported as present")
	}
}

func TestFieldsDuplicateKeyLastWins(t *testing.T) {
	fields, err := ParseFields(`reason="first",reason="second"`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected both occurrences retained, got %d", len(fields))
	}

	got, ok := fields.Str("reason")
	if !ok {
		t.Fatal("reason field missing")
	}
	if got != "second" {
		t.Errorf("reason = %q, want last occurrence %q", got, "second")
	}
}

func TestParseFieldsEscapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		key  string
		want string
	}{
		{"escaped quote", `msg="No symbol \"x\" in current context"`, "msg", `No symbol "x" in current context`},
		{"escaped backslash", `path="C:\\tmp"`, "path", `C:\tmp`},
		{"unknown escape verbatim", `fmt="%d\q"`, "fmt", `%d\q`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := ParseFields(tt.in)
			if err != nil {
				t.Fatalf("ParseFields: %v", err)
			}
			got, ok := fields.Str(tt.key)
			if !ok {
				t.Fatalf("field %q missing", tt.key)
			}
			if got != tt.want {
				t.Errorf("value = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFieldsKeyedListItems(t *testing.T) {
	// stack=[frame={...},frame={...}] keeps the tuple values.
	fields, err := ParseFields(`stack=[frame={level="0",func="main"},frame={level="1",func="foo"}]`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	stack, ok := fields.Get("stack")
	if !ok || stack.Kind != ValueList {
		t.Fatalf("stack = (%v, %v), want list", stack.Kind, ok)
	}
	if len(stack.Items) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(stack.Items))
	}

	fn, ok := stack.Items[1].Fields.Str("func")
	if !ok || fn != "foo" {
		t.Errorf("frame 1 func = (%q, %v), want foo", fn, ok)
	}
}

func TestParseFieldsBareValueList(t *testing.T) {
	fields, err := ParseFields(`register-names=["eax","ebx","ecx"]`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	names, ok := fields.Get("register-names")
	if !ok || names.Kind != ValueList {
		t.Fatal("register-names list missing")
	}
	want := []string{"eax", "ebx", "ecx"}
	if len(names.Items) != len(want) {
		t.Fatalf("expected %d names, got %d", len(want), len(names.Items))
	}
	for i, w := range want {
		if names.Items[i].Str != w {
			t.Errorf("name %d = %q, want %q", i, names.Items[i].Str, w)
		}
	}
}

func TestFieldsFindNested(t *testing.T) {
	fields, err := ParseFields(`reason="breakpoint-hit",frame={addr="0x1234",func="main",file="prog.c",line="5"},thread-id="1"`)
	if err != nil {
		t.Fatalf("ParseFields: %v", err)
	}

	// Top-level fields found directly.
	if got, ok := fields.Find("reason"); !ok || got != "breakpoint-hit" {
		t.Errorf("Find(reason) = (%q, %v)", got, ok)
	}
	// Fields nested under frame={...} found by descent.
	if got, ok := fields.Find("file"); !ok || got != "prog.c" {
		t.Errorf("Find(file) = (%q, %v), want prog.c", got, ok)
	}
	if got, ok := fields.Find("line"); !ok || got != "5" {
		t.Errorf("Find(line) = (%q, %v), want 5", got, ok)
	}
	if _, ok := fields.Find("missing"); ok {
		t.Error("Find(missing) reported present")
	}
}

func TestParseFieldsMalformed(t *testing.T) {
	tests := []string{
		`name="unterminated`,
		`name=`,
		`=nokey`,
		`list=[{a="1"}`,
		`tuple={a="1"`,
		`name="x"}`,
	}

	for _, in := range tests {
		if _, err := ParseFields(in); err == nil {
			t.Errorf("ParseFields(%q) succeeded, want error", in)
		}
	}
}

func TestParseFieldsEmpty(t *testing.T) {
	fields, err := ParseFields("")
	if err != nil {
		t.Fatalf("ParseFields(\"\"): %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("expected no fields, got %d", len(fields))
	}
}
