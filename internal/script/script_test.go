package script

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	lua "github.com/yuin/gopher-lua"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.lua")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.lua"))
	if err == nil {
		t.Fatal("expected error for missing script")
	}
}

func TestLoadSyntaxError(t *testing.T) {
	path := writeScript(t, `function on_stop( -- broken`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for broken script")
	}
}

func TestOnStopReceivesLocation(t *testing.T) {
	path := writeScript(t, `
last = nil
function on_stop(file, line, func)
  last = file .. ":" .. line .. ":" .. func
end
`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	if err := h.OnStop("prog.c", 5, "main"); err != nil {
		t.Fatalf("on_stop: %v", err)
	}

	got := h.state.GetGlobal("last")
	if got.String() != "prog.c:5:main" {
		t.Errorf("hook saw %q, want prog.c:5:main", got.String())
	}
}

func TestUndefinedHookIsNoOp(t *testing.T) {
	path := writeScript(t, `x = 1`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	if err := h.OnStop("prog.c", 5, "main"); err != nil {
		t.Errorf("on_stop without a hook: %v", err)
	}
	if err := h.OnRunning(); err != nil {
		t.Errorf("on_running without a hook: %v", err)
	}
	if err := h.OnExit(); err != nil {
		t.Errorf("on_exit without a hook: %v", err)
	}
}

func TestHookRuntimeError(t *testing.T) {
	path := writeScript(t, `
function on_exit()
  error("hook blew up")
end
`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	err = h.OnExit()
	if err == nil {
		t.Fatal("expected error from failing hook")
	}
	if !strings.Contains(err.Error(), "hook blew up") {
		t.Errorf("error %q does not carry the Lua message", err)
	}
}

func TestHookTimeout(t *testing.T) {
	path := writeScript(t, `
function on_running()
  while true do end
end
`)
	h, err := Load(path, WithHookTimeout(100*time.Millisecond))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	start := time.Now()
	err = h.OnRunning()
	if err == nil {
		t.Fatal("expected timeout error from spinning hook")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("hook ran %v before interruption", elapsed)
	}
}

func TestDangerousLibrariesClosed(t *testing.T) {
	// io and os must not be available to hook code.
	path := writeScript(t, `
function on_exit()
  if io ~= nil or os ~= nil then
    error("sandbox breached")
  end
end
`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	if err := h.OnExit(); err != nil {
		t.Errorf("on_exit: %v", err)
	}
}

func TestCallAfterClose(t *testing.T) {
	path := writeScript(t, `function on_exit() end`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	h.Close()
	h.Close() // idempotent

	if err := h.OnExit(); !errors.Is(err, ErrClosed) {
		t.Errorf("error = %v, want ErrClosed", err)
	}
}

func TestStopHookArgumentsAreTyped(t *testing.T) {
	path := writeScript(t, `
kind = nil
function on_stop(file, line, func)
  kind = type(line)
end
`)
	h, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer h.Close()

	if err := h.OnStop("a.c", 7, "f"); err != nil {
		t.Fatalf("on_stop: %v", err)
	}
	if got := h.state.GetGlobal("kind"); got.Type() != lua.LTString || got.String() != "number" {
		t.Errorf("line arrived as %s, want number", got.String())
	}
}
