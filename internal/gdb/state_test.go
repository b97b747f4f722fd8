package gdb

import "testing"

// collectStates returns a machine plus a pointer to the snapshots it
// broadcasts, in order.
func collectStates() (*machine, *[]State) {
	var got []State
	m := newMachine(func(st State) {
		got = append(got, st)
	})
	return m, &got
}

func TestMachineRunning(t *testing.T) {
	m, got := collectStates()

	m.apply(`running,thread-id="all"`)

	if len(*got) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(*got))
	}
	if (*got)[0].Status != StatusRunning {
		t.Errorf("status = %v, want running", (*got)[0].Status)
	}
	if m.current().Status != StatusRunning {
		t.Errorf("current status = %v, want running", m.current().Status)
	}
}

func TestMachineStoppedWithLocation(t *testing.T) {
	m, got := collectStates()

	m.apply(`stopped,reason="breakpoint-hit",frame={addr="0x1234",func="main",file="prog.c",line="5"},thread-id="1"`)

	if len(*got) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(*got))
	}
	st := (*got)[0]
	if st.Status != StatusStopped {
		t.Fatalf("status = %v, want stopped", st.Status)
	}
	if st.File != "prog.c" || st.Line != 5 || st.Function != "main" {
		t.Errorf("location = %q:%d %q, want prog.c:5 main", st.File, st.Line, st.Function)
	}
}

func TestMachineStopEntryClearsStaleLocation(t *testing.T) {
	m, _ := collectStates()

	m.apply(`stopped,reason="breakpoint-hit",frame={func="main",file="prog.c",line="5"}`)
	m.apply(`running,thread-id="all"`)
	// New stop carries no location fields: nothing from the previous stop
	// may survive entry.
	m.apply(`stopped,reason="signal-received"`)

	st := m.current()
	if st.Status != StatusStopped {
		t.Fatalf("status = %v, want stopped", st.Status)
	}
	if st.File != "" || st.Line != 0 || st.Function != "" {
		t.Errorf("stale location carried over: %q:%d %q", st.File, st.Line, st.Function)
	}
}

func TestMachineExitedBeatsStoppedMarker(t *testing.T) {
	m, got := collectStates()

	m.apply(`stopped,reason="breakpoint-hit",frame={func="main",file="prog.c",line="5"}`)
	// The exit notification contains the substring "stopped" but must
	// resolve to exited, with the location cleared.
	m.apply(`stopped,reason="exited-normally"`)

	st := m.current()
	if st.Status != StatusExited {
		t.Fatalf("status = %v, want exited", st.Status)
	}
	if st.File != "" || st.Line != 0 || st.Function != "" {
		t.Errorf("location not cleared on exit: %q:%d %q", st.File, st.Line, st.Function)
	}
	if len(*got) != 2 {
		t.Errorf("expected 2 transitions, got %d", len(*got))
	}
}

func TestMachineExitedFamily(t *testing.T) {
	for _, reason := range []string{"exited-normally", "exited-signalled", "exited"} {
		m, _ := collectStates()
		m.apply(`stopped,reason="` + reason + `"`)
		if st := m.current(); st.Status != StatusExited {
			t.Errorf("reason %q: status = %v, want exited", reason, st.Status)
		}
	}
}

func TestMachineRunningClearsLocation(t *testing.T) {
	m, _ := collectStates()

	m.apply(`stopped,reason="breakpoint-hit",frame={func="main",file="prog.c",line="5"}`)
	m.apply(`running,thread-id="all"`)

	st := m.current()
	if st.Status != StatusRunning {
		t.Fatalf("status = %v, want running", st.Status)
	}
	if st.File != "" || st.Line != 0 || st.Function != "" {
		t.Errorf("location not cleared on run: %q:%d %q", st.File, st.Line, st.Function)
	}
}

func TestMachineIgnoresUnrecognized(t *testing.T) {
	m, got := collectStates()

	m.apply(`thread-created,id="1"`)
	m.apply(`breakpoint-modified,bkpt={number="1"}`)
	m.apply(``)
	m.apply(`garbage ={{{`)

	if len(*got) != 0 {
		t.Errorf("expected no transitions, got %d", len(*got))
	}
	if m.current().Status != StatusDisconnected {
		t.Errorf("status = %v, want disconnected", m.current().Status)
	}
}

func TestMachineMalformedExitStillRecognized(t *testing.T) {
	m, _ := collectStates()

	// Truncated payload that no longer decodes, but carries the exited
	// reason; the machine must still absorb it without failing.
	m.apply(`stopped,reason="exited-normally",frame={broken`)

	if st := m.current(); st.Status != StatusExited {
		t.Errorf("status = %v, want exited", st.Status)
	}
}

func TestMachineStoppedPartialLocation(t *testing.T) {
	m, _ := collectStates()

	m.apply(`stopped,reason="end-stepping-range",frame={func="loop",line="12"}`)

	st := m.current()
	if st.Status != StatusStopped {
		t.Fatalf("status = %v, want stopped", st.Status)
	}
	if st.File != "" {
		t.Errorf("file = %q, want empty", st.File)
	}
	if st.Function != "loop" || st.Line != 12 {
		t.Errorf("location = %q:%d, want loop:12", st.Function, st.Line)
	}
}
