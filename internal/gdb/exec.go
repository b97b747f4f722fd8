package gdb

// Execution control. These are fire-and-forget sends: the resulting state
// change arrives asynchronously through the state machine, not as a
// correlated reply.

// Run starts debuggee execution from the beginning.
func (s *Session) Run() error {
	return s.Send("-exec-run")
}

// Pause interrupts the running debuggee.
func (s *Session) Pause() error {
	return s.Send("-exec-interrupt")
}

// StepOver executes the current line without descending into calls.
func (s *Session) StepOver() error {
	return s.Send("-exec-next")
}

// StepInto executes the current line, descending into function calls.
func (s *Session) StepInto() error {
	return s.Send("-exec-step")
}

// StepOut runs until the current function returns.
func (s *Session) StepOut() error {
	return s.Send("-exec-finish")
}

// Continue resumes debuggee execution.
func (s *Session) Continue() error {
	return s.Send("-exec-continue")
}
