// Package gdb drives a GDB backend over its machine interface.
//
// A Session owns one backend subprocess and everything layered on it:
//
//   - a single output pump goroutine that reads, classifies and routes
//     every line the backend emits
//   - a request correlator that prefixes each synchronous command with a
//     monotonic token and parks the caller until the matching reply
//   - a debuggee state machine fed by asynchronous notifications
//   - a typed query surface (breakpoints, watchpoints, registers, stack,
//     expression evaluation, memory reads)
//
// # States
//
// The debuggee moves through disconnected, connected, running, stopped and
// exited. The stop location (file, line, function) is only meaningful while
// stopped and is cleared on every transition away from it.
//
// # Concurrency
//
// Any number of goroutines may issue commands concurrently. Writes to the
// backend are serialized under one lock; replies are matched by token, so
// callers never receive each other's results regardless of interleaving.
// Subscriber callbacks run synchronously on the pump goroutine.
//
// # Usage
//
//	session := gdb.NewSession(gdb.Config{GDBPath: "gdb"})
//	if err := session.Start("./a.out"); err != nil {
//		return err
//	}
//	defer session.Shutdown()
//
//	cancel := session.OnStateChanged(func(st gdb.State) {
//		fmt.Printf("%s %s:%d\n", st.Status, st.File, st.Line)
//	})
//	defer cancel()
//
//	bp, err := session.SetBreakpoint(ctx, "main.c", 10, "")
package gdb
