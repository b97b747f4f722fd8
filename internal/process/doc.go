// Package process manages the GDB backend subprocess.
//
// A Process owns the spawned gdb command and its three standard pipes,
// tracks the process state atomically, and exposes a Done channel closed on
// exit. Shutdown degrades gracefully: SIGTERM, a bounded wait, then SIGKILL.
package process
