// Package mi implements the GDB machine-interface wire format.
//
// The package has two halves, both pure functions with no I/O:
//
//   - Parse classifies one line of GDB output into a Record (prompt,
//     tokenized result, async notification, console/log stream, or raw
//     passthrough).
//   - ParseFields decodes the comma-separated key="value" / {...} / [...]
//     payload carried inside result and notification records into ordered
//     fields and lists.
//
// Parse never fails: lines that match nothing are forwarded as raw records
// so no backend chatter is silently dropped.
package mi
