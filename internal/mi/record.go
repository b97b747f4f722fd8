package mi

import "fmt"

// Kind classifies one line of GDB output.
type Kind int

const (
	// KindRaw is an unrecognized line, passed through verbatim.
	KindRaw Kind = iota
	// KindPrompt is the "(gdb)" ready marker.
	KindPrompt
	// KindResult is a tokenized record: a leading integer followed by a
	// class byte and payload.
	KindResult
	// KindNotify is an untokenized asynchronous record (*, = or +).
	KindNotify
	// KindConsole is a ~ console stream line.
	KindConsole
	// KindLog is a & log/error-echo stream line.
	KindLog
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindPrompt:
		return "prompt"
	case KindResult:
		return "result"
	case KindNotify:
		return "notify"
	case KindConsole:
		return "console"
	case KindLog:
		return "log"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Result class bytes. The byte after the token selects the record flavor.
const (
	ClassResult byte = '^' // ^done, ^error, ^running, ...
	ClassExec   byte = '*' // *stopped, *running, ...
	ClassNotify byte = '=' // =thread-created, ...
	ClassStatus byte = '+' // +download, ...
)

// Record is one classified line of backend output. It is transient: the
// output pump consumes it immediately after classification.
type Record struct {
	// Kind selects which of the remaining fields are meaningful.
	Kind Kind

	// Token is the correlation token for KindResult records.
	Token int64

	// Class is the record class byte for KindResult and KindNotify.
	Class byte

	// Payload is the text after the class byte (result, notify) or after
	// the stream sigil (console, log). For KindRaw it is the whole line.
	Payload string
}

// Format renders a tokenized record back to its wire form. It is the
// inverse of Parse for KindResult records.
func (r Record) Format() string {
	if r.Kind == KindResult {
		return fmt.Sprintf("%d%c%s", r.Token, r.Class, r.Payload)
	}
	return r.Payload
}

// SplitResult splits a result or notification payload into its leading
// class word ("done", "error", "stopped", ...) and the field text that
// follows the first comma. A payload with no fields returns an empty rest.
func SplitResult(payload string) (class, rest string) {
	for i := 0; i < len(payload); i++ {
		if payload[i] == ',' {
			return payload[:i], payload[i+1:]
		}
	}
	return payload, ""
}
