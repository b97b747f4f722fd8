package gdb

import "github.com/dshills/gdbmi/internal/mi"

// doneFields verifies rec is a successful ^done result and decodes its
// field payload. The second return is false for any other reply shape.
func doneFields(rec mi.Record) (mi.Fields, bool) {
	if rec.Kind != mi.KindResult || rec.Class != mi.ClassResult {
		return nil, false
	}
	class, rest := mi.SplitResult(rec.Payload)
	if class != "done" {
		return nil, false
	}
	fields, err := mi.ParseFields(rest)
	if err != nil {
		return nil, false
	}
	return fields, true
}

// isDone reports whether rec is a successful ^done result.
func isDone(rec mi.Record) bool {
	if rec.Kind != mi.KindResult || rec.Class != mi.ClassResult {
		return false
	}
	class, _ := mi.SplitResult(rec.Payload)
	return class == "done"
}

// backendMessage extracts the msg field from an ^error reply, or "".
func backendMessage(rec mi.Record) string {
	class, rest := mi.SplitResult(rec.Payload)
	if class != "error" {
		return ""
	}
	fields, err := mi.ParseFields(rest)
	if err != nil {
		return ""
	}
	msg, _ := fields.Str("msg")
	return msg
}
