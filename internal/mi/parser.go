package mi

import (
	"strconv"
	"strings"
)

// Prompt is the GDB ready marker.
const Prompt = "(gdb)"

// Parse classifies one line of GDB output. It never fails; lines matching
// no rule come back as KindRaw with the trimmed line as payload.
func Parse(line string) Record {
	s := strings.TrimSpace(line)

	if s == Prompt {
		return Record{Kind: KindPrompt}
	}

	// Tokenized: ^\d+[\^*=+]
	if i := digitSpan(s); i > 0 && i < len(s) && isClassByte(s[i]) {
		token, err := strconv.ParseInt(s[:i], 10, 64)
		if err == nil {
			return Record{
				Kind:    KindResult,
				Token:   token,
				Class:   s[i],
				Payload: s[i+1:],
			}
		}
	}

	if len(s) > 0 {
		switch s[0] {
		case '~':
			return Record{Kind: KindConsole, Payload: unquoteStream(s[1:])}
		case '&':
			return Record{Kind: KindLog, Payload: unquoteStream(s[1:])}
		case ClassExec, ClassNotify, ClassStatus:
			return Record{Kind: KindNotify, Class: s[0], Payload: s[1:]}
		}
	}

	return Record{Kind: KindRaw, Payload: s}
}

// digitSpan returns the length of the leading run of ASCII digits.
func digitSpan(s string) int {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}

func isClassByte(b byte) bool {
	return b == ClassResult || b == ClassExec || b == ClassNotify || b == ClassStatus
}

// unquoteStream strips the C-string wrapper GDB puts around ~ and & stream
// text. Text that is not a well-formed quoted string passes through as-is.
// Stream text additionally resolves \n and \t, which GDB uses for console
// formatting.
func unquoteStream(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	s = s[1 : len(s)-1]
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case '"', '\\':
			b.WriteByte(s[i])
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
