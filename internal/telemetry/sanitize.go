package telemetry

import "strings"

// maxLoggedValue bounds user-typed strings stored in the event log.
const maxLoggedValue = 256

// SanitizeForLog flattens control characters in player input so a typed
// command can't forge extra log lines, and truncates long values.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n >= maxLoggedValue {
			b.WriteString("...")
			break
		}
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case r < 32 || r == 0x7f:
			continue
		default:
			b.WriteRune(r)
		}
		n++
	}
	return b.String()
}
