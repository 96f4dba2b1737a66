package term

import (
	"strings"
	"unicode/utf8"
)

const (
	keyEnter     = "\r"
	keyInterrupt = "\x03"
	keyDelete    = "\x7f"
	keyBackspace = "\b"

	eraseSeq     = "\b \b"
	interruptSeq = "^C\r\n"
	newlineSeq   = "\r\n"
)

// State is the line editor's pending input.
type State struct {
	Buffer   string
	Disabled bool
}

// Event is one chunk of raw terminal input: a single key's byte sequence or
// one rune of pasted text.
type Event string

type EffectKind int

const (
	// EffectEcho writes Text to the surface as-is.
	EffectEcho EffectKind = iota
	// EffectSubmit hands Text to whoever runs commands.
	EffectSubmit
	// EffectPrompt redraws the prompt.
	EffectPrompt
)

type Effect struct {
	Kind EffectKind
	Text string
}

// Step applies one input event. It never touches a display; callers apply
// the returned effects in order.
func Step(st State, ev Event) (State, []Effect) {
	if st.Disabled || ev == "" {
		return st, nil
	}
	switch string(ev) {
	case keyEnter:
		cmd := strings.TrimSpace(st.Buffer)
		st.Buffer = ""
		return st, []Effect{
			{Kind: EffectEcho, Text: newlineSeq},
			{Kind: EffectSubmit, Text: cmd},
			{Kind: EffectPrompt},
		}
	case keyInterrupt:
		st.Buffer = ""
		return st, []Effect{
			{Kind: EffectEcho, Text: interruptSeq},
			{Kind: EffectPrompt},
		}
	case keyDelete, keyBackspace:
		if st.Buffer == "" {
			return st, nil
		}
		_, size := utf8.DecodeLastRuneInString(st.Buffer)
		st.Buffer = st.Buffer[:len(st.Buffer)-size]
		return st, []Effect{{Kind: EffectEcho, Text: eraseSeq}}
	}

	first, _ := utf8.DecodeRuneInString(string(ev))
	if first < ' ' || first == 0x7f {
		return st, nil
	}
	text := printable(string(ev))
	if text == "" {
		return st, nil
	}
	st.Buffer += text
	return st, []Effect{{Kind: EffectEcho, Text: text}}
}

// printable drops control runes that ride along inside a text chunk.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r < ' ' || r == 0x7f || r == utf8.RuneError {
			return -1
		}
		return r
	}, s)
}
