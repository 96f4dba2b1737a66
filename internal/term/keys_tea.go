package term

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
)

// KeyEvent converts a Bubble Tea key press into the bytes an xterm would
// send, so the line editor sees the same stream a real terminal produces.
// Keys without a byte encoding yield "".
func KeyEvent(ev tea.KeyPressMsg) Event {
	key := ev.Key()

	if key.Text != "" {
		if key.Mod&tea.ModAlt != 0 {
			return Event("\x1b" + key.Text)
		}
		return Event(key.Text)
	}

	switch key.Code {
	case tea.KeyEnter:
		return keyEnter
	case tea.KeyBackspace:
		return keyDelete
	case tea.KeyTab:
		if key.Mod&tea.ModShift != 0 {
			return "\x1b[Z"
		}
		return "\t"
	case tea.KeyEsc:
		return "\x1b"
	case tea.KeyUp:
		return csi("A", key.Mod)
	case tea.KeyDown:
		return csi("B", key.Mod)
	case tea.KeyRight:
		return csi("C", key.Mod)
	case tea.KeyLeft:
		return csi("D", key.Mod)
	case tea.KeyHome:
		return csi("H", key.Mod)
	case tea.KeyEnd:
		return csi("F", key.Mod)
	case tea.KeyDelete:
		return "\x1b[3~"
	}

	if key.Mod&tea.ModCtrl != 0 {
		if c := ctrlByte(key.Code); c != 0 {
			return Event([]byte{c})
		}
	}
	if key.Code == tea.KeySpace {
		return " "
	}
	return ""
}

func csi(final string, mods tea.KeyMod) Event {
	mod := 1
	if mods&tea.ModShift != 0 {
		mod++
	}
	if mods&tea.ModAlt != 0 {
		mod += 2
	}
	if mods&tea.ModCtrl != 0 {
		mod += 4
	}
	if mod == 1 {
		return Event("\x1b[" + final)
	}
	return Event(fmt.Sprintf("\x1b[1;%d%s", mod, final))
}

func ctrlByte(r rune) byte {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1
	case r >= 'A' && r <= 'Z':
		return byte(r-'A') + 1
	}
	switch r {
	case '\\':
		return 0x1c
	case ']':
		return 0x1d
	case '^':
		return 0x1e
	case '_':
		return 0x1f
	}
	return 0
}
