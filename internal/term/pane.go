package term

import (
	"io"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	xansi "github.com/charmbracelet/x/ansi"
	"github.com/hinshun/vt10x"
)

const defaultScrollbackMax = 5000

// VTSurface renders the simulated terminal through a vt10x emulator so echo
// sequences like "\b \b" and CR/LF behave as they would in a real tty. It
// also keeps a plain-text scrollback of completed rows.
type VTSurface struct {
	mu sync.Mutex

	vt    vt10x.Terminal
	cols  int
	rows  int
	dirty func()

	scrollback      []string
	scrollbackMax   int
	inScrollback    bool
	scrollbackIndex int
	lineTail        string
}

func NewVTSurface(cols, rows int) *VTSurface {
	s := &VTSurface{
		cols:          max(1, cols),
		rows:          max(1, rows),
		scrollbackMax: defaultScrollbackMax,
	}
	s.vt = s.newVT()
	return s
}

func (s *VTSurface) newVT() vt10x.Terminal {
	return vt10x.New(vt10x.WithWriter(io.Discard), vt10x.WithSize(s.cols, s.rows))
}

// SetDirty registers a redraw callback invoked after every write.
func (s *VTSurface) SetDirty(fn func()) {
	s.mu.Lock()
	s.dirty = fn
	s.mu.Unlock()
}

func (s *VTSurface) WriteRaw(text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	vt := s.vt
	s.appendScrollbackLocked(text)
	s.mu.Unlock()

	_, _ = vt.Write([]byte(text))
	s.markDirty()
}

func (s *VTSurface) WriteLine(line string) {
	s.WriteRaw(line + "\r\n")
}

func (s *VTSurface) Reset() {
	s.mu.Lock()
	s.vt = s.newVT()
	s.scrollback = nil
	s.scrollbackIndex = 0
	s.inScrollback = false
	s.lineTail = ""
	s.mu.Unlock()
	s.markDirty()
}

func (s *VTSurface) Resize(cols, rows int) {
	cols, rows = max(1, cols), max(1, rows)
	s.mu.Lock()
	if cols == s.cols && rows == s.rows {
		s.mu.Unlock()
		return
	}
	s.cols, s.rows = cols, rows
	vt := s.vt
	s.mu.Unlock()
	vt.Resize(cols, rows)
	s.markDirty()
}

func (s *VTSurface) Size() (cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cols, s.rows
}

// appendScrollbackLocked splits plain output into completed rows. Erase
// sequences edit the open row rather than being recorded.
func (s *VTSurface) appendScrollbackLocked(raw string) {
	plain := xansi.Strip(raw)
	if plain == "" {
		return
	}
	tail := []rune(s.lineTail)
	for _, r := range plain {
		switch r {
		case '\r':
		case '\b':
			if len(tail) > 0 {
				tail = tail[:len(tail)-1]
			}
		case '\n':
			s.scrollback = append(s.scrollback, strings.TrimRight(string(tail), " "))
			tail = tail[:0]
		default:
			if r >= ' ' {
				tail = append(tail, r)
			}
		}
	}
	s.lineTail = string(tail)
	if len(s.scrollback) > s.scrollbackMax {
		over := len(s.scrollback) - s.scrollbackMax
		s.scrollback = s.scrollback[over:]
	}
	if s.inScrollback {
		s.scrollbackIndex = min(s.scrollbackIndex, len(s.scrollback))
	}
}

// Scrollback returns the completed rows written since the last reset.
func (s *VTSurface) Scrollback() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.scrollback...)
}

func (s *VTSurface) ToggleScrollback() {
	s.mu.Lock()
	s.inScrollback = !s.inScrollback
	s.scrollbackIndex = len(s.scrollback)
	s.mu.Unlock()
	s.markDirty()
}

func (s *VTSurface) InScrollback() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inScrollback
}

// Scroll moves the scrollback window; negative deltas go back in time.
func (s *VTSurface) Scroll(delta int) {
	s.mu.Lock()
	if !s.inScrollback {
		s.mu.Unlock()
		return
	}
	s.scrollbackIndex = min(len(s.scrollback), max(0, s.scrollbackIndex+delta))
	s.mu.Unlock()
	s.markDirty()
}

func (s *VTSurface) scrollbackWindowLocked(height int) []string {
	end := s.scrollbackIndex
	start := max(0, end-height)
	return s.scrollback[start:end]
}

func (s *VTSurface) markDirty() {
	s.mu.Lock()
	fn := s.dirty
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *VTSurface) Snapshot(width, height int) Snapshot {
	width, height = max(1, width), max(1, height)
	out := Snapshot{
		Lines:       make([]string, height),
		StyledLines: make([]string, height),
		CursorX:     -1,
		CursorY:     -1,
	}

	s.mu.Lock()
	if s.inScrollback {
		lines := s.scrollbackWindowLocked(height)
		s.mu.Unlock()
		out.Scrollback = true
		for row := 0; row < height; row++ {
			text := ""
			if row < len(lines) {
				text = lines[row]
			}
			out.Lines[row] = clipWidth(text, width)
			out.StyledLines[row] = out.Lines[row]
		}
		return out
	}
	vt := s.vt
	s.mu.Unlock()

	vt.Lock()
	defer vt.Unlock()

	vtCols, vtRows := vt.Size()
	drawW := min(width, max(0, vtCols))
	drawH := min(height, max(0, vtRows))

	for row := 0; row < height; row++ {
		buf := []rune(strings.Repeat(" ", width))
		var styled strings.Builder
		var prev vtRenderStyle
		hasStyle := false
		if row < drawH {
			for col := 0; col < drawW; col++ {
				g, ok := safeCell(vt, col, row)
				if !ok {
					continue
				}
				ch := sanitizeGlyphRune(g.Char)
				buf[col] = ch
				style := vtRenderStyleFromGlyph(g)
				if !hasStyle || !style.equal(prev) {
					styled.WriteString(style.sgr())
					prev = style
					hasStyle = true
				}
				styled.WriteRune(ch)
			}
			if pad := width - drawW; pad > 0 {
				styled.WriteString(strings.Repeat(" ", pad))
			}
		} else {
			styled.WriteString(strings.Repeat(" ", width))
		}
		if hasStyle {
			styled.WriteString("\x1b[0m")
		}
		out.Lines[row] = string(buf)
		out.StyledLines[row] = styled.String()
	}

	if vt.CursorVisible() {
		cur := vt.Cursor()
		if cur.X >= 0 && cur.X < width && cur.Y >= 0 && cur.Y < height {
			out.CursorX, out.CursorY, out.CursorShow = cur.X, cur.Y, true
		}
	}
	return out
}

func safeCell(vt vt10x.Terminal, col, row int) (g vt10x.Glyph, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return vt.Cell(col, row), true
}

const (
	vtAttrReverse   int16 = 1 << 0
	vtAttrUnderline int16 = 1 << 1
	vtAttrBold      int16 = 1 << 2
)

type vtRenderStyle struct {
	FG        vt10x.Color
	BG        vt10x.Color
	Bold      bool
	Underline bool
}

func vtRenderStyleFromGlyph(g vt10x.Glyph) vtRenderStyle {
	style := vtRenderStyle{
		FG:        g.FG,
		BG:        g.BG,
		Bold:      g.Mode&vtAttrBold != 0,
		Underline: g.Mode&vtAttrUnderline != 0,
	}
	if g.Mode&vtAttrReverse != 0 {
		style.FG, style.BG = style.BG, style.FG
	}
	return style
}

func (s vtRenderStyle) equal(other vtRenderStyle) bool {
	return s == other
}

func (s vtRenderStyle) sgr() string {
	codes := []string{"0"}
	if s.Bold {
		codes = append(codes, "1")
	}
	if s.Underline {
		codes = append(codes, "4")
	}
	codes = append(codes, colorSGR(s.FG, true), colorSGR(s.BG, false))
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func colorSGR(c vt10x.Color, fg bool) string {
	if c == vt10x.DefaultFG || c == vt10x.DefaultBG || c == vt10x.DefaultCursor {
		if fg {
			return "39"
		}
		return "49"
	}
	n := int(c)
	base := 40
	if fg {
		base = 30
	}
	switch {
	case n >= 0 && n < 8:
		return strconv.Itoa(base + n)
	case n >= 8 && n < 16:
		return strconv.Itoa(base + 60 + n - 8)
	case fg:
		return "38;5;" + strconv.Itoa(n)
	default:
		return "48;5;" + strconv.Itoa(n)
	}
}

func clipWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > w {
		r = r[:w]
	}
	if len(r) < w {
		r = append(r, []rune(strings.Repeat(" ", w-len(r)))...)
	}
	return string(r)
}

func sanitizeGlyphRune(ch rune) rune {
	if ch == 0 || ch == utf8.RuneError || !utf8.ValidRune(ch) {
		return ' '
	}
	if ch < 0x20 || ch == 0x7f || unicode.IsControl(ch) {
		return ' '
	}
	// Private-use glyphs render as tofu in most fonts.
	if ch >= 0xE000 && ch <= 0xF8FF {
		return ' '
	}
	return ch
}
