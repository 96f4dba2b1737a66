package term

// Surface is a stateful text display. Raw fragments are written as-is;
// WriteLine ends the line with CRLF.
type Surface interface {
	WriteRaw(text string)
	WriteLine(line string)
	Reset()
}

// Snapshot is a rendered view of a VTSurface.
type Snapshot struct {
	Lines       []string
	StyledLines []string
	CursorX     int
	CursorY     int
	CursorShow  bool
	Scrollback  bool
}
