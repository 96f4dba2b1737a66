package ui

const (
	minCols         = 60
	minRows         = 16
	wideCols        = 110
	hudWidth        = 34
	selectListWidth = 38
)

// DetermineLayoutMode picks the playing layout. Wide puts the HUD beside the
// terminal; medium stacks a one-line HUD above it.
func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols {
		return LayoutWide
	}
	return LayoutMedium
}

// terminalSize is the inner size of the terminal panel for a screen of
// cols x rows in the given layout.
func terminalSize(mode LayoutMode, cols, rows int) (int, int) {
	bodyH := max(3, rows-3)
	switch mode {
	case LayoutWide:
		return max(1, cols-hudWidth-2), max(1, bodyH-2)
	case LayoutMedium:
		return max(1, cols-2), max(1, bodyH-3)
	default:
		return max(1, cols-2), max(1, rows-2)
	}
}
