package ui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > 4 {
		label := trimForWidth(" "+title+" ", innerW-2)
		fill := innerW - ansi.StringWidth(label) - 1
		top = r.theme.PanelBorder.Render(tl+h) +
			r.theme.PanelTitle.Render(label) +
			r.theme.PanelBorder.Render(strings.Repeat(h, max(0, fill))+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	side := r.theme.PanelBorder.Render(v)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, side+r.theme.PanelBody.Render(padWidth(line, innerW))+side)
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

// padWidth truncates or pads s to exactly width cells. Escape sequences in
// s are kept and do not count toward the width.
func padWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// wrapText splits s into rows of at most width runes on word boundaries.
func wrapText(s string, width int) []string {
	if width <= 0 {
		return nil
	}
	var out []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		line := ""
		for _, w := range words {
			switch {
			case line == "":
				line = w
			case len([]rune(line))+1+len([]rune(w)) <= width:
				line += " " + w
			default:
				out = append(out, trimForWidth(line, width))
				line = w
			}
		}
		out = append(out, trimForWidth(line, width))
	}
	return out
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func wrapIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return n - 1
	}
	if i >= n {
		return 0
	}
	return i
}
