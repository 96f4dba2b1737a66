package ui

import "testing"

func TestDetermineLayoutMode(t *testing.T) {
	if got := DetermineLayoutMode(140, 30); got != LayoutWide {
		t.Fatalf("expected wide, got %v", got)
	}
	if got := DetermineLayoutMode(100, 30); got != LayoutMedium {
		t.Fatalf("expected medium, got %v", got)
	}
	if got := DetermineLayoutMode(50, 30); got != LayoutTooSmall {
		t.Fatalf("expected too-small, got %v", got)
	}
	if got := DetermineLayoutMode(100, 10); got != LayoutTooSmall {
		t.Fatalf("expected too-small by height, got %v", got)
	}
}

func TestTerminalSize(t *testing.T) {
	w, h := terminalSize(LayoutWide, 120, 40)
	if w != 120-hudWidth-2 || h != 35 {
		t.Fatalf("unexpected wide terminal size %dx%d", w, h)
	}
	w, h = terminalSize(LayoutMedium, 100, 30)
	if w != 98 || h != 24 {
		t.Fatalf("unexpected medium terminal size %dx%d", w, h)
	}
}
