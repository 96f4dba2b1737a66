package term

import (
	"strings"
	"testing"

	"sysadminsim/internal/transcript"
)

type recordingSurface struct {
	ops []string
}

func (r *recordingSurface) WriteRaw(text string)  { r.ops = append(r.ops, "raw:"+text) }
func (r *recordingSurface) WriteLine(line string) { r.ops = append(r.ops, "line:"+line) }
func (r *recordingSurface) Reset()                { r.ops = append(r.ops, "reset") }

func (r *recordingSurface) take() string {
	out := strings.Join(r.ops, "|")
	r.ops = nil
	return out
}

func newTestDisplay(lines *transcript.Transcript, submitted *[]string) (*Display, *recordingSurface) {
	surf := &recordingSurface{}
	d := NewDisplay(DisplayOptions{
		Surface:    surf,
		Transcript: lines,
		Label:      "ada",
		OnSubmit:   func(cmd string) { *submitted = append(*submitted, cmd) },
	})
	return d, surf
}

func TestDisplayStartsDisabledWithPrompt(t *testing.T) {
	var submitted []string
	d, surf := newTestDisplay(transcript.New(), &submitted)
	if got := surf.take(); got != "raw:ada$ " {
		t.Fatalf("expected initial prompt, got %q", got)
	}
	d.Feed("x")
	if surf.take() != "" || d.State().Buffer != "" {
		t.Fatalf("expected disabled display to ignore input")
	}
}

func TestDisplayEchoesAndSubmits(t *testing.T) {
	var submitted []string
	d, surf := newTestDisplay(transcript.New(), &submitted)
	surf.take()
	d.SetDisabled(false)

	d.FeedText("ls\n")
	if len(submitted) != 1 || submitted[0] != "ls" {
		t.Fatalf("expected ls submitted, got %q", submitted)
	}
	if got := surf.take(); got != "raw:l|raw:s|raw:\r\n|raw:ada$ " {
		t.Fatalf("unexpected surface ops %q", got)
	}
}

func TestDisplaySyncPushesOnlyDelta(t *testing.T) {
	lines := transcript.New()
	var submitted []string
	d, surf := newTestDisplay(lines, &submitted)
	surf.take()
	d.SetDisabled(false)

	lines.Append("$ pwd", "/home/sysadmin")
	d.Sync()
	if got := surf.take(); got != "raw:\r\n|line:$ pwd|line:/home/sysadmin|raw:ada$ " {
		t.Fatalf("unexpected first sync %q", got)
	}

	d.Sync()
	if got := surf.take(); got != "" {
		t.Fatalf("expected no writes without new lines, got %q", got)
	}

	d.Feed("c")
	d.Feed("d")
	surf.take()
	lines.Append("Hint: use ls")
	d.Sync()
	if got := surf.take(); got != "raw:\r\n|line:Hint: use ls|raw:ada$ cd" {
		t.Fatalf("expected pending input restored after prompt, got %q", got)
	}
	if d.Cursor().Pos != 3 {
		t.Fatalf("expected cursor at 3, got %d", d.Cursor().Pos)
	}
}

func TestDisplayResyncAfterReset(t *testing.T) {
	lines := transcript.New()
	var submitted []string
	d, surf := newTestDisplay(lines, &submitted)
	d.SetDisabled(false)
	lines.Append("a", "b", "c")
	d.Sync()
	d.Feed("x")
	surf.take()

	lines.Reset("Mission: Warm Up")
	d.Sync()
	if got := surf.take(); got != "reset|raw:ada$ |raw:\r\n|line:Mission: Warm Up|raw:ada$ " {
		t.Fatalf("unexpected resync ops %q", got)
	}
	if d.State().Buffer != "" {
		t.Fatalf("expected pending input dropped on resync")
	}

	lines.Reset()
	d.Sync()
	if got := surf.take(); got != "reset|raw:ada$ " {
		t.Fatalf("expected wipe and prompt for empty transcript, got %q", got)
	}
}

func TestDisplaySetLabel(t *testing.T) {
	var submitted []string
	d, surf := newTestDisplay(transcript.New(), &submitted)
	surf.take()
	d.SetDisabled(false)
	d.SetLabel("grace")
	d.Feed("\x03")
	if got := surf.take(); got != "raw:^C\r\n|raw:grace$ " {
		t.Fatalf("unexpected interrupt ops %q", got)
	}
	if len(submitted) != 0 {
		t.Fatalf("interrupt must not submit")
	}
}
