package term

import (
	"sync"

	"sysadminsim/internal/transcript"
)

const PromptSuffix = "$ "

// Display drives a Surface from two sources: the line editor, fed by
// keystrokes, and the transcript, which it follows through a cursor and
// pushes only the unseen lines of.
type Display struct {
	mu sync.Mutex

	surface Surface
	lines   *transcript.Transcript
	cursor  transcript.Cursor
	state   State
	prompt  string

	onSubmit func(command string)
}

type DisplayOptions struct {
	Surface    Surface
	Transcript *transcript.Transcript
	Label      string
	// OnSubmit receives every line the editor emits, including empty ones.
	// It is called with the display lock held and must not block.
	OnSubmit func(command string)
}

func NewDisplay(opts DisplayOptions) *Display {
	d := &Display{
		surface:  opts.Surface,
		lines:    opts.Transcript,
		prompt:   opts.Label + PromptSuffix,
		onSubmit: opts.OnSubmit,
		state:    State{Disabled: true},
	}
	if d.lines == nil {
		d.lines = transcript.New()
	}
	d.surface.WriteRaw(d.prompt)
	return d
}

func (d *Display) Prompt() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prompt
}

// SetLabel changes the prompt label. The new prompt shows up the next time
// the prompt is drawn.
func (d *Display) SetLabel(label string) {
	d.mu.Lock()
	d.prompt = label + PromptSuffix
	d.mu.Unlock()
}

func (d *Display) SetDisabled(disabled bool) {
	d.mu.Lock()
	d.state.Disabled = disabled
	d.mu.Unlock()
}

func (d *Display) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Feed runs one input event through the editor and applies its effects.
func (d *Display) Feed(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var effects []Effect
	d.state, effects = Step(d.state, ev)
	for _, e := range effects {
		switch e.Kind {
		case EffectEcho:
			d.surface.WriteRaw(e.Text)
		case EffectPrompt:
			d.surface.WriteRaw(d.prompt)
		case EffectSubmit:
			if d.onSubmit != nil {
				d.onSubmit(e.Text)
			}
		}
	}
}

// FeedText feeds s one rune at a time, the way pasted text arrives.
// Newlines are treated as Enter.
func (d *Display) FeedText(s string) {
	for _, r := range s {
		if r == '\n' {
			r = '\r'
		}
		d.Feed(Event(string(r)))
	}
}

// Sync pushes transcript lines the surface has not shown yet. After a
// transcript reset the surface is wiped and replayed from the start.
func (d *Display) Sync() {
	d.mu.Lock()
	defer d.mu.Unlock()

	pending, next, resync := d.lines.Pending(d.cursor)
	if resync {
		d.surface.Reset()
		d.state.Buffer = ""
		d.surface.WriteRaw(d.prompt)
	}
	d.cursor = next
	if len(pending) == 0 {
		return
	}
	d.surface.WriteRaw(newlineSeq)
	for _, line := range pending {
		d.surface.WriteLine(line)
	}
	d.surface.WriteRaw(d.prompt + d.state.Buffer)
}

func (d *Display) Cursor() transcript.Cursor {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cursor
}
