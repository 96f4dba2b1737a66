package transcript

import "sync"

// Transcript is the ordered, append-only log of everything the simulated
// terminal should have printed. It only shrinks through Reset, which bumps
// the generation so consumers know their cursor is stale.
type Transcript struct {
	mu    sync.RWMutex
	lines []string
	gen   uint64
}

// Cursor records how far a consumer has rendered.
type Cursor struct {
	Generation uint64
	Pos        int
}

func New() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	t.mu.Lock()
	t.lines = append(t.lines, lines...)
	t.mu.Unlock()
}

// Delta returns a copy of the lines at index >= since.
func (t *Transcript) Delta(since int) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if since < 0 {
		since = 0
	}
	if since >= len(t.lines) {
		return nil
	}
	return append([]string(nil), t.lines[since:]...)
}

// Reset empties the transcript and optionally seeds it in one step.
func (t *Transcript) Reset(seed ...string) {
	t.mu.Lock()
	t.lines = append([]string(nil), seed...)
	t.gen++
	t.mu.Unlock()
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.lines)
}

func (t *Transcript) Lines() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.lines...)
}

func (t *Transcript) Generation() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

// Pending returns the lines a consumer at c has not rendered yet and the
// cursor to store afterwards. resync is true when c is stale (its position
// is past the end, or a reset happened since it was taken); the consumer
// must then discard its rendered buffer and replay lines from index 0.
func (t *Transcript) Pending(c Cursor) (lines []string, next Cursor, resync bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	next = Cursor{Generation: t.gen, Pos: len(t.lines)}
	if c.Generation != t.gen || c.Pos > len(t.lines) {
		return append([]string(nil), t.lines...), next, true
	}
	if c.Pos == len(t.lines) {
		return nil, next, false
	}
	return append([]string(nil), t.lines[c.Pos:]...), next, false
}
