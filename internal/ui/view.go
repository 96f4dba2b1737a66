package ui

import (
	"fmt"
	"io"
	"math"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/session"
	"sysadminsim/internal/term"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
)

const appTitle = "SysAdmin Simulator"

// applyMsg wakes the program loop to drain queued setter calls.
type applyMsg struct{}

type drawMsg struct{}
type animateMsg time.Time

type playKeyMap struct {
	Hint       key.Binding
	Scrollback key.Binding
	Abort      key.Binding
	Quit       key.Binding
}

func (k playKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hint, k.Scrollback, k.Abort, k.Quit}
}

func (k playKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Hint, k.Scrollback}, {k.Abort, k.Quit}}
}

type selectKeyMap struct {
	Move    key.Binding
	Deploy  key.Binding
	Rename  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

func (k selectKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Move, k.Deploy, k.Rename, k.Refresh, k.Quit}
}

func (k selectKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Move, k.Deploy}, {k.Rename, k.Refresh, k.Quit}}
}

// Root is the Bubble Tea model for the whole client. Its setters may be
// called from any goroutine; they are funneled through the program loop
// once it is running.
type Root struct {
	theme Theme
	ascii bool
	debug bool
	term  Terminal
	ctrl  Controller

	mu      sync.Mutex
	program *tea.Program
	running bool
	pending []func(*Root)
	live    atomic.Bool

	layout LayoutMode
	cols   int
	rows   int

	state       session.State
	player      string
	journal     JournalSummary
	selected    int
	statusFlash string

	renaming  bool
	nameDraft string

	help       help.Model
	playKeys   playKeyMap
	selectKeys selectKeyMap
	steps      progress.Model
	busy       spinner.Model
	markdown   *glamour.TermRenderer
	briefings  map[string][]string
	logger     *clog.Logger

	reduceMotion bool
	spring       harmonica.Spring
	scoreShown   float64
	scoreVel     float64
	animating    bool

	drawPending atomic.Bool

	termCursorX    int
	termCursorY    int
	termCursorShow bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly    bool
	Debug        bool
	Terminal     Terminal
	StyleVariant string
	ReduceMotion bool
	PlayerName   string
	// LogWriter receives view diagnostics. It defaults to stderr.
	LogWriter io.Writer
}

func New(opts Options) *Root {
	w := opts.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logger := clog.NewWithOptions(w, clog.Options{Prefix: "sysadminsim-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		logger.Warn("ui.markdown_unavailable", "err", err)
		renderer = nil
	}

	theme := ThemeForVariant(opts.StyleVariant)
	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	if opts.ReduceMotion {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	}

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		term:         opts.Terminal,
		layout:       LayoutWide,
		cols:         120,
		rows:         30,
		player:       opts.PlayerName,
		help:         h,
		steps:        progress.New(progress.WithWidth(20), progress.WithColors(theme.Bar[0], theme.Bar[1]), progress.WithScaled(true)),
		busy:         spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Accent)),
		markdown:     renderer,
		briefings:    map[string][]string{},
		logger:       logger,
		reduceMotion: opts.ReduceMotion,
		spring:       spring,
	}
	r.playKeys = playKeyMap{
		Hint:       key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Hint")),
		Scrollback: key.NewBinding(key.WithKeys("f9"), key.WithHelp("F9", "Scrollback")),
		Abort:      key.NewBinding(key.WithKeys("f10"), key.WithHelp("F10", "Abort")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	r.selectKeys = selectKeyMap{
		Move:    key.NewBinding(key.WithKeys("up", "down", "k", "j"), key.WithHelp("↑/↓", "Select")),
		Deploy:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Deploy")),
		Rename:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "Name")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "Refresh")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+q"), key.WithHelp("Ctrl+Q", "Quit")),
	}
	r.resizeTerminal()
	return r
}

func (r *Root) Init() tea.Cmd {
	return spinnerTickCmd(r.busy)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.resizeTerminal()
		return r, nil
	case applyMsg:
		r.mu.Lock()
		fns := r.pending
		r.pending = nil
		r.mu.Unlock()
		for _, fn := range fns {
			fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		return r, nil
	case animateMsg:
		target := float64(r.state.Session.Score)
		r.scoreShown, r.scoreVel = r.spring.Update(r.scoreShown, r.scoreVel, target)
		if r.scoreSettled() {
			r.scoreShown, r.scoreVel = target, 0
			r.animating = false
			return r, nil
		}
		return r, animateTickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.busy, cmd = r.busy.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth("UI recovered from a rendering panic. Check logs.", max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}
	r.termCursorShow = false

	var base string
	switch r.screen() {
	case ScreenPlaying:
		base = r.renderPlaying()
	default:
		base = r.renderMissionSelect()
	}
	v := tea.NewView(base)
	v.AltScreen = true
	if r.termCursorShow && r.screen() == ScreenPlaying {
		v.Cursor = tea.NewCursor(r.termCursorX, r.termCursorY)
	}
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.live.Store(true)
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.live.Store(false)
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

// SetState replaces the session snapshot the view draws from.
func (r *Root) SetState(st session.State) {
	r.apply(func(m *Root) {
		prevID := m.state.Session.ID
		m.state = st
		m.selected = wrapIndex(m.selected, len(st.Catalog))
		if len(st.Catalog) == 0 {
			m.selected = 0
		}
		if st.Session.ID != prevID || !m.live.Load() || m.reduceMotion {
			m.scoreShown, m.scoreVel = float64(st.Session.Score), 0
		}
	})
}

func (r *Root) SetPlayer(name string) {
	r.apply(func(m *Root) {
		m.player = name
	})
}

func (r *Root) SetJournal(summary JournalSummary) {
	r.apply(func(m *Root) {
		m.journal = summary
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// RequestDraw coalesces redraw requests from the terminal surface to one
// per frame.
func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

// apply runs fn against the model on the program goroutine, in call order.
// It never blocks, so it is safe to call from inside Update.
func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	if !r.running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.pending = append(r.pending, fn)
	wake := len(r.pending) == 1
	r.mu.Unlock()
	if wake {
		go p.Send(applyMsg{})
	}
}

// dispatchController runs fn off the UI goroutine; use it for anything
// that may wait on the evaluator.
func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

// deliver runs fn on the UI goroutine so keystrokes keep their order.
func (r *Root) deliver(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	fn(r.ctrl)
}

func (r *Root) screen() Screen {
	if r.state.HasSession() {
		return ScreenPlaying
	}
	return ScreenMissionSelect
}

func (r *Root) resizeTerminal() {
	if r.term == nil {
		return
	}
	w, h := terminalSize(DetermineLayoutMode(r.cols, r.rows), r.cols, r.rows)
	r.term.Resize(w, h)
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.playKeys.Quit) {
		if r.ctrl == nil {
			return r, tea.Quit
		}
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}

	if r.screen() == ScreenPlaying {
		return r.handlePlayingKey(msg)
	}
	if r.renaming {
		return r.handleRenameKey(msg)
	}
	return r.handleSelectKey(msg)
}

func (r *Root) handleSelectKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	n := len(r.state.Catalog)
	switch msg.String() {
	case "up", "k":
		r.selected = wrapIndex(r.selected-1, n)
	case "down", "j":
		r.selected = wrapIndex(r.selected+1, n)
	case "enter":
		if n == 0 || r.state.InFlight > 0 {
			return r, nil
		}
		id := r.state.Catalog[wrapIndex(r.selected, n)].ID
		r.statusFlash = ""
		r.dispatchController(func(c Controller) { c.OnStartMission(id) })
	case "r":
		r.dispatchController(func(c Controller) { c.OnRefreshMissions() })
	case "n":
		r.renaming = true
		r.nameDraft = r.player
	}
	return r, nil
}

func (r *Root) handleRenameKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyEnter:
		name := strings.TrimSpace(r.nameDraft)
		r.renaming = false
		r.player = name
		r.deliver(func(c Controller) { c.OnRename(name) })
		return r, nil
	case tea.KeyEsc:
		r.renaming = false
		r.nameDraft = ""
		return r, nil
	case tea.KeyBackspace:
		if runes := []rune(r.nameDraft); len(runes) > 0 {
			r.nameDraft = string(runes[:len(runes)-1])
		}
		return r, nil
	}
	if msg.Text != "" && msg.Mod&(tea.ModCtrl|tea.ModAlt) == 0 {
		r.nameDraft = trimForWidth(r.nameDraft+msg.Text, 32)
	}
	return r, nil
}

func (r *Root) handlePlayingKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.Code {
	case tea.KeyF1:
		if r.state.Phase != session.PhaseActive {
			return r, nil
		}
		r.dispatchController(func(c Controller) { c.OnHint() })
		return r, nil
	case tea.KeyF9:
		if r.term != nil {
			r.term.ToggleScrollback()
		}
		return r, nil
	case tea.KeyF10:
		r.deliver(func(c Controller) { c.OnAbort() })
		return r, nil
	case tea.KeyEsc:
		if r.term != nil && r.term.InScrollback() {
			r.term.ToggleScrollback()
			return r, nil
		}
		if r.state.Phase == session.PhaseComplete {
			r.deliver(func(c Controller) { c.OnAbort() })
			return r, nil
		}
	}

	if r.term != nil {
		if msg.Mod&tea.ModShift != 0 && (msg.Code == tea.KeyPgUp || msg.Code == tea.KeyPgDown) {
			if !r.term.InScrollback() {
				r.term.ToggleScrollback()
			}
			if msg.Code == tea.KeyPgUp {
				r.term.Scroll(-10)
			} else {
				r.term.Scroll(10)
			}
			return r, nil
		}
		if r.term.InScrollback() {
			switch msg.Code {
			case tea.KeyUp:
				r.term.Scroll(-1)
			case tea.KeyDown:
				r.term.Scroll(1)
			case tea.KeyPgUp:
				r.term.Scroll(-10)
			case tea.KeyPgDown:
				r.term.Scroll(10)
			}
			return r, nil
		}
	}

	if ev := term.KeyEvent(msg); ev != "" {
		r.deliver(func(c Controller) { c.OnTerminalInput(ev) })
	}
	return r, nil
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if msg.Content == "" {
		return r, nil
	}
	if r.screen() != ScreenPlaying {
		if r.renaming {
			line, _, _ := strings.Cut(msg.Content, "\n")
			r.nameDraft = trimForWidth(r.nameDraft+line, 32)
		}
		return r, nil
	}
	if r.term != nil && r.term.InScrollback() {
		r.term.ToggleScrollback()
	}
	content := msg.Content
	r.deliver(func(c Controller) { c.OnPaste(content) })
	return r, nil
}

func (r *Root) renderMissionSelect() string {
	w, h := r.cols, r.rows
	header := r.theme.Header.Width(max(1, w)).Render(trimForWidth(appTitle+" | Mission Select", max(1, w-2)))
	bodyH := max(3, h-3)

	listW := min(selectListWidth, max(24, w/3))
	left := r.drawPanel("Missions", r.missionListLines(listW-2), listW, bodyH)
	right := r.drawPanel("Briefing", r.briefingLines(max(1, w-listW-2)), max(20, w-listW), bodyH)
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return header + "\n" + body + "\n" + r.feedbackLine() + "\n" + r.statusText(r.selectKeys)
}

func (r *Root) missionListLines(width int) []string {
	var lines []string
	if len(r.state.Catalog) == 0 {
		lines = append(lines, r.theme.Muted.Render("No missions loaded yet."))
	}
	for i, m := range r.state.Catalog {
		label := m.Title
		if m.Difficulty != "" {
			label += " [" + m.Difficulty + "]"
		}
		if i == r.selected {
			lines = append(lines, r.theme.Selected.Render(padWidth("> "+trimForWidth(label, width-2), width)))
			continue
		}
		lines = append(lines, "  "+trimForWidth(label, width-2))
	}

	lines = append(lines, "")
	if r.renaming {
		cursor := "▌"
		if r.ascii {
			cursor = "_"
		}
		lines = append(lines, r.theme.Accent.Render("Name: "+r.nameDraft+cursor))
	} else {
		lines = append(lines, "Commander: "+session.PlayerBadge(r.player))
	}

	if j := r.journal; j.Enabled {
		lines = append(lines, "", r.theme.PanelTitle.Render("Service Record"))
		lines = append(lines, fmt.Sprintf("Runs: %d  Completed: %d", j.MissionRuns, j.Completed))
		lines = append(lines, fmt.Sprintf("Commands: %d  Accepted: %d", j.Commands, j.Accepted))
		if j.LastMission != "" {
			last := fmt.Sprintf("Last: %s (%s, %d pts)", j.LastMission, firstNonEmpty(j.LastOutcome, "in progress"), j.LastScore)
			lines = append(lines, wrapText(last, width)...)
		}
	}
	return lines
}

func (r *Root) selectedMission() (api.MissionSummary, bool) {
	if len(r.state.Catalog) == 0 {
		return api.MissionSummary{}, false
	}
	return r.state.Catalog[wrapIndex(r.selected, len(r.state.Catalog))], true
}

func (r *Root) briefingLines(width int) []string {
	m, ok := r.selectedMission()
	if !ok {
		return []string{r.theme.Muted.Render("Pick a mission to read its briefing.")}
	}
	cacheKey := fmt.Sprintf("%s/%d", m.ID, width)
	if lines, ok := r.briefings[cacheKey]; ok {
		return lines
	}
	var lines []string
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(BriefingMarkdown(m)); err == nil {
			lines = splitLines(strings.Trim(rendered, "\n"))
		} else {
			r.logger.Debug("ui.markdown_failed", "mission", m.ID, "err", err)
		}
	}
	if lines == nil {
		lines = append(lines, m.Title)
		if m.Difficulty != "" {
			lines = append(lines, m.Difficulty)
		}
		lines = append(lines, "")
		lines = append(lines, wrapText(m.Scenario, width)...)
		lines = append(lines, "")
		for _, o := range m.Objectives {
			lines = append(lines, wrapText("- "+o, width)...)
		}
		lines = append(lines, "", DurationLabel(m.DurationSeconds))
		if len(m.RecommendedCommands) > 0 {
			lines = append(lines, wrapText(CommandsLabel(m.RecommendedCommands), width)...)
		}
	}
	r.briefings[cacheKey] = lines
	return lines
}

func (r *Root) renderPlaying() string {
	w, h := r.cols, r.rows
	mode := DetermineLayoutMode(w, h)
	r.layout = mode

	if mode == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
			"Resize the terminal to continue.",
		}
		panel := r.drawPanel("Resize Required", msg, min(40, w), min(8, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	header := r.theme.Header.Width(max(1, w)).Render(trimForWidth(appTitle+" | "+r.state.Session.Mission.Title, max(1, w-2)))
	bodyH := max(3, h-3)
	bodyY := 1

	var body string
	if mode == LayoutWide {
		hud := hudLines(r.state, r.player, r.displayScore())
		hud = append(hud, "", r.progressBar(hudWidth-4))
		hudPanel := r.drawPanel("HUD", hud, hudWidth, bodyH)
		termPanel := r.renderTerminalPanel(w-hudWidth, bodyH, hudWidth, bodyY)
		body = lipgloss.JoinHorizontal(lipgloss.Top, hudPanel, termPanel)
	} else {
		strip := r.theme.Status.Width(max(1, w)).Render(trimForWidth(r.compactHUD(), max(1, w-2)))
		body = strip + "\n" + r.renderTerminalPanel(w, bodyH-1, 0, bodyY+1)
	}
	return header + "\n" + body + "\n" + r.feedbackLine() + "\n" + r.statusText(r.playKeys)
}

func (r *Root) compactHUD() string {
	lines := hudLines(r.state, r.player, r.displayScore())
	parts := []string{}
	for _, l := range lines[1:] {
		if l != "" {
			parts = append(parts, l)
		}
	}
	return strings.Join(parts, " | ")
}

func (r *Root) renderTerminalPanel(width, height, originX, originY int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	lines := make([]string, innerH)
	title := "Terminal"
	if r.term != nil {
		snap := r.term.Snapshot(innerW, innerH)
		copy(lines, snap.Lines)
		if snap.Scrollback {
			title = "Terminal [SCROLLBACK]"
		}
		if snap.CursorShow && !snap.Scrollback && snap.CursorY >= 0 && snap.CursorY < len(lines) {
			row := []rune(padWidth(lines[snap.CursorY], innerW))
			if snap.CursorX >= 0 && snap.CursorX < len(row) {
				cursorRune := '▌'
				if r.ascii {
					cursorRune = '|'
				}
				row[snap.CursorX] = cursorRune
				lines[snap.CursorY] = string(row)
				x := originX + 1 + snap.CursorX
				y := originY + 1 + snap.CursorY
				if x >= 0 && x < r.cols && y >= 0 && y < r.rows {
					r.termCursorX, r.termCursorY, r.termCursorShow = x, y, true
				}
			}
		}
	} else {
		lines[0] = "No terminal attached"
	}
	return r.drawPanel(title, lines, width, height)
}

func (r *Root) feedbackLine() string {
	text := r.state.Feedback
	style := r.theme.Warn
	if r.state.Phase == session.PhaseComplete {
		style = r.theme.Pass
	}
	if text == "" {
		return padWidth("", r.cols)
	}
	return style.Render(padWidth(" "+trimForWidth(text, max(1, r.cols-2)), r.cols))
}

func (r *Root) statusText(keys help.KeyMap) string {
	txt := r.help.View(keys)
	if r.state.InFlight > 0 {
		txt += " | " + r.theme.Accent.Render(strings.TrimSpace(r.busy.View())+" Waiting on evaluator...")
	}
	if r.statusFlash != "" {
		txt += " | " + r.statusFlash
	}
	if r.debug {
		txt += fmt.Sprintf(" | %dx%d %v", r.cols, r.rows, r.layout)
	}
	return r.theme.Status.Width(max(1, r.cols)).Render(trimForWidth(txt, max(1, r.cols-2)))
}

func (r *Root) progressBar(width int) string {
	bar := r.steps
	bar.SetWidth(max(8, width))
	return bar.ViewAs(stepPercent(r.state))
}

func (r *Root) displayScore() int {
	return int(math.Round(r.scoreShown))
}

// animateIfNeeded starts the score spring unless it is settled or already
// running.
func (r *Root) animateIfNeeded() tea.Cmd {
	if r.animating || r.scoreSettled() {
		return nil
	}
	r.animating = true
	return animateTickCmd()
}

func (r *Root) scoreSettled() bool {
	return math.Abs(float64(r.state.Session.Score)-r.scoreShown) < 0.5 && math.Abs(r.scoreVel) < 0.01
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
	r.logger.Debug("ui.input", "event", r.lastInputEvent)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"screen", r.screen(),
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
