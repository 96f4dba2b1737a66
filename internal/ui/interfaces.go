package ui

import (
	"time"

	"sysadminsim/internal/session"
	"sysadminsim/internal/term"
)

// Controller receives user intents from the view. Calls that reach the
// evaluator are dispatched on their own goroutine; terminal input is
// delivered in order on the UI goroutine and must not block.
type Controller interface {
	OnRefreshMissions()
	OnRename(name string)
	OnStartMission(missionID string)
	OnTerminalInput(ev term.Event)
	OnPaste(text string)
	OnHint()
	OnAbort()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetState(st session.State)
	SetPlayer(name string)
	SetJournal(summary JournalSummary)
	FlashStatus(msg string)
	RequestDraw()
}

// Terminal is the command pane the view renders. *term.VTSurface implements it.
type Terminal interface {
	Snapshot(width, height int) term.Snapshot
	Resize(cols, rows int)
	ToggleScrollback()
	InScrollback() bool
	Scroll(delta int)
}

type Screen int

const (
	ScreenMissionSelect Screen = iota
	ScreenPlaying
)

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

// JournalSummary is the local run history shown on the mission list.
type JournalSummary struct {
	Enabled     bool
	MissionRuns int
	Completed   int
	Commands    int
	Accepted    int
	LastMission string
	LastOutcome string
	LastScore   int
	LastPlayed  time.Time
}
