package session

import (
	"time"

	"sysadminsim/internal/api"
)

type Phase int

const (
	PhaseNoSession Phase = iota
	PhaseActive
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseComplete:
		return "complete"
	default:
		return "no_session"
	}
}

// Session is one attempt at a mission. The controller replaces it wholesale
// on start and abort; counters are only ever overwritten from evaluator
// responses.
type Session struct {
	ID               string
	Mission          api.MissionSummary
	PlayerName       string
	StepIndex        int
	TotalSteps       int
	Score            int
	Mistakes         int
	TimeLimitSeconds int
	Complete         bool
	StartedAt        time.Time
}

// State is a copy of everything the view needs to draw.
type State struct {
	Phase     Phase
	Session   Session
	Catalog   []api.MissionSummary
	Feedback  string
	InFlight  int
	Remaining int
	Ticking   bool
}

func (s State) HasSession() bool { return s.Phase != PhaseNoSession }

type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeAborted  Outcome = "aborted"
)

// CommandRecord is what gets journaled per evaluated or failed command.
type CommandRecord struct {
	SessionID    string
	Seq          uint64
	Command      string
	Accepted     bool
	ScoreAwarded int
	Stale        bool
	Err          string
	At           time.Time
}
