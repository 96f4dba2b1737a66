package session

import (
	"context"

	"sysadminsim/internal/api"
)

// Evaluator is the remote grading service. *api.Client implements it.
type Evaluator interface {
	ListMissions(ctx context.Context) ([]api.MissionSummary, error)
	StartMission(ctx context.Context, req api.StartRequest) (api.StartResponse, error)
	SubmitCommand(ctx context.Context, sessionID string, req api.CommandRequest) (api.CommandResponse, error)
	RequestHint(ctx context.Context, sessionID string) (api.HintResponse, error)
	SessionStatus(ctx context.Context, sessionID string) (api.SessionStatus, error)
}

// Countdown is the local clock. *countdown.Timer implements it.
type Countdown interface {
	Start(seconds int)
	Stop()
	SetRemaining(seconds int)
	Remaining() int
	Active() bool
}

// Recorder receives session lifecycle events for the local run journal.
// Implementations handle their own errors.
type Recorder interface {
	RecordStart(ctx context.Context, s Session)
	RecordCommand(ctx context.Context, rec CommandRecord)
	RecordEnd(ctx context.Context, s Session, outcome Outcome)
}
