package state

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	StartMissionRun(ctx context.Context, run MissionRun) (int64, error)
	RecordCommand(ctx context.Context, runID int64, attempt CommandAttempt) error
	FinishMissionRun(ctx context.Context, runID int64, result RunResult) error
	GetMissionProgressMap(ctx context.Context) (map[string]MissionProgress, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	GetLastRun(ctx context.Context) (*LastRun, error)
	Close() error
}

type MissionRun struct {
	SessionID  string
	MissionID  string
	PlayerName string
	StartTS    time.Time
}

type CommandAttempt struct {
	Seq          uint64
	Command      string
	Accepted     bool
	ScoreAwarded int
	Stale        bool
	Err          string
	AttemptTS    time.Time
}

type RunResult struct {
	Outcome      string
	Score        int
	Mistakes     int
	StepsCleared int
	EndTS        time.Time
}

type Summary struct {
	MissionRuns int
	Completed   int
	Commands    int
	Accepted    int
}

type LastRun struct {
	MissionID  string
	PlayerName string
	StartTS    time.Time
	Outcome    string
	Score      int
	Mistakes   int
	Commands   int
}

type MissionProgress struct {
	MissionID      string
	CompletedCount int
	BestScore      int
	BestTimeMS     int64
	LastPlayedTS   time.Time
}
