package state

import (
	"context"
	"sync"

	"sysadminsim/internal/session"
	"sysadminsim/internal/telemetry"
)

// Journal adapts a Store to session.Recorder. Store failures are logged and
// swallowed; the journal never affects play.
type Journal struct {
	store Store
	log   *telemetry.Logger

	mu   sync.Mutex
	runs map[string]int64
}

var _ session.Recorder = (*Journal)(nil)

func NewJournal(store Store, log *telemetry.Logger) *Journal {
	return &Journal{store: store, log: log, runs: map[string]int64{}}
}

func (j *Journal) RecordStart(ctx context.Context, s session.Session) {
	id, err := j.store.StartMissionRun(ctx, MissionRun{
		SessionID:  s.ID,
		MissionID:  s.Mission.ID,
		PlayerName: s.PlayerName,
		StartTS:    s.StartedAt,
	})
	if err != nil {
		j.fail("journal.start_failed", s.ID, err)
		return
	}
	j.mu.Lock()
	j.runs[s.ID] = id
	j.mu.Unlock()
}

func (j *Journal) RecordCommand(ctx context.Context, rec session.CommandRecord) {
	id, ok := j.run(rec.SessionID)
	if !ok {
		return
	}
	err := j.store.RecordCommand(ctx, id, CommandAttempt{
		Seq:          rec.Seq,
		Command:      rec.Command,
		Accepted:     rec.Accepted,
		ScoreAwarded: rec.ScoreAwarded,
		Stale:        rec.Stale,
		Err:          rec.Err,
		AttemptTS:    rec.At,
	})
	if err != nil {
		j.fail("journal.command_failed", rec.SessionID, err)
	}
}

func (j *Journal) RecordEnd(ctx context.Context, s session.Session, outcome session.Outcome) {
	j.mu.Lock()
	id, ok := j.runs[s.ID]
	delete(j.runs, s.ID)
	j.mu.Unlock()
	if !ok {
		return
	}
	err := j.store.FinishMissionRun(ctx, id, RunResult{
		Outcome:      string(outcome),
		Score:        s.Score,
		Mistakes:     s.Mistakes,
		StepsCleared: s.StepIndex,
	})
	if err != nil {
		j.fail("journal.finish_failed", s.ID, err)
	}
}

// Summary returns the aggregate counters, or ok=false when they cannot be read.
func (j *Journal) Summary(ctx context.Context) (Summary, *LastRun, bool) {
	sum, err := j.store.GetSummary(ctx)
	if err != nil {
		j.fail("journal.summary_failed", "", err)
		return Summary{}, nil, false
	}
	last, err := j.store.GetLastRun(ctx)
	if err != nil {
		j.fail("journal.summary_failed", "", err)
		return sum, nil, true
	}
	return sum, last, true
}

func (j *Journal) run(sessionID string) (int64, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	id, ok := j.runs[sessionID]
	return id, ok
}

func (j *Journal) fail(event, sessionID string, err error) {
	j.log.Warn(event, map[string]any{"session_id": sessionID, "error": err.Error()})
}
