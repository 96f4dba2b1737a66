package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The journal is written from the UI loop and evaluator goroutines.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mission_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			mission_id TEXT NOT NULL,
			player_name TEXT NOT NULL DEFAULT '',
			start_ts TEXT NOT NULL,
			end_ts TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL DEFAULT '',
			score INTEGER NOT NULL DEFAULT 0,
			mistakes INTEGER NOT NULL DEFAULT 0,
			steps_cleared INTEGER NOT NULL DEFAULT 0,
			commands INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS mission_runs_session ON mission_runs(session_id);`,
		`CREATE TABLE IF NOT EXISTS command_attempts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			command TEXT NOT NULL,
			accepted INTEGER NOT NULL DEFAULT 0,
			score_awarded INTEGER NOT NULL DEFAULT 0,
			stale INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			attempt_ts TEXT NOT NULL DEFAULT (datetime('now')),
			FOREIGN KEY(run_id) REFERENCES mission_runs(id)
		);`,
		`CREATE TABLE IF NOT EXISTS mission_progress (
			mission_id TEXT PRIMARY KEY,
			completed_count INTEGER NOT NULL DEFAULT 0,
			best_score INTEGER NOT NULL DEFAULT 0,
			best_time_ms INTEGER NOT NULL DEFAULT 0,
			last_played_ts TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE TABLE IF NOT EXISTS app_settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) StartMissionRun(ctx context.Context, run MissionRun) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mission_runs(session_id, mission_id, player_name, start_ts) VALUES(?,?,?,?)`,
		run.SessionID,
		run.MissionID,
		strings.TrimSpace(run.PlayerName),
		run.StartTS.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) RecordCommand(ctx context.Context, runID int64, attempt CommandAttempt) error {
	ts := attempt.AttemptTS
	if ts.IsZero() {
		ts = time.Now()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO command_attempts(run_id, seq, command, accepted, score_awarded, stale, error, attempt_ts)
		VALUES(?,?,?,?,?,?,?,?)
	`,
		runID,
		int64(attempt.Seq),
		attempt.Command,
		boolInt(attempt.Accepted),
		attempt.ScoreAwarded,
		boolInt(attempt.Stale),
		attempt.Err,
		ts.UTC().Format(timeLayout),
	); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `UPDATE mission_runs SET commands = commands + 1 WHERE id = ?`, runID)
	return err
}

// FinishMissionRun closes a run once. A second call for the same run is a
// no-op so a completed run cannot later be recorded as aborted.
func (s *SQLiteStore) FinishMissionRun(ctx context.Context, runID int64, result RunResult) (err error) {
	end := result.EndTS
	if end.IsZero() {
		end = time.Now()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		missionID  string
		startTSRaw string
	)
	row := tx.QueryRowContext(ctx, `SELECT mission_id, start_ts FROM mission_runs WHERE id = ? AND outcome = ''`, runID)
	if err = row.Scan(&missionID, &startTSRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return nil
		}
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		UPDATE mission_runs
		SET end_ts = ?, outcome = ?, score = ?, mistakes = ?, steps_cleared = ?
		WHERE id = ?
	`, end.UTC().Format(timeLayout), result.Outcome, max(0, result.Score), max(0, result.Mistakes), max(0, result.StepsCleared), runID); err != nil {
		return err
	}

	completed := result.Outcome == OutcomeComplete
	var durationMS int64
	if start, perr := time.Parse(timeLayout, startTSRaw); perr == nil && completed {
		durationMS = max(0, end.Sub(start).Milliseconds())
	}
	score := 0
	if completed {
		score = max(0, result.Score)
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO mission_progress(mission_id, completed_count, best_score, best_time_ms, last_played_ts)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(mission_id) DO UPDATE SET
			completed_count = mission_progress.completed_count + excluded.completed_count,
			best_score = CASE
				WHEN excluded.best_score > mission_progress.best_score THEN excluded.best_score
				ELSE mission_progress.best_score
			END,
			best_time_ms = CASE
				WHEN excluded.best_time_ms > 0 AND (mission_progress.best_time_ms = 0 OR excluded.best_time_ms < mission_progress.best_time_ms) THEN excluded.best_time_ms
				ELSE mission_progress.best_time_ms
			END,
			last_played_ts = excluded.last_played_ts
	`, missionID, boolInt(completed), score, durationMS, end.UTC().Format(timeLayout)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetMissionProgressMap(ctx context.Context) (map[string]MissionProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mission_id, completed_count, best_score, best_time_ms, last_played_ts
		FROM mission_progress
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]MissionProgress{}
	for rows.Next() {
		var (
			p          MissionProgress
			lastPlayed string
		)
		if err := rows.Scan(&p.MissionID, &p.CompletedCount, &p.BestScore, &p.BestTimeMS, &lastPlayed); err != nil {
			return nil, err
		}
		if t, err := time.Parse(timeLayout, lastPlayed); err == nil {
			p.LastPlayedTS = t
		}
		out[p.MissionID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, values map[string]string) (err error) {
	if len(values) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for key, value := range values {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO app_settings(key, value) VALUES(?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, value); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM app_settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) GetSummary(ctx context.Context) (Summary, error) {
	var out Summary
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM mission_runs),
			(SELECT COUNT(*) FROM mission_runs WHERE outcome = ?),
			(SELECT COUNT(*) FROM command_attempts),
			(SELECT COUNT(*) FROM command_attempts WHERE accepted = 1)
	`, OutcomeComplete)
	if err := row.Scan(&out.MissionRuns, &out.Completed, &out.Commands, &out.Accepted); err != nil {
		return Summary{}, err
	}
	return out, nil
}

func (s *SQLiteStore) GetLastRun(ctx context.Context) (*LastRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT mission_id, player_name, start_ts, outcome, score, mistakes, commands
		FROM mission_runs
		ORDER BY id DESC
		LIMIT 1
	`)
	var (
		out        LastRun
		startTSRaw string
	)
	if err := row.Scan(&out.MissionID, &out.PlayerName, &startTSRaw, &out.Outcome, &out.Score, &out.Mistakes, &out.Commands); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if t, err := time.Parse(timeLayout, startTSRaw); err == nil {
		out.StartTS = t
	}
	return &out, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

const (
	OutcomeComplete = "complete"
	OutcomeAborted  = "aborted"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
