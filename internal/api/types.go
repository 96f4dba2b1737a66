package api

import "time"

type MissionSummary struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Difficulty          string   `json:"difficulty"`
	DurationSeconds     int      `json:"duration_seconds"`
	Scenario            string   `json:"scenario"`
	Objectives          []string `json:"objectives"`
	RecommendedCommands []string `json:"recommended_commands"`
}

type StartRequest struct {
	MissionID  string `json:"mission_id"`
	PlayerName string `json:"player_name,omitempty"`
}

type StartResponse struct {
	SessionID        string         `json:"session_id"`
	Mission          MissionSummary `json:"mission"`
	Intro            string         `json:"intro"`
	FirstPrompt      string         `json:"first_prompt"`
	StepIndex        int            `json:"step_index"`
	TotalSteps       int            `json:"total_steps"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	StartedAt        time.Time      `json:"started_at"`
}

type CommandRequest struct {
	Command string `json:"command"`
}

type CommandResponse struct {
	Accepted             bool     `json:"accepted"`
	TerminalOutput       []string `json:"terminal_output"`
	Feedback             string   `json:"feedback"`
	StepIndex            int      `json:"step_index"`
	TotalSteps           int      `json:"total_steps"`
	MissionComplete      bool     `json:"mission_complete"`
	NextPrompt           *string  `json:"next_prompt,omitempty"`
	Mistakes             int      `json:"mistakes"`
	ScoreAwarded         int      `json:"score_awarded"`
	TotalScore           int      `json:"total_score"`
	TimeRemainingSeconds int      `json:"time_remaining_seconds"`
}

// Prompt returns the next prompt, or "" when the evaluator sent none.
func (r CommandResponse) Prompt() string {
	if r.NextPrompt == nil {
		return ""
	}
	return *r.NextPrompt
}

type HintResponse struct {
	StepIndex      int    `json:"step_index"`
	Hint           string `json:"hint"`
	RemainingHints int    `json:"remaining_hints"`
}

type SessionStatus struct {
	SessionID            string `json:"session_id"`
	MissionID            string `json:"mission_id"`
	StepIndex            int    `json:"step_index"`
	TotalSteps           int    `json:"total_steps"`
	Mistakes             int    `json:"mistakes"`
	TimeRemainingSeconds int    `json:"time_remaining_seconds"`
	Completed            bool   `json:"completed"`
}
