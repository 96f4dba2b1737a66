package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/telemetry"
	"sysadminsim/internal/transcript"

	xansi "github.com/charmbracelet/x/ansi"
)

const (
	CompletionBanner = "Mission complete! Update the status page and celebrate."
	AbortFeedback    = "Mission aborted. Select a mission to deploy again."
)

var errStartInProgress = errors.New("a mission launch is already in progress")

type Options struct {
	Evaluator  Evaluator
	Transcript *transcript.Transcript
	Countdown  Countdown
	Logger     *telemetry.Logger
	Recorder   Recorder
	// OnChange is called outside the lock after every visible change.
	OnChange func()
	Now      func() time.Time
}

// Controller owns the mission session. Every operation is safe to call from
// its own goroutine; state changes are serialized by mu, which is released
// only while waiting on the evaluator.
type Controller struct {
	mu sync.Mutex

	eval     Evaluator
	lines    *transcript.Transcript
	clock    Countdown
	log      *telemetry.Logger
	rec      Recorder
	onChange func()
	now      func() time.Time

	catalog  []api.MissionSummary
	session  *Session
	feedback string
	inFlight int
	starting bool

	// seq numbers each command; applied is the newest one whose counters
	// were folded into the session. commands counts submissions awaiting a
	// response.
	seq      uint64
	applied  uint64
	commands int
}

func New(opts Options) *Controller {
	c := &Controller{
		eval:     opts.Evaluator,
		lines:    opts.Transcript,
		clock:    opts.Countdown,
		log:      opts.Logger,
		rec:      opts.Recorder,
		onChange: opts.OnChange,
		now:      opts.Now,
	}
	if c.lines == nil {
		c.lines = transcript.New()
	}
	if c.log == nil {
		c.log = telemetry.Discard()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Controller) Transcript() *transcript.Transcript { return c.lines }

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Controller) phaseLocked() Phase {
	switch {
	case c.session == nil:
		return PhaseNoSession
	case c.session.Complete:
		return PhaseComplete
	default:
		return PhaseActive
	}
}

func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := State{
		Phase:    c.phaseLocked(),
		Catalog:  append([]api.MissionSummary(nil), c.catalog...),
		Feedback: c.feedback,
		InFlight: c.inFlight,
	}
	if c.session != nil {
		st.Session = *c.session
	}
	if c.clock != nil {
		st.Remaining = c.clock.Remaining()
		st.Ticking = c.clock.Active()
	}
	return st
}

func (c *Controller) ListMissions(ctx context.Context) ([]api.MissionSummary, error) {
	c.begin()
	missions, err := c.eval.ListMissions(ctx)

	c.mu.Lock()
	c.inFlight--
	if err != nil {
		c.catalog = nil
		c.feedback = "Failed to load missions: " + err.Error()
		c.mu.Unlock()
		c.log.Warn("catalog.failed", map[string]any{"error": err.Error()})
		c.notify()
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	c.catalog = append([]api.MissionSummary(nil), missions...)
	out := append([]api.MissionSummary(nil), missions...)
	c.mu.Unlock()
	c.log.Info("catalog.loaded", map[string]any{"count": len(out)})
	c.notify()
	return out, nil
}

// StartMission launches a new session. On failure the previous session, if
// any, stays in place.
func (c *Controller) StartMission(ctx context.Context, missionID, playerName string) (Session, error) {
	c.mu.Lock()
	if c.starting {
		c.mu.Unlock()
		return Session{}, fmt.Errorf("%w: %w", ErrMissionStartFailed, errStartInProgress)
	}
	c.starting = true
	c.inFlight++
	c.feedback = ""
	c.mu.Unlock()
	c.notify()

	req := api.StartRequest{MissionID: missionID, PlayerName: strings.TrimSpace(playerName)}
	res, err := c.eval.StartMission(ctx, req)

	c.mu.Lock()
	c.starting = false
	c.inFlight--
	if err != nil {
		c.feedback = "Unable to start mission: " + err.Error()
		c.mu.Unlock()
		c.log.Warn("mission.start_failed", map[string]any{
			"mission": telemetry.SanitizeForLog(missionID),
			"error":   err.Error(),
		})
		c.notify()
		return Session{}, fmt.Errorf("%w: %w", ErrMissionStartFailed, err)
	}

	s := &Session{
		ID:               res.SessionID,
		Mission:          res.Mission,
		PlayerName:       req.PlayerName,
		StepIndex:        res.StepIndex,
		TotalSteps:       res.TotalSteps,
		TimeLimitSeconds: res.TimeLimitSeconds,
		StartedAt:        res.StartedAt,
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = c.now()
	}
	prev := c.session
	c.session = s
	c.applied = c.seq
	c.lines.Reset(introLines(res)...)
	if c.clock != nil {
		c.clock.Start(res.TimeLimitSeconds)
	}
	out := *s
	c.mu.Unlock()

	c.log.Info("mission.start", map[string]any{
		"session":    out.ID,
		"mission":    out.Mission.ID,
		"steps":      out.TotalSteps,
		"time_limit": out.TimeLimitSeconds,
	})
	if c.rec != nil {
		if prev != nil && !prev.Complete {
			c.rec.RecordEnd(ctx, *prev, OutcomeAborted)
		}
		c.rec.RecordStart(ctx, out)
	}
	c.notify()
	return out, nil
}

// SubmitCommand echoes the command, sends it to the evaluator and folds the
// response in. It does nothing without an active session or for a blank
// command.
func (c *Controller) SubmitCommand(ctx context.Context, command string) error {
	p, ok := c.prepareCommand(command)
	if !ok {
		return nil
	}
	return c.finishCommand(ctx, p)
}

// SubmitCommandAsync echoes the command and numbers it before returning, then
// waits for the evaluator on a new goroutine. Commands submitted in order
// from one goroutine keep that order in the transcript. done may be nil.
func (c *Controller) SubmitCommandAsync(ctx context.Context, command string, done func(error)) {
	p, ok := c.prepareCommand(command)
	if !ok {
		if done != nil {
			done(nil)
		}
		return
	}
	go func() {
		err := c.finishCommand(ctx, p)
		if done != nil {
			done(err)
		}
	}()
}

type pendingCommand struct {
	sessionID string
	seq       uint64
	command   string
}

func (c *Controller) prepareCommand(command string) (pendingCommand, bool) {
	command = strings.TrimSpace(command)
	c.mu.Lock()
	if command == "" || c.phaseLocked() != PhaseActive {
		c.mu.Unlock()
		return pendingCommand{}, false
	}
	c.seq++
	p := pendingCommand{sessionID: c.session.ID, seq: c.seq, command: command}
	c.inFlight++
	c.commands++
	c.lines.Append("$ " + command)
	c.mu.Unlock()
	c.notify()
	return p, true
}

func (c *Controller) finishCommand(ctx context.Context, p pendingCommand) error {
	sessionID, seq, command := p.sessionID, p.seq, p.command
	log := c.log.With(map[string]any{"session": sessionID, "seq": seq})
	log.Info("command.submit", map[string]any{"command": telemetry.SanitizeForLog(command)})

	res, err := c.eval.SubmitCommand(ctx, sessionID, api.CommandRequest{Command: command})

	c.mu.Lock()
	c.inFlight--
	c.commands--
	if c.session == nil || c.session.ID != sessionID {
		c.mu.Unlock()
		log.Info("command.discarded", map[string]any{"reason": "session_changed"})
		c.notify()
		return nil
	}
	if err != nil {
		msg := err.Error()
		c.lines.Append("Error: " + msg)
		c.feedback = "Command failed: " + msg
		c.mu.Unlock()
		log.Warn("command.failed", map[string]any{"error": msg})
		c.record(ctx, CommandRecord{SessionID: sessionID, Seq: seq, Command: command, Err: msg})
		c.notify()
		return fmt.Errorf("%w: %w", ErrCommandFailed, err)
	}

	c.lines.Append(cleanOutput(res.TerminalOutput)...)
	stale := seq < c.applied
	var finished *Session
	if stale {
		applied := c.applied
		c.mu.Unlock()
		log.Info("command.stale_response", map[string]any{"applied": applied})
	} else {
		c.applied = seq
		finished = c.applyCommandLocked(res)
		c.mu.Unlock()
		log.Info("command.result", map[string]any{
			"accepted": res.Accepted,
			"step":     res.StepIndex,
			"score":    res.TotalScore,
			"mistakes": res.Mistakes,
			"complete": res.MissionComplete,
		})
	}

	c.record(ctx, CommandRecord{
		SessionID:    sessionID,
		Seq:          seq,
		Command:      command,
		Accepted:     res.Accepted,
		ScoreAwarded: res.ScoreAwarded,
		Stale:        stale,
	})
	if finished != nil {
		log.Info("mission.complete", map[string]any{"score": finished.Score, "mistakes": finished.Mistakes})
		if c.rec != nil {
			c.rec.RecordEnd(ctx, *finished, OutcomeComplete)
		}
	}
	c.notify()
	return nil
}

// applyCommandLocked overwrites the counters from res. It returns a copy of
// the session when this response completed the mission.
func (c *Controller) applyCommandLocked(res api.CommandResponse) *Session {
	s := c.session
	s.StepIndex = res.StepIndex
	s.TotalSteps = res.TotalSteps
	s.Score = res.TotalScore
	s.Mistakes = res.Mistakes
	c.feedback = res.Feedback
	if c.clock != nil {
		c.clock.SetRemaining(res.TimeRemainingSeconds)
	}
	if prompt := res.Prompt(); prompt != "" {
		c.lines.Append("", prompt)
	}
	if res.MissionComplete && !s.Complete {
		return c.completeLocked()
	}
	return nil
}

func (c *Controller) completeLocked() *Session {
	c.session.Complete = true
	if c.clock != nil {
		c.clock.Stop()
	}
	c.lines.Append("", CompletionBanner)
	out := *c.session
	return &out
}

func (c *Controller) RequestHint(ctx context.Context) error {
	c.mu.Lock()
	if c.session == nil {
		c.mu.Unlock()
		return nil
	}
	sessionID := c.session.ID
	c.inFlight++
	c.mu.Unlock()
	c.notify()

	res, err := c.eval.RequestHint(ctx, sessionID)

	c.mu.Lock()
	c.inFlight--
	if c.session == nil || c.session.ID != sessionID {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	if err != nil {
		c.feedback = "Hint failed: " + err.Error()
		c.mu.Unlock()
		c.log.Warn("hint.failed", map[string]any{"session": sessionID, "error": err.Error()})
		c.notify()
		return fmt.Errorf("%w: %w", ErrHintFailed, err)
	}
	c.lines.Append("Hint: " + res.Hint)
	c.feedback = fmt.Sprintf("Hint used. %d hints remain.", res.RemainingHints)
	c.mu.Unlock()
	c.log.Info("hint.used", map[string]any{"session": sessionID, "step": res.StepIndex, "remaining": res.RemainingHints})
	c.notify()
	return nil
}

// AbortMission drops the current session. Pending evaluator calls are left
// to finish; their responses are discarded.
func (c *Controller) AbortMission() {
	c.mu.Lock()
	prev := c.session
	c.session = nil
	c.applied = c.seq
	c.lines.Reset()
	if c.clock != nil {
		c.clock.Stop()
	}
	c.feedback = AbortFeedback
	c.mu.Unlock()

	if prev != nil {
		c.log.Info("mission.abort", map[string]any{"session": prev.ID, "complete": prev.Complete})
		if c.rec != nil && !prev.Complete {
			c.rec.RecordEnd(context.Background(), *prev, OutcomeAborted)
		}
	}
	c.notify()
}

// Reconcile pulls the evaluator's view of the current session and applies
// it. A status never overrides a command response: the pull is skipped while
// a command is pending, and its result is dropped if one was submitted
// before it returned.
func (c *Controller) Reconcile(ctx context.Context) (api.SessionStatus, error) {
	c.mu.Lock()
	if c.session == nil || c.commands > 0 {
		c.mu.Unlock()
		return api.SessionStatus{}, nil
	}
	sessionID := c.session.ID
	seq := c.seq
	c.mu.Unlock()

	st, err := c.eval.SessionStatus(ctx, sessionID)

	c.mu.Lock()
	if c.session == nil || c.session.ID != sessionID {
		c.mu.Unlock()
		return api.SessionStatus{}, nil
	}
	if err != nil {
		c.feedback = "Status check failed: " + err.Error()
		c.mu.Unlock()
		c.log.Warn("status.failed", map[string]any{"session": sessionID, "error": err.Error()})
		c.notify()
		return api.SessionStatus{}, fmt.Errorf("%w: %w", ErrStatusUnavailable, err)
	}
	if c.seq != seq || c.commands > 0 {
		c.mu.Unlock()
		c.log.Info("status.superseded", map[string]any{"session": sessionID})
		return st, nil
	}
	if st.SessionID != "" && st.SessionID != sessionID {
		c.mu.Unlock()
		return st, nil
	}
	s := c.session
	s.StepIndex = st.StepIndex
	s.TotalSteps = st.TotalSteps
	s.Mistakes = st.Mistakes
	if c.clock != nil {
		c.clock.SetRemaining(st.TimeRemainingSeconds)
	}
	var finished *Session
	if st.Completed && !s.Complete {
		finished = c.completeLocked()
	}
	c.mu.Unlock()

	c.log.Info("status.applied", map[string]any{"session": sessionID, "step": st.StepIndex, "completed": st.Completed})
	if finished != nil && c.rec != nil {
		c.rec.RecordEnd(ctx, *finished, OutcomeComplete)
	}
	c.notify()
	return st, nil
}

func (c *Controller) begin() {
	c.mu.Lock()
	c.inFlight++
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) record(ctx context.Context, rec CommandRecord) {
	if c.rec == nil {
		return
	}
	rec.At = c.now()
	c.rec.RecordCommand(ctx, rec)
}

func (c *Controller) notify() {
	if c.onChange != nil {
		c.onChange()
	}
}

func introLines(res api.StartResponse) []string {
	return []string{
		"Mission: " + res.Mission.Title,
		res.Mission.Scenario,
		"",
		res.Intro,
		"",
		"First task: " + res.FirstPrompt,
	}
}

// cleanOutput strips escape sequences and splits embedded newlines so each
// transcript entry is exactly one display row.
func cleanOutput(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = xansi.Strip(line)
		for _, part := range strings.Split(line, "\n") {
			out = append(out, strings.TrimRight(part, "\r"))
		}
	}
	return out
}

// PlayerBadge is the name shown in the HUD.
func PlayerBadge(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Cadet"
	}
	return name
}

// PromptLabel turns a player name into a shell-safe prompt label.
func PromptLabel(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(PlayerBadge(name))), "-")
}
