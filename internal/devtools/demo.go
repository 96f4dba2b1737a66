package devtools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/missions"

	"github.com/google/uuid"
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrSessionNotFound = errors.New("session not found")
)

const (
	feedbackAccepted = "Great job!"
	feedbackRejected = "That didn't solve it. Check the mission objectives and try another command."
	feedbackExpired  = "Time is up! Restart the mission to try again."
	feedbackFinished = "No more tasks left. Great work!"
	hintFinished     = "Mission complete! No hints needed."
)

type demoSession struct {
	id        string
	mission   missions.Mission
	stepIndex int
	mistakes  int
	score     int
	startedAt time.Time
	limit     time.Duration
}

func (s *demoSession) remaining(now time.Time) int {
	left := int(s.startedAt.Add(s.limit).Sub(now) / time.Second)
	return max(0, left)
}

func (s *demoSession) totalSteps() int { return len(s.mission.Steps) }

func (s *demoSession) done() bool { return s.stepIndex >= s.totalSteps() }

// Evaluator is an in-memory mission evaluator used for offline play and
// tests. It grades a command by prefix match against the current step's
// expected commands.
type Evaluator struct {
	mu       sync.Mutex
	catalog  *missions.Catalog
	sessions map[string]*demoSession
	now      func() time.Time
	newID    func() string
}

type Options struct {
	Now   func() time.Time
	NewID func() string
}

func NewEvaluator(catalog *missions.Catalog, opts Options) *Evaluator {
	e := &Evaluator{
		catalog:  catalog,
		sessions: map[string]*demoSession{},
		now:      opts.Now,
		newID:    opts.NewID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e
}

// NewBuiltinEvaluator serves the missions embedded in the binary.
func NewBuiltinEvaluator(opts Options) (*Evaluator, error) {
	packs, err := missions.Builtin()
	if err != nil {
		return nil, err
	}
	catalog, err := missions.NewCatalog(packs)
	if err != nil {
		return nil, err
	}
	return NewEvaluator(catalog, opts), nil
}

func (e *Evaluator) ListMissions(context.Context) ([]api.MissionSummary, error) {
	all := e.catalog.Missions()
	out := make([]api.MissionSummary, 0, len(all))
	for _, m := range all {
		out = append(out, m.Summary())
	}
	return out, nil
}

func (e *Evaluator) StartMission(_ context.Context, req api.StartRequest) (api.StartResponse, error) {
	m, ok := e.catalog.Get(req.MissionID)
	if !ok {
		return api.StartResponse{}, ErrMissionNotFound
	}
	s := &demoSession{
		id:        e.newID(),
		mission:   m,
		startedAt: e.now().UTC(),
		limit:     time.Duration(m.DurationSeconds) * time.Second,
	}
	e.mu.Lock()
	e.sessions[s.id] = s
	e.mu.Unlock()

	return api.StartResponse{
		SessionID:        s.id,
		Mission:          m.Summary(),
		Intro:            m.Intro,
		FirstPrompt:      m.Steps[0].Prompt,
		StepIndex:        s.stepIndex,
		TotalSteps:       s.totalSteps(),
		TimeLimitSeconds: m.DurationSeconds,
		StartedAt:        s.startedAt,
	}, nil
}

func (e *Evaluator) SubmitCommand(_ context.Context, sessionID string, req api.CommandRequest) (api.CommandResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return api.CommandResponse{}, ErrSessionNotFound
	}
	now := e.now()
	res := api.CommandResponse{
		StepIndex:            s.stepIndex,
		TotalSteps:           s.totalSteps(),
		Mistakes:             s.mistakes,
		TotalScore:           s.score,
		TimeRemainingSeconds: s.remaining(now),
	}

	if s.done() {
		res.TerminalOutput = []string{"Mission already completed"}
		res.Feedback = feedbackFinished
		res.MissionComplete = true
		return res, nil
	}
	if s.remaining(now) <= 0 {
		s.mistakes++
		res.Mistakes = s.mistakes
		res.TerminalOutput = []string{"Session expired"}
		res.Feedback = feedbackExpired
		res.TimeRemainingSeconds = 0
		return res, nil
	}

	step := s.mission.Steps[s.stepIndex]
	if !matches(step, req.Command) {
		s.mistakes++
		res.Mistakes = s.mistakes
		res.TerminalOutput = []string{"command not recognized"}
		res.Feedback = feedbackRejected
		return res, nil
	}

	s.score += step.Score
	s.stepIndex++
	next := step.NextPrompt
	if !s.done() {
		next = s.mission.Steps[s.stepIndex].Prompt
	}
	res.Accepted = true
	res.TerminalOutput = append([]string(nil), step.SuccessOutput...)
	res.Feedback = feedbackAccepted
	res.StepIndex = s.stepIndex
	res.MissionComplete = s.done()
	res.ScoreAwarded = step.Score
	res.TotalScore = s.score
	if next != "" {
		res.NextPrompt = &next
	}
	return res, nil
}

func matches(step missions.Step, command string) bool {
	normalized := strings.ToLower(strings.TrimSpace(command))
	for _, expected := range step.ExpectedCommands {
		if strings.HasPrefix(normalized, strings.ToLower(expected)) {
			return true
		}
	}
	return false
}

func (e *Evaluator) RequestHint(_ context.Context, sessionID string) (api.HintResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return api.HintResponse{}, ErrSessionNotFound
	}
	res := api.HintResponse{
		StepIndex:      s.stepIndex,
		RemainingHints: max(0, s.totalSteps()-s.stepIndex-1),
	}
	if s.done() {
		res.Hint = hintFinished
		return res, nil
	}
	res.Hint = s.mission.Steps[s.stepIndex].Hint
	return res, nil
}

func (e *Evaluator) SessionStatus(_ context.Context, sessionID string) (api.SessionStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[sessionID]
	if !ok {
		return api.SessionStatus{}, ErrSessionNotFound
	}
	return api.SessionStatus{
		SessionID:            s.id,
		MissionID:            s.mission.ID,
		StepIndex:            s.stepIndex,
		TotalSteps:           s.totalSteps(),
		Mistakes:             s.mistakes,
		TimeRemainingSeconds: s.remaining(e.now()),
		Completed:            s.done(),
	}, nil
}

// SessionCount reports how many sessions have been started.
func (e *Evaluator) SessionCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *Evaluator) String() string {
	return fmt.Sprintf("demo evaluator (%d missions)", len(e.catalog.Missions()))
}
