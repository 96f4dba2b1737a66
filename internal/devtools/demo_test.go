package devtools

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/telemetry"
)

type fakeClock struct{ t time.Time }

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (c *fakeClock) now() time.Time { return c.t }

func newDemo(t *testing.T) (*Evaluator, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	ids := 0
	e, err := NewBuiltinEvaluator(Options{
		Now: clock.now,
		NewID: func() string {
			ids++
			return "sess-" + string(rune('0'+ids))
		},
	})
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return e, clock
}

func TestEvaluatorPlaysMissionToCompletion(t *testing.T) {
	e, _ := newDemo(t)
	ctx := context.Background()

	start, err := e.StartMission(ctx, api.StartRequest{MissionID: "sandbox-check"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if start.SessionID != "sess-1" || start.TotalSteps != 2 || start.TimeLimitSeconds != 300 {
		t.Fatalf("unexpected start response %+v", start)
	}
	if start.FirstPrompt != "Confirm where you're located in the filesystem." {
		t.Fatalf("unexpected first prompt %q", start.FirstPrompt)
	}

	res, err := e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "  PWD  "})
	if err != nil {
		t.Fatalf("submit pwd: %v", err)
	}
	if !res.Accepted || res.StepIndex != 1 || res.ScoreAwarded != 25 || res.TotalScore != 25 {
		t.Fatalf("unexpected pwd response %+v", res)
	}
	if res.Prompt() != "List the files to ensure your toolkit is present." {
		t.Fatalf("expected next step prompt, got %q", res.Prompt())
	}

	res, err = e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "ls -la /tmp"})
	if err != nil {
		t.Fatalf("submit ls: %v", err)
	}
	if !res.Accepted || !res.MissionComplete || res.TotalScore != 75 {
		t.Fatalf("unexpected ls response %+v", res)
	}
	if res.Prompt() != "Sandbox checks out. You're ready for the real missions!" {
		t.Fatalf("expected closing prompt, got %q", res.Prompt())
	}

	res, err = e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "ls"})
	if err != nil {
		t.Fatalf("submit after completion: %v", err)
	}
	if res.Accepted || !res.MissionComplete || res.Feedback != feedbackFinished || res.NextPrompt != nil {
		t.Fatalf("unexpected post-completion response %+v", res)
	}
}

func TestEvaluatorCountsMistakes(t *testing.T) {
	e, _ := newDemo(t)
	ctx := context.Background()
	start, _ := e.StartMission(ctx, api.StartRequest{MissionID: "sandbox-check"})

	for i := 1; i <= 2; i++ {
		res, err := e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "whoami"})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		if res.Accepted || res.Mistakes != i || res.StepIndex != 0 {
			t.Fatalf("expected rejection with %d mistakes, got %+v", i, res)
		}
		if len(res.TerminalOutput) != 1 || res.TerminalOutput[0] != "command not recognized" {
			t.Fatalf("unexpected output %v", res.TerminalOutput)
		}
	}
}

func TestEvaluatorExpiresSession(t *testing.T) {
	e, clock := newDemo(t)
	ctx := context.Background()
	start, _ := e.StartMission(ctx, api.StartRequest{MissionID: "sandbox-check"})

	clock.t = clock.t.Add(100 * time.Second)
	st, err := e.SessionStatus(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.TimeRemainingSeconds != 200 {
		t.Fatalf("expected 200 seconds remaining, got %d", st.TimeRemainingSeconds)
	}

	clock.t = clock.t.Add(250 * time.Second)
	res, err := e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "pwd"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Accepted || res.TimeRemainingSeconds != 0 || res.Mistakes != 1 || res.Feedback != feedbackExpired {
		t.Fatalf("unexpected expired response %+v", res)
	}
}

func TestEvaluatorHints(t *testing.T) {
	e, _ := newDemo(t)
	ctx := context.Background()
	start, _ := e.StartMission(ctx, api.StartRequest{MissionID: "sandbox-check"})

	hint, err := e.RequestHint(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if hint.StepIndex != 0 || hint.RemainingHints != 1 || !strings.Contains(hint.Hint, "pwd") {
		t.Fatalf("unexpected hint %+v", hint)
	}

	e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "pwd"})
	e.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "ls"})
	hint, err = e.RequestHint(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("hint after completion: %v", err)
	}
	if hint.Hint != hintFinished || hint.RemainingHints != 0 {
		t.Fatalf("unexpected completed hint %+v", hint)
	}
}

func TestEvaluatorUnknownIDs(t *testing.T) {
	e, _ := newDemo(t)
	ctx := context.Background()
	if _, err := e.StartMission(ctx, api.StartRequest{MissionID: "nope"}); !errors.Is(err, ErrMissionNotFound) {
		t.Fatalf("expected ErrMissionNotFound, got %v", err)
	}
	if _, err := e.SubmitCommand(ctx, "missing", api.CommandRequest{Command: "ls"}); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := e.SessionStatus(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if e.SessionCount() != 0 {
		t.Fatalf("expected no sessions, got %d", e.SessionCount())
	}
}

func TestHandlerRoundTripThroughClient(t *testing.T) {
	e, _ := newDemo(t)
	var logs lockedBuffer
	srv := httptest.NewServer(e.Handler(telemetry.NewWriter(&logs)))
	defer srv.Close()

	client := api.NewClient(api.ClientConfig{BaseURL: srv.URL + "/api/"})
	ctx := context.Background()

	list, err := client.ListMissions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 3 || list[0].ID != "missing-route" {
		t.Fatalf("unexpected missions %+v", list)
	}

	start, err := client.StartMission(ctx, api.StartRequest{MissionID: "sandbox-check", PlayerName: "Ada"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := client.SubmitCommand(ctx, start.SessionID, api.CommandRequest{Command: "pwd"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Accepted || len(res.TerminalOutput) != 1 || res.TerminalOutput[0] != "/home/sysadmin" {
		t.Fatalf("unexpected command response %+v", res)
	}

	st, err := client.SessionStatus(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.StepIndex != 1 || st.MissionID != "sandbox-check" || st.Completed {
		t.Fatalf("unexpected status %+v", st)
	}

	hint, err := client.RequestHint(ctx, start.SessionID)
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if hint.StepIndex != 1 || hint.RemainingHints != 0 {
		t.Fatalf("unexpected hint %+v", hint)
	}

	if !strings.Contains(logs.String(), `"msg":"demo.request"`) {
		t.Fatalf("expected request log lines, got %q", logs.String())
	}
}

func TestHandlerErrors(t *testing.T) {
	e, _ := newDemo(t)
	srv := httptest.NewServer(e.Handler(telemetry.Discard()))
	defer srv.Close()
	client := api.NewClient(api.ClientConfig{BaseURL: srv.URL + "/api"})
	ctx := context.Background()

	_, err := client.SubmitCommand(ctx, "missing", api.CommandRequest{Command: "ls"})
	var httpErr *api.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound || !strings.Contains(httpErr.Message, "Session not found") {
		t.Fatalf("unexpected error %+v", httpErr)
	}

	_, err = client.StartMission(ctx, api.StartRequest{MissionID: "nope"})
	if !errors.As(err, &httpErr) || !strings.Contains(httpErr.Message, "Mission not found") {
		t.Fatalf("expected mission not found, got %v", err)
	}

	_, err = client.SubmitCommand(ctx, "missing", api.CommandRequest{Command: "  "})
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for blank command, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	e, _ := newDemo(t)
	rec := httptest.NewRecorder()
	e.Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	e, _ := newDemo(t)
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() { done <- e.Serve(ctx, "127.0.0.1:0", telemetry.Discard(), ready) }()

	var base string
	select {
	case base = <-ready:
	case err := <-done:
		t.Fatalf("serve failed early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for listener")
	}
	if _, err := api.NewClient(api.ClientConfig{BaseURL: base}).ListMissions(context.Background()); err != nil {
		t.Fatalf("list via served url: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean shutdown, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
