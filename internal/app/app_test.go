package app

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sysadminsim/internal/devtools"
	"sysadminsim/internal/session"
	"sysadminsim/internal/telemetry"
	"sysadminsim/internal/term"
	"sysadminsim/internal/ui"
)

type fakeView struct {
	mu      sync.Mutex
	ctrl    ui.Controller
	state   session.State
	player  string
	journal ui.JournalSummary
	flashes []string
	stop    chan struct{}
	stopped bool
}

func newFakeView() *fakeView { return &fakeView{stop: make(chan struct{})} }

func (f *fakeView) Run() error {
	<-f.stop
	return nil
}

func (f *fakeView) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.stop)
	}
}

func (f *fakeView) SetController(c ui.Controller) { f.ctrl = c }
func (f *fakeView) RequestDraw()                  {}

func (f *fakeView) SetState(st session.State) {
	f.mu.Lock()
	f.state = st
	f.mu.Unlock()
}

func (f *fakeView) SetPlayer(name string) {
	f.mu.Lock()
	f.player = name
	f.mu.Unlock()
}

func (f *fakeView) SetJournal(summary ui.JournalSummary) {
	f.mu.Lock()
	f.journal = summary
	f.mu.Unlock()
}

func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	f.flashes = append(f.flashes, msg)
	f.mu.Unlock()
}

func (f *fakeView) snapshot() (session.State, ui.JournalSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.journal
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg Config) (*App, *fakeView) {
	t.Helper()
	demo, err := devtools.NewBuiltinEvaluator(devtools.Options{})
	if err != nil {
		t.Fatalf("demo evaluator: %v", err)
	}
	view := newFakeView()
	a, err := New(cfg, Deps{Evaluator: demo, View: view, Logger: telemetry.Discard(), ReconcileEvery: -1})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(a.Close)
	return a, view
}

func TestAppPlaysMissionToCompletion(t *testing.T) {
	a, view := newTestApp(t, testConfig(t))

	a.OnRefreshMissions()
	eventually(t, "catalog", func() bool {
		st, _ := view.snapshot()
		return len(st.Catalog) == 3
	})

	a.OnStartMission("missing-route")
	eventually(t, "active session", func() bool {
		st, _ := view.snapshot()
		return st.Phase == session.PhaseActive && st.Session.TotalSteps == 3
	})

	for i, cmd := range []string{"ip addr", "ip route add default via 10.0.0.1", "ping 8.8.8.8"} {
		a.OnPaste(cmd + "\n")
		step := i + 1
		eventually(t, "step "+cmd, func() bool {
			st, _ := view.snapshot()
			return st.Session.StepIndex == step
		})
	}

	eventually(t, "completion", func() bool {
		st, _ := view.snapshot()
		return st.Phase == session.PhaseComplete
	})
	st, _ := view.snapshot()
	if st.Session.Score != 450 || st.Session.Mistakes != 0 {
		t.Fatalf("expected 450 points and no mistakes, got %d / %d", st.Session.Score, st.Session.Mistakes)
	}

	lines := strings.Join(a.lines.Lines(), "\n")
	if !strings.Contains(lines, "$ ip addr") || !strings.Contains(lines, session.CompletionBanner) {
		t.Fatalf("unexpected transcript:\n%s", lines)
	}

	eventually(t, "journal", func() bool {
		_, j := view.snapshot()
		return j.Enabled && j.Completed == 1 && j.Commands == 3
	})
}

func TestInputIgnoredWithoutSession(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))

	a.OnPaste("ls\n")
	if got := a.lines.Len(); got != 0 {
		t.Fatalf("expected empty transcript, got %d lines", got)
	}
	if buf := a.display.State().Buffer; buf != "" {
		t.Fatalf("expected empty edit buffer, got %q", buf)
	}
}

func TestRejectedCommandCountsMistake(t *testing.T) {
	a, view := newTestApp(t, testConfig(t))
	a.OnStartMission("missing-route")

	for _, r := range "whoami\r" {
		a.OnTerminalInput(term.Event(string(r)))
	}
	eventually(t, "mistake", func() bool {
		st, _ := view.snapshot()
		return st.Session.Mistakes == 1
	})
	st, _ := view.snapshot()
	if st.Session.StepIndex != 0 {
		t.Fatalf("expected to stay on the first step, got %d", st.Session.StepIndex)
	}
}

func TestAbortReturnsToMissionSelect(t *testing.T) {
	a, view := newTestApp(t, testConfig(t))
	a.OnStartMission("log-chaos")
	a.OnAbort()

	eventually(t, "no session", func() bool {
		st, _ := view.snapshot()
		return st.Phase == session.PhaseNoSession && st.Feedback == session.AbortFeedback
	})
	_, j := view.snapshot()
	if j.MissionRuns != 1 || j.LastOutcome != "aborted" {
		t.Fatalf("expected one aborted run in the journal, got %+v", j)
	}
}

func TestRenamePersistsAcrossRestarts(t *testing.T) {
	cfg := testConfig(t)
	a, view := newTestApp(t, cfg)

	a.OnRename("  Ada Lovelace ")
	if got := a.display.Prompt(); got != "ada-lovelace$ " {
		t.Fatalf("expected prompt to follow the name, got %q", got)
	}
	view.mu.Lock()
	player := view.player
	view.mu.Unlock()
	if player != "Ada Lovelace" {
		t.Fatalf("expected view player to update, got %q", player)
	}
	a.Close()

	b, _ := newTestApp(t, cfg)
	if got := b.Player(); got != "Ada Lovelace" {
		t.Fatalf("expected saved player, got %q", got)
	}
}

func TestConfiguredPlayerWinsOverSaved(t *testing.T) {
	cfg := testConfig(t)
	a, _ := newTestApp(t, cfg)
	a.OnRename("saved")
	a.Close()

	cfg.PlayerName = "flag"
	b, _ := newTestApp(t, cfg)
	if got := b.Player(); got != "flag" {
		t.Fatalf("expected configured player, got %q", got)
	}
}

func TestHistoryDisabledSkipsJournal(t *testing.T) {
	cfg := testConfig(t)
	cfg.History = false
	a, view := newTestApp(t, cfg)
	if a.store != nil {
		t.Fatalf("expected no store with history off")
	}
	a.refreshJournal()
	if _, j := view.snapshot(); j.Enabled {
		t.Fatalf("expected journal summary to be disabled")
	}
}

func TestRunStopsWithContext(t *testing.T) {
	a, _ := newTestApp(t, testConfig(t))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected Run to return after cancel")
	}
}

func TestQuitStopsView(t *testing.T) {
	a, view := newTestApp(t, testConfig(t))
	a.OnQuit()
	view.mu.Lock()
	defer view.mu.Unlock()
	if !view.stopped {
		t.Fatalf("expected view to be stopped")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIURL = "ftp://example.com"
	if _, err := New(cfg, Deps{View: newFakeView(), Logger: telemetry.Discard()}); err == nil {
		t.Fatalf("expected invalid config error")
	}
}
