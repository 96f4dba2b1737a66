package app

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/countdown"
	"sysadminsim/internal/session"
	"sysadminsim/internal/state"
	"sysadminsim/internal/telemetry"
	"sysadminsim/internal/term"
	"sysadminsim/internal/transcript"
	"sysadminsim/internal/ui"

	"github.com/google/uuid"
)

const (
	settingPlayerName = "player_name"
	reconcileInterval = 15 * time.Second
)

// Deps overrides collaborators New would otherwise build from the config.
type Deps struct {
	Evaluator session.Evaluator
	View      ui.View
	Store     state.Store
	Logger    *telemetry.Logger
	// ReconcileEvery is the status pull period while a mission is active.
	// Zero uses the default; negative disables it.
	ReconcileEvery time.Duration
}

// App wires the evaluator, session controller, terminal and view together
// and implements ui.Controller.
type App struct {
	cfg   Config
	runID string

	logger  *telemetry.Logger
	store   state.Store
	journal *state.Journal

	lines   *transcript.Transcript
	clock   *countdown.Timer
	ctrl    *session.Controller
	surface *term.VTSurface
	display *term.Display
	view    ui.View

	ctx    context.Context
	cancel context.CancelFunc
	kick   chan struct{}
	done   chan struct{}

	reconcileEvery time.Duration
	closeOnce      sync.Once

	mu     sync.Mutex
	player string
}

var _ ui.Controller = (*App)(nil)

func New(cfg Config, deps Deps) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		var err error
		logger, err = telemetry.New(cfg.LogPath)
		if err != nil {
			return nil, err
		}
	}
	runID := uuid.NewString()
	logger = logger.With(map[string]any{"run": runID})

	a := &App{
		cfg:            cfg,
		runID:          runID,
		logger:         logger,
		store:          deps.Store,
		kick:           make(chan struct{}, 1),
		done:           make(chan struct{}),
		reconcileEvery: deps.ReconcileEvery,
		player:         strings.TrimSpace(cfg.PlayerName),
	}
	if a.reconcileEvery == 0 {
		a.reconcileEvery = reconcileInterval
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if a.store == nil && cfg.History {
		a.store = a.openStore()
	}
	var recorder session.Recorder
	if a.store != nil {
		a.journal = state.NewJournal(a.store, logger)
		recorder = a.journal
		if a.player == "" {
			a.player = a.savedPlayer()
		}
	}

	eval := deps.Evaluator
	if eval == nil {
		eval = api.NewClient(api.ClientConfig{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout})
	}

	a.lines = transcript.New()
	a.clock = countdown.New(countdown.Options{
		OnChange: func(countdown.State) { a.requestRefresh() },
	})
	a.ctrl = session.New(session.Options{
		Evaluator:  eval,
		Transcript: a.lines,
		Countdown:  a.clock,
		Logger:     logger,
		Recorder:   recorder,
		OnChange:   a.requestRefresh,
	})

	a.surface = term.NewVTSurface(80, 24)
	a.display = term.NewDisplay(term.DisplayOptions{
		Surface:    a.surface,
		Transcript: a.lines,
		Label:      session.PromptLabel(a.player),
		OnSubmit:   a.submit,
	})

	a.view = deps.View
	if a.view == nil {
		a.view = ui.New(ui.Options{
			ASCIIOnly:    cfg.ASCIIOnly,
			Debug:        cfg.Debug,
			Terminal:     a.surface,
			StyleVariant: cfg.UI.StyleVariant,
			ReduceMotion: cfg.UI.ReduceMotion,
			PlayerName:   a.player,
		})
	}
	a.surface.SetDirty(a.view.RequestDraw)
	a.view.SetController(a)
	a.view.SetPlayer(a.player)
	a.view.SetState(a.ctrl.Snapshot())

	go a.refreshLoop()
	return a, nil
}

func (a *App) openStore() state.Store {
	store, err := state.NewSQLite(a.cfg.JournalPath())
	if err != nil {
		a.logger.Warn("journal.open_failed", map[string]any{"path": a.cfg.JournalPath(), "error": err.Error()})
		return nil
	}
	if err := store.EnsureSchema(a.ctx); err != nil {
		a.logger.Warn("journal.schema_failed", map[string]any{"error": err.Error()})
		_ = store.Close()
		return nil
	}
	return store
}

func (a *App) savedPlayer() string {
	settings, err := a.store.LoadSettings(a.ctx)
	if err != nil {
		a.logger.Warn("settings.load_failed", map[string]any{"error": err.Error()})
		return ""
	}
	return strings.TrimSpace(settings[settingPlayerName])
}

// Run loads the catalog and blocks in the view until the user quits or ctx
// is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{
		"api_url": a.cfg.APIURL,
		"history": a.store != nil,
		"pid":     os.Getpid(),
	})

	stop := context.AfterFunc(ctx, a.view.Stop)
	defer stop()

	go a.OnRefreshMissions()
	a.refreshJournal()

	err := a.view.Run()
	a.logger.Info("app.stop", map[string]any{"error": errString(err)})
	return err
}

func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		<-a.done
		a.clock.Close()
		if a.store != nil {
			_ = a.store.Close()
		}
		_ = a.logger.Close()
	})
}

func (a *App) Controller() *session.Controller { return a.ctrl }

func (a *App) Player() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.player
}

// requestRefresh schedules a redraw from the controller's current state.
// It never blocks, so it is safe to call with any lock held.
func (a *App) requestRefresh() {
	select {
	case a.kick <- struct{}{}:
	default:
	}
}

func (a *App) refreshLoop() {
	defer close(a.done)

	var tick <-chan time.Time
	if a.reconcileEvery > 0 {
		t := time.NewTicker(a.reconcileEvery)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.kick:
			a.refresh()
		case <-tick:
			if a.ctrl.Phase() == session.PhaseActive {
				go a.reconcile()
			}
		}
	}
}

func (a *App) refresh() {
	st := a.ctrl.Snapshot()
	a.display.SetDisabled(st.Phase != session.PhaseActive)
	a.display.Sync()
	a.view.SetState(st)
}

func (a *App) reconcile() {
	if _, err := a.ctrl.Reconcile(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Warn("status.reconcile_failed", map[string]any{"error": err.Error()})
	}
}

func (a *App) refreshJournal() {
	if a.journal == nil {
		a.view.SetJournal(ui.JournalSummary{})
		return
	}
	sum, last, ok := a.journal.Summary(a.ctx)
	if !ok {
		return
	}
	out := ui.JournalSummary{
		Enabled:     true,
		MissionRuns: sum.MissionRuns,
		Completed:   sum.Completed,
		Commands:    sum.Commands,
		Accepted:    sum.Accepted,
	}
	if last != nil {
		out.LastMission = last.MissionID
		out.LastOutcome = last.Outcome
		out.LastScore = last.Score
		out.LastPlayed = last.StartTS
	}
	a.view.SetJournal(out)
}

// submit receives lines from the editor with the display lock held.
func (a *App) submit(command string) {
	a.ctrl.SubmitCommandAsync(a.ctx, command, func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			a.view.FlashStatus("Evaluator unreachable")
		}
		if a.ctrl.Phase() == session.PhaseComplete {
			a.refreshJournal()
		}
	})
}

func (a *App) OnRefreshMissions() {
	if _, err := a.ctrl.ListMissions(a.ctx); err != nil {
		a.view.FlashStatus("Mission list unavailable")
	}
}

func (a *App) OnRename(name string) {
	name = strings.TrimSpace(name)
	a.mu.Lock()
	a.player = name
	a.mu.Unlock()

	a.display.SetLabel(session.PromptLabel(name))
	a.view.SetPlayer(name)
	if a.store == nil {
		return
	}
	if err := a.store.SaveSettings(a.ctx, map[string]string{settingPlayerName: name}); err != nil {
		a.logger.Warn("settings.save_failed", map[string]any{"error": err.Error()})
	}
}

func (a *App) OnStartMission(missionID string) {
	s, err := a.ctrl.StartMission(a.ctx, missionID, a.Player())
	if err != nil {
		return
	}
	a.view.FlashStatus("Deployed: " + s.Mission.Title)
	a.refreshJournal()
}

func (a *App) OnTerminalInput(ev term.Event) {
	a.display.SetDisabled(a.ctrl.Phase() != session.PhaseActive)
	a.display.Feed(ev)
	a.display.Sync()
}

func (a *App) OnPaste(text string) {
	a.display.SetDisabled(a.ctrl.Phase() != session.PhaseActive)
	a.display.FeedText(text)
	a.display.Sync()
}

func (a *App) OnHint() {
	if err := a.ctrl.RequestHint(a.ctx); err != nil {
		a.view.FlashStatus("Hint unavailable")
	}
}

func (a *App) OnAbort() {
	a.ctrl.AbortMission()
	a.view.FlashStatus("")
	a.refreshJournal()
}

func (a *App) OnQuit() {
	a.logger.Info("app.quit", nil)
	a.view.Stop()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
