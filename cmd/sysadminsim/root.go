package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sysadminsim/internal/app"
	"sysadminsim/internal/devtools"
	"sysadminsim/internal/telemetry"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// flagValues holds the command-line overrides. Only flags the user actually
// set are applied over the file and environment.
type flagValues struct {
	configPath   string
	apiURL       string
	player       string
	timeout      time.Duration
	logPath      string
	dataDir      string
	history      bool
	debug        bool
	ascii        bool
	style        string
	reduceMotion bool
	demo         bool
	demoAddr     string
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&flagValues{})
}

func buildRootCmd(fv *flagValues) *cobra.Command {
	root := &cobra.Command{
		Use:   "sysadminsim",
		Short: "Practice incident response against a mission evaluator",
		Long: `SysAdmin Simulator drops you into a simulated shell on a broken host.
Each command you type is graded by the mission evaluator; clear every step
before the clock runs out.

Run with --demo to play against the built-in evaluator without a server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&fv.configPath, "config", "", "YAML config file")
	pf.StringVar(&fv.apiURL, "api-url", "", "evaluator base URL")
	pf.DurationVar(&fv.timeout, "timeout", 0, "evaluator request timeout")
	pf.StringVar(&fv.logPath, "log", "", "append JSON event log to this file")
	pf.BoolVar(&fv.demo, "demo", false, "use the built-in demo evaluator")
	pf.StringVar(&fv.demoAddr, "demo-addr", "", "listen address for the demo evaluator")

	f := root.Flags()
	f.StringVar(&fv.player, "player", "", "commander name")
	f.StringVar(&fv.dataDir, "data-dir", "", "directory for the local run journal")
	f.BoolVar(&fv.history, "history", true, "record runs in the local journal")
	f.BoolVar(&fv.debug, "debug", false, "log view diagnostics to stderr")
	f.BoolVar(&fv.ascii, "ascii", false, "draw with ASCII characters only")
	f.StringVar(&fv.style, "style", "", "ui style: modern_arcade, cozy_clean or retro_terminal")
	f.BoolVar(&fv.reduceMotion, "reduce-motion", false, "soften animations")

	root.AddCommand(newMissionsCmd(fv), newStatusCmd(fv), newServeDemoCmd(fv))
	return root
}

func loadConfig(cmd *cobra.Command, fv *flagValues) (app.Config, error) {
	cfg, err := app.LoadConfig(fv.configPath)
	if err != nil {
		return cfg, err
	}
	applyFlags(cmd, fv, &cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, fv *flagValues, cfg *app.Config) {
	changed := cmd.Flags().Changed
	if changed("api-url") {
		cfg.APIURL = fv.apiURL
	}
	if changed("player") {
		cfg.PlayerName = fv.player
	}
	if changed("timeout") {
		cfg.RequestTimeout = fv.timeout
	}
	if changed("log") {
		cfg.LogPath = fv.logPath
	}
	if changed("data-dir") {
		cfg.DataDir = fv.dataDir
	}
	if changed("history") {
		cfg.History = fv.history
	}
	if changed("debug") {
		cfg.Debug = fv.debug
	}
	if changed("ascii") {
		cfg.ASCIIOnly = fv.ascii
	}
	if changed("style") {
		cfg.UI.StyleVariant = fv.style
	}
	if changed("reduce-motion") {
		cfg.UI.ReduceMotion = fv.reduceMotion
	}
	if changed("demo") {
		cfg.Demo = fv.demo
	}
	if changed("demo-addr") {
		cfg.DemoAddr = fv.demoAddr
	}
}

// runTUI runs the client, and the demo evaluator alongside it when asked.
// Either one failing or exiting stops the other.
func runTUI(parent context.Context, cfg app.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := telemetry.New(cfg.LogPath)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	demoCtx, stopDemo := context.WithCancel(gctx)
	defer stopDemo()

	if cfg.Demo {
		demo, err := devtools.NewBuiltinEvaluator(devtools.Options{})
		if err != nil {
			_ = logger.Close()
			return err
		}
		ready := make(chan string, 1)
		demoLog := logger.With(map[string]any{"component": "demo"})
		g.Go(func() error { return demo.Serve(demoCtx, cfg.DemoAddr, demoLog, ready) })
		select {
		case url := <-ready:
			cfg.APIURL = url
		case <-gctx.Done():
			err := g.Wait()
			_ = logger.Close()
			return err
		}
	}

	a, err := app.New(cfg, app.Deps{Logger: logger})
	if err != nil {
		stopDemo()
		_ = g.Wait()
		_ = logger.Close()
		return err
	}
	defer a.Close()

	g.Go(func() error {
		defer stopDemo()
		return a.Run(gctx)
	})
	return g.Wait()
}
