package main

import (
	"os"
	"os/signal"
	"syscall"

	"sysadminsim/internal/devtools"
	"sysadminsim/internal/telemetry"

	clog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newServeDemoCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "serve-demo",
		Short: "Run the built-in demo evaluator over HTTP",
		Long: `Serve the built-in missions on the evaluator HTTP contract, so the client
or any other tool can play against them. The listen address comes from
--demo-addr (default 127.0.0.1:8000 for this command).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			addr := cfg.DemoAddr
			if !cmd.Flags().Changed("demo-addr") && os.Getenv("SYSADMIN_SIM_DEMO_ADDR") == "" {
				addr = "127.0.0.1:8000"
			}

			demo, err := devtools.NewBuiltinEvaluator(devtools.Options{})
			if err != nil {
				return err
			}
			logger := telemetry.NewWriter(cmd.ErrOrStderr())
			if cfg.LogPath != "" {
				if logger, err = telemetry.New(cfg.LogPath); err != nil {
					return err
				}
			}
			defer logger.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ready := make(chan string, 1)
			go func() {
				if url, ok := <-ready; ok {
					clog.Info("demo evaluator listening", "url", url, "missions", demo.String())
				}
			}()
			return demo.Serve(ctx, addr, logger, ready)
		},
	}
}
