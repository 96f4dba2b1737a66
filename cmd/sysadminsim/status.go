package main

import (
	"fmt"
	"io"

	"sysadminsim/internal/api"
	"sysadminsim/internal/ui"

	"github.com/spf13/cobra"
)

func newStatusCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Print the evaluator's view of a mission session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			eval, err := evaluatorFor(cfg)
			if err != nil {
				return err
			}
			st, err := eval.SessionStatus(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("session status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}
}

func printStatus(w io.Writer, st api.SessionStatus) {
	row := func(label, value string) {
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-10s", label+":")), value)
	}
	row("Session", st.SessionID)
	row("Mission", st.MissionID)
	row("Progress", ui.StepLabel(st.StepIndex, st.TotalSteps))
	row("Mistakes", fmt.Sprintf("%d", st.Mistakes))
	row("Time", ui.FormatClock(st.TimeRemainingSeconds))
	if st.Completed {
		row("Status", doneStyle.Render("complete"))
	} else {
		row("Status", "in progress")
	}
}
