package main

import (
	"fmt"
	"io"
	"strings"

	"sysadminsim/internal/api"
	"sysadminsim/internal/app"
	"sysadminsim/internal/devtools"
	"sysadminsim/internal/session"
	"sysadminsim/internal/ui"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5EEBFF"))
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#67F0A8"))
)

// evaluatorFor returns the in-process demo evaluator with --demo, otherwise
// an HTTP client for the configured evaluator.
func evaluatorFor(cfg app.Config) (session.Evaluator, error) {
	if cfg.Demo {
		return devtools.NewBuiltinEvaluator(devtools.Options{})
	}
	return api.NewClient(api.ClientConfig{BaseURL: cfg.APIURL, Timeout: cfg.RequestTimeout}), nil
}

func newMissionsCmd(fv *flagValues) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "missions [mission-id]",
		Short: "List missions, or show one mission's briefing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, fv)
			if err != nil {
				return err
			}
			eval, err := evaluatorFor(cfg)
			if err != nil {
				return err
			}
			list, err := eval.ListMissions(cmd.Context())
			if err != nil {
				return fmt.Errorf("list missions: %w", err)
			}

			md := missionTable(list)
			if len(args) == 1 {
				m, ok := findMission(list, args[0])
				if !ok {
					return fmt.Errorf("unknown mission %q", args[0])
				}
				md = ui.BriefingMarkdown(m)
			}
			return writeMarkdown(cmd.OutOrStdout(), md, plain)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func missionTable(list []api.MissionSummary) string {
	if len(list) == 0 {
		return "No missions loaded yet.\n"
	}
	var b strings.Builder
	b.WriteString("| ID | Mission | Difficulty | Limit |\n")
	b.WriteString("|----|---------|------------|-------|\n")
	for _, m := range list {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			cell(m.ID), cell(m.Title), cell(m.Difficulty), ui.DurationLabel(m.DurationSeconds))
	}
	return b.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

func findMission(list []api.MissionSummary, id string) (api.MissionSummary, bool) {
	for _, m := range list {
		if m.ID == id {
			return m, true
		}
	}
	return api.MissionSummary{}, false
}

func writeMarkdown(w io.Writer, md string, plain bool) error {
	if plain {
		_, err := io.WriteString(w, md)
		return err
	}
	r, err := glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(100))
	if err != nil {
		return err
	}
	out, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}
