package ui

import (
	"fmt"
	"strings"

	"sysadminsim/internal/api"
	"sysadminsim/internal/session"
)

const noMissionTitle = "Select a mission"

// FormatClock renders seconds as MM:SS. Minutes are not capped at 59.
func FormatClock(seconds int) string {
	seconds = max(0, seconds)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// StepLabel is the 1-based step counter shown in the HUD.
func StepLabel(stepIndex, totalSteps int) string {
	return fmt.Sprintf("Step: %d / %d", min(stepIndex+1, totalSteps), max(totalSteps, 1))
}

func DurationLabel(seconds int) string {
	return fmt.Sprintf("%d min limit", (max(0, seconds)+59)/60)
}

func CommandsLabel(cmds []string) string {
	return "Commands: " + strings.Join(cmds, ", ")
}

// BriefingMarkdown is the mission detail fed to the markdown renderer.
func BriefingMarkdown(m api.MissionSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", m.Title)
	if m.Difficulty != "" {
		fmt.Fprintf(&b, "**%s** · %s\n\n", m.Difficulty, DurationLabel(m.DurationSeconds))
	} else {
		fmt.Fprintf(&b, "%s\n\n", DurationLabel(m.DurationSeconds))
	}
	if m.Scenario != "" {
		b.WriteString(m.Scenario + "\n\n")
	}
	if len(m.Objectives) > 0 {
		b.WriteString("## Objectives\n\n")
		for _, o := range m.Objectives {
			b.WriteString("- " + o + "\n")
		}
		b.WriteString("\n")
	}
	if len(m.RecommendedCommands) > 0 {
		cmds := make([]string, len(m.RecommendedCommands))
		for i, c := range m.RecommendedCommands {
			cmds[i] = "`" + c + "`"
		}
		b.WriteString(CommandsLabel(cmds) + "\n")
	}
	return b.String()
}

// hudLines is the HUD panel body for st.
func hudLines(st session.State, player string, score int) []string {
	title := noMissionTitle
	if st.HasSession() {
		title = st.Session.Mission.Title
	}
	lines := []string{
		title,
		"Commander: " + session.PlayerBadge(player),
		"",
		"Time: " + FormatClock(st.Remaining),
		fmt.Sprintf("Score: %d", score),
		fmt.Sprintf("Mistakes: %d", st.Session.Mistakes),
		StepLabel(st.Session.StepIndex, st.Session.TotalSteps),
	}
	switch st.Phase {
	case session.PhaseComplete:
		lines = append(lines, "", "Status: complete")
	case session.PhaseActive:
		if !st.Ticking && st.Remaining == 0 {
			lines = append(lines, "", "Status: out of time")
		}
	}
	return lines
}

// stepPercent is the progress bar fill for the current session.
func stepPercent(st session.State) float64 {
	if st.Session.TotalSteps <= 0 {
		return 0
	}
	p := float64(st.Session.StepIndex) / float64(st.Session.TotalSteps)
	return min(1, max(0, p))
}
