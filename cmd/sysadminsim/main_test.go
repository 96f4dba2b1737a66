package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"sysadminsim/internal/api"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMissionsListsDemoCatalog(t *testing.T) {
	out, err := execute(t, "missions", "--demo", "--plain")
	if err != nil {
		t.Fatalf("missions: %v", err)
	}
	for _, want := range []string{"| ID | Mission | Difficulty | Limit |", "| missing-route | Restore Network Connectivity | Intermediate | 15 min limit |", "log-chaos"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestMissionsShowsBriefing(t *testing.T) {
	out, err := execute(t, "missions", "missing-route", "--demo", "--plain")
	if err != nil {
		t.Fatalf("missions: %v", err)
	}
	if !strings.Contains(out, "# Restore Network Connectivity") || !strings.Contains(out, "`ip route`") {
		t.Fatalf("unexpected briefing:\n%s", out)
	}

	if _, err := execute(t, "missions", "nope", "--demo"); err == nil {
		t.Fatalf("expected unknown mission error")
	}
}

func TestStatusUnknownSession(t *testing.T) {
	if _, err := execute(t, "status", "missing", "--demo"); err == nil {
		t.Fatalf("expected error for unknown session")
	}
	if _, err := execute(t, "status"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestFlagsOverrideConfig(t *testing.T) {
	t.Setenv("SYSADMIN_SIM_PLAYER_NAME", "from-env")
	t.Setenv("SYSADMIN_SIM_REQUEST_TIMEOUT", "4s")

	fv := &flagValues{}
	cmd := buildRootCmd(fv)
	if err := cmd.ParseFlags([]string{"--player", "from-flag", "--data-dir", t.TempDir()}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := loadConfig(cmd, fv)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.PlayerName != "from-flag" {
		t.Fatalf("expected flag to win, got %q", cfg.PlayerName)
	}
	if cfg.RequestTimeout != 4*time.Second {
		t.Fatalf("expected env timeout to survive, got %s", cfg.RequestTimeout)
	}
}

func TestMissionTableEmptyAndEscaping(t *testing.T) {
	if got := missionTable(nil); got != "No missions loaded yet.\n" {
		t.Fatalf("unexpected empty table %q", got)
	}
	got := missionTable([]api.MissionSummary{{ID: "a", Title: "Pipes | Filters", DurationSeconds: 60}})
	if !strings.Contains(got, `Pipes \| Filters`) {
		t.Fatalf("expected escaped pipe, got %q", got)
	}
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	printStatus(&out, api.SessionStatus{SessionID: "s1", MissionID: "log-chaos", StepIndex: 1, TotalSteps: 3, TimeRemainingSeconds: 125})
	text := out.String()
	for _, want := range []string{"s1", "log-chaos", "Step: 2 / 3", "02:05", "in progress"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in status, got:\n%s", want, text)
		}
	}
}
