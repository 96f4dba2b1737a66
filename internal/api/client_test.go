package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientTrimsBaseURL(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://example.test/api/"})
	if c.BaseURL() != "http://example.test/api" {
		t.Fatalf("unexpected base url: %q", c.BaseURL())
	}
	if NewClient(ClientConfig{}).BaseURL() != DefaultBaseURL {
		t.Fatalf("expected default base url")
	}
}

func TestClientRoutesAndPayloads(t *testing.T) {
	var gotStart StartRequest
	var gotCommand CommandRequest
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/missions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]MissionSummary{{ID: "sandbox-check", Title: "Warm Up", Objectives: []string{"pwd"}}})
	})
	mux.HandleFunc("POST /api/missions/start", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotStart)
		_ = json.NewEncoder(w).Encode(StartResponse{
			SessionID:        "s-1",
			Mission:          MissionSummary{ID: gotStart.MissionID},
			FirstPrompt:      "Where are you?",
			TotalSteps:       2,
			TimeLimitSeconds: 300,
			StartedAt:        time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	})
	mux.HandleFunc("POST /api/missions/{id}/command", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "s-1" {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&gotCommand)
		_, _ = w.Write([]byte(`{"accepted":true,"terminal_output":["/home/sysadmin"],"feedback":"Great job!","step_index":1,"total_steps":2,"mission_complete":false,"next_prompt":"List files","mistakes":0,"score_awarded":25,"total_score":25,"time_remaining_seconds":287}`))
	})
	mux.HandleFunc("POST /api/missions/{id}/hint", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(HintResponse{StepIndex: 1, Hint: "Use ls", RemainingHints: 0})
	})
	mux.HandleFunc("GET /api/missions/{id}", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(SessionStatus{SessionID: r.PathValue("id"), MissionID: "sandbox-check", StepIndex: 1, TotalSteps: 2})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL + "/api"})
	ctx := context.Background()

	missions, err := c.ListMissions(ctx)
	if err != nil {
		t.Fatalf("list missions: %v", err)
	}
	if len(missions) != 1 || missions[0].ID != "sandbox-check" {
		t.Fatalf("unexpected missions: %#v", missions)
	}

	start, err := c.StartMission(ctx, StartRequest{MissionID: "sandbox-check", PlayerName: "Ada"})
	if err != nil {
		t.Fatalf("start mission: %v", err)
	}
	if gotStart.MissionID != "sandbox-check" || gotStart.PlayerName != "Ada" {
		t.Fatalf("unexpected start payload: %+v", gotStart)
	}
	if start.SessionID != "s-1" || start.TimeLimitSeconds != 300 {
		t.Fatalf("unexpected start response: %+v", start)
	}

	res, err := c.SubmitCommand(ctx, "s-1", CommandRequest{Command: "pwd"})
	if err != nil {
		t.Fatalf("submit command: %v", err)
	}
	if gotCommand.Command != "pwd" {
		t.Fatalf("unexpected command payload: %+v", gotCommand)
	}
	if !res.Accepted || res.Prompt() != "List files" || res.TimeRemainingSeconds != 287 {
		t.Fatalf("unexpected command response: %+v", res)
	}

	hint, err := c.RequestHint(ctx, "s-1")
	if err != nil {
		t.Fatalf("hint: %v", err)
	}
	if hint.Hint != "Use ls" {
		t.Fatalf("unexpected hint: %+v", hint)
	}

	status, err := c.SessionStatus(ctx, "s-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.SessionID != "s-1" || status.StepIndex != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestClientSurfacesErrorBodyOrStatusText(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{name: "body", status: http.StatusNotFound, body: `{"detail":"Session not found"}`, want: `{"detail":"Session not found"}`},
		{name: "empty body", status: http.StatusBadGateway, body: "", want: "Bad Gateway"},
		{name: "whitespace body", status: http.StatusInternalServerError, body: "  \n", want: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(ClientConfig{BaseURL: srv.URL}).ListMissions(context.Background())
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				t.Fatalf("expected HTTPError, got %v", err)
			}
			if httpErr.StatusCode != tt.status {
				t.Fatalf("expected status %d, got %d", tt.status, httpErr.StatusCode)
			}
			if err.Error() != tt.want {
				t.Fatalf("got %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCommandResponsePromptNull(t *testing.T) {
	var res CommandResponse
	if err := json.Unmarshal([]byte(`{"accepted":false,"next_prompt":null}`), &res); err != nil {
		t.Fatal(err)
	}
	if res.Prompt() != "" {
		t.Fatalf("expected empty prompt for null next_prompt")
	}
}
