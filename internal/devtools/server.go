package devtools

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"sysadminsim/internal/api"
	"sysadminsim/internal/telemetry"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

const maxRequestBody = 64 << 10

// Handler exposes the evaluator over the mission HTTP contract, rooted at /api.
func (e *Evaluator) Handler(log *telemetry.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/missions", e.handleList)
		r.Post("/missions/start", e.handleStart)
		r.Get("/missions/{sessionID}", e.handleStatus)
		r.Post("/missions/{sessionID}/command", e.handleCommand)
		r.Post("/missions/{sessionID}/hint", e.handleHint)
	})
	return r
}

func (e *Evaluator) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := e.ListMissions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (e *Evaluator) handleStart(w http.ResponseWriter, r *http.Request) {
	var req api.StartRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.MissionID) == "" {
		writeError(w, http.StatusUnprocessableEntity, "mission_id is required")
		return
	}
	res, err := e.StartMission(r.Context(), req)
	if err != nil {
		writeEvaluatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *Evaluator) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req api.CommandRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusUnprocessableEntity, "command is required")
		return
	}
	res, err := e.SubmitCommand(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		writeEvaluatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *Evaluator) handleHint(w http.ResponseWriter, r *http.Request) {
	res, err := e.RequestHint(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeEvaluatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (e *Evaluator) handleStatus(w http.ResponseWriter, r *http.Request) {
	res, err := e.SessionStatus(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeEvaluatorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v)
}

func writeEvaluatorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissionNotFound):
		writeError(w, http.StatusNotFound, "Mission not found")
	case errors.Is(err, ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func requestLog(log *telemetry.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("demo.request", map[string]any{
				"method":      r.Method,
				"path":        telemetry.SanitizeForLog(r.URL.Path),
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}

// Serve listens on addr and blocks until ctx is cancelled. Once the
// listener is bound, the base API URL is sent on ready if it is non-nil.
func (e *Evaluator) Serve(ctx context.Context, addr string, log *telemetry.Logger, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           e.Handler(log),
		ReadHeaderTimeout: 5 * time.Second,
	}
	base := "http://" + ln.Addr().String() + "/api"
	log.Info("demo.listen", map[string]any{"url": base})
	if ready != nil {
		ready <- base
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
