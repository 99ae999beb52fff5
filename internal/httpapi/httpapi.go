// Package httpapi exposes a small read-only status surface over HTTP,
// bound to localhost by default.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"encbot/internal/job"
	"encbot/internal/logging"
	"encbot/internal/queue"
	"encbot/internal/store"
)

// Server serves the status endpoints.
type Server struct {
	worker  *queue.Worker
	queue   *queue.Queue
	history *store.History
	started time.Time
}

func New(w *queue.Worker, q *queue.Queue, h *store.History) *Server {
	return &Server{worker: w, queue: q, history: h, started: time.Now()}
}

// Router builds the chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/queue", s.handleQueue)
	r.Get("/api/history", s.handleHistory)
	return r
}

// ListenAndServe runs the server until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	log := logging.WithComponent("httpapi")
	log.Info().Str("addr", addr).Msg("status endpoint listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

type jobView struct {
	ID       string  `json:"id"`
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Owner    int64   `json:"owner"`
	WaitSecs float64 `json:"wait_secs"`
}

func viewOf(j *job.Job) jobView {
	name := j.RealName
	if name == "" {
		name = j.URL
	}
	return jobView{
		ID:       j.ID,
		Kind:     string(j.Kind),
		Name:     name,
		Owner:    j.Owner,
		WaitSecs: time.Since(j.Submitted).Seconds(),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, current, depth := s.worker.Status()
	resp := struct {
		Worker     string   `json:"worker"`
		Current    *jobView `json:"current,omitempty"`
		QueueDepth int      `json:"queue_depth"`
		UptimeSecs float64  `json:"uptime_secs"`
	}{
		Worker:     string(state),
		QueueDepth: depth,
		UptimeSecs: time.Since(s.started).Seconds(),
	}
	if current != nil {
		v := viewOf(current)
		resp.Current = &v
	}
	writeJSON(w, resp)
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	jobs := s.queue.Snapshot()
	views := make([]jobView, len(jobs))
	for i, j := range jobs {
		views[i] = viewOf(j)
	}
	writeJSON(w, views)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.history.All())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
