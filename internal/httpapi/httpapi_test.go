package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"encbot/internal/job"
	"encbot/internal/queue"
	"encbot/internal/store"
)

func newTestServer(t *testing.T) (*Server, *queue.Queue, *store.History) {
	t.Helper()
	q := queue.New()
	w := queue.NewWorker(q, func(ctx context.Context, j *job.Job) job.State {
		return job.StateDone
	}, nil)
	h, err := store.OpenHistory(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	return New(w, q, h), q, h
}

func get(t *testing.T, srv *Server, path string, v any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if v != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
			t.Fatalf("parse %s: %v", path, err)
		}
	}
	return rec.Code
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	var body map[string]string
	if code := get(t, srv, "/healthz", &body); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestStatusIdle(t *testing.T) {
	srv, q, _ := newTestServer(t)
	q.Submit(job.New(1, job.KindEncode))

	var body struct {
		Worker     string `json:"worker"`
		QueueDepth int    `json:"queue_depth"`
	}
	if code := get(t, srv, "/api/status", &body); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if body.Worker != "idle" || body.QueueDepth != 1 {
		t.Fatalf("body = %+v", body)
	}
}

func TestQueueListing(t *testing.T) {
	srv, q, _ := newTestServer(t)
	j := job.New(7, job.KindLeech)
	j.URL = "https://example.com/v"
	q.Submit(j)

	var body []struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}
	if code := get(t, srv, "/api/queue", &body); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if len(body) != 1 || body[0].Kind != "leech" || body[0].Name != "https://example.com/v" {
		t.Fatalf("body = %+v", body)
	}
}

func TestHistoryListing(t *testing.T) {
	srv, _, h := newTestServer(t)
	if err := h.Append(store.ResultRecord{Filename: "a.mp4", Quality: "720p"}); err != nil {
		t.Fatal(err)
	}
	var body []store.ResultRecord
	if code := get(t, srv, "/api/history", &body); code != http.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if len(body) != 1 || body[0].Filename != "a.mp4" {
		t.Fatalf("body = %+v", body)
	}
}
