package console

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			w.Write([]byte(`{"worker":"running","queue_depth":2,"uptime_secs":60,"current":{"id":"a","kind":"encode","name":"Show.E01.mkv"}}`))
		case "/api/queue":
			w.Write([]byte(`[{"id":"b","kind":"leech","name":"https://example.com/v"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := &StatusClient{BaseURL: srv.URL}
	st, err := c.Status()
	if err != nil {
		t.Fatal(err)
	}
	if st.Worker != "running" || st.QueueDepth != 2 {
		t.Fatalf("status = %+v", st)
	}
	if st.Current == nil || st.Current.Name != "Show.E01.mkv" {
		t.Fatalf("current = %+v", st.Current)
	}

	q, err := c.Queue()
	if err != nil {
		t.Fatal(err)
	}
	if len(q) != 1 || q[0].Kind != "leech" {
		t.Fatalf("queue = %+v", q)
	}
}

func TestStatusClientError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := &StatusClient{BaseURL: srv.URL}
	if _, err := c.Status(); err == nil {
		t.Fatal("expected error for 404")
	}
}
