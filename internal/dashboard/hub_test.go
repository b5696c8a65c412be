package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/MLServe/internal/domain/jobModel"
	"github.com/gorilla/websocket"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeBoard(w, r, r.URL.Query().Get("board"))
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, board string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?board=" + board
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestHub_PublishReachesBoardSubscribers(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "board-a")
	b := dial(t, srv, "board-b")
	waitFor(t, func() bool { return hub.ClientCount("board-a") == 1 && hub.ClientCount("board-b") == 1 })

	hub.PublishFigure("board-a", jobModel.Job{Id: "job-1", BoardId: "board-a", Status: jobModel.JobStatusComplete})

	_ = a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := a.ReadMessage()
	if err != nil {
		t.Fatalf("subscriber did not receive the figure: %v", err)
	}
	var job jobModel.Job
	if err := json.Unmarshal(msg, &job); err != nil || job.Id != "job-1" {
		t.Errorf("unexpected message %s", msg)
	}

	// the other board must not receive anything
	_ = b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := b.ReadMessage(); err == nil {
		t.Error("board-b should not receive board-a figures")
	}
}

func TestHub_UnregisterOnClose(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "board-x")
	waitFor(t, func() bool { return hub.ClientCount("board-x") == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return hub.ClientCount("board-x") == 0 })
}

func TestPageHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	PageHandler(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Plotly.react") {
		t.Errorf("unexpected dashboard page %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %s", rec.Header().Get("Content-Type"))
	}
}
