package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/cantai/cifra/pkg/observability"
)

type liveReply struct {
	Seq       int    `json:"seq"`
	Format    string `json:"format"`
	Interval  int    `json:"interval"`
	HTML      string `json:"html"`
	Ambiguous []int  `json:"ambiguous"`
	Code      string `json:"code"`
	Error     string `json:"error"`
}

func dialLive(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg any) liveReply {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var err error
	if s, ok := msg.(string); ok {
		err = conn.WriteMessage(websocket.TextMessage, []byte(s))
	} else {
		err = conn.WriteJSON(msg)
	}
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	var reply liveReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	return reply
}

func TestLive(t *testing.T) {
	srv := httptest.NewServer(newTestServer(Options{}).Handler())
	defer srv.Close()
	conn := dialLive(t, srv, nil)

	got := roundTrip(t, conn, liveRequest{Text: "[C]Santo, [Am]santo", Interval: 2})
	if got.Seq != 1 || got.Format != "inline" || got.Interval != 2 {
		t.Errorf("first reply = %+v", got)
	}
	if !strings.Contains(got.HTML, `<span class="chord">Bm</span>`) {
		t.Errorf("html not transposed:\n%s", got.HTML)
	}

	bad := roundTrip(t, conn, "{not json")
	if bad.Seq != 2 || bad.Code != "INVALID_INPUT" || bad.Error == "" || bad.HTML != "" {
		t.Errorf("malformed reply = %+v", bad)
	}

	invalid := roundTrip(t, conn, liveRequest{Text: "[C]x", Spelling: "natural"})
	if invalid.Seq != 3 || invalid.Code != "INVALID_SPELLING" {
		t.Errorf("invalid spelling reply = %+v", invalid)
	}

	// The connection survives errors.
	above := roundTrip(t, conn, liveRequest{Text: "C        Am\nGl\u00f3ria   gl\u00f3ria", Spelling: "sharp", Interval: 1})
	if above.Seq != 4 || above.Format != "above" || above.Error != "" {
		t.Errorf("reply after errors = %+v", above)
	}
	if !strings.Contains(above.HTML, "C#") || !strings.Contains(above.HTML, "A#m") {
		t.Errorf("html not spelled with sharps:\n%s", above.HTML)
	}

	empty := roundTrip(t, conn, liveRequest{Text: "  \n"})
	if empty.Seq != 5 || empty.HTML != "" || empty.Error != "" {
		t.Errorf("empty text reply = %+v", empty)
	}
}

type liveRecorder struct {
	observability.NoopServerHooks
	mu       sync.Mutex
	sessions map[string]bool
	seqs     []int
	errs     int
}

func (r *liveRecorder) OnLiveMessage(_ context.Context, session string, seq int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session] = true
	r.seqs = append(r.seqs, seq)
	if err != nil {
		r.errs++
	}
}

func TestLiveHooks(t *testing.T) {
	rec := &liveRecorder{sessions: make(map[string]bool)}
	observability.SetServerHooks(rec)
	t.Cleanup(observability.Reset)

	srv := httptest.NewServer(newTestServer(Options{}).Handler())
	defer srv.Close()

	a := dialLive(t, srv, nil)
	roundTrip(t, a, liveRequest{Text: "[C]Santo"})
	roundTrip(t, a, "[]")
	b := dialLive(t, srv, nil)
	roundTrip(t, b, liveRequest{Text: "[G]Santo"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if diff := cmp.Diff([]int{1, 2, 1}, rec.seqs); diff != "" {
		t.Errorf("seqs (-want +got):\n%s", diff)
	}
	if len(rec.sessions) != 2 {
		t.Errorf("sessions = %d, want 2", len(rec.sessions))
	}
	if rec.errs != 1 {
		t.Errorf("errors = %d, want 1", rec.errs)
	}
}

func TestLiveOrigin(t *testing.T) {
	srv := httptest.NewServer(newTestServer(Options{AllowedOrigins: []string{"https://cantai.example"}}).Handler())
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/live"

	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		conn.Close()
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
	if resp != nil {
		resp.Body.Close()
	}

	ok := dialLive(t, srv, http.Header{"Origin": {"https://cantai.example"}})
	if got := roundTrip(t, ok, liveRequest{Text: "[C]Santo"}); got.Format != "inline" {
		t.Errorf("reply = %+v", got)
	}
}

func TestCheckOrigin(t *testing.T) {
	if checkOrigin(nil) != nil {
		t.Error("no allowed origins should defer to the same-origin check")
	}
	check := checkOrigin([]string{"https://cantai.example", "*.igreja.example"})
	tests := []struct {
		origin string
		want   bool
	}{
		{"https://cantai.example", true},
		{"https://coro.igreja.example", true},
		{"https://evil.example", false},
		{"https://igreja.example.evil", false},
		{"", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/live", nil)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		if got := check(r); got != tt.want {
			t.Errorf("checkOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
	if checkOrigin([]string{"*"})(httptest.NewRequest(http.MethodGet, "/", nil)) {
		t.Error("wildcard should still require an Origin header")
	}
}
