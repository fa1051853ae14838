package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"resource-dashboard/internal/session"
)

func dialStream(t *testing.T, srv *httptest.Server, cookie *http.Cookie) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	return dialStreamFrom(t, srv, cookie, "")
}

func dialStreamFrom(t *testing.T, srv *httptest.Server, cookie *http.Cookie, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	if cookie != nil {
		header.Set("Cookie", (&http.Cookie{Name: cookie.Name, Value: cookie.Value}).String())
	}
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	return websocket.DefaultDialer.Dial(url, header)
}

func readEvent(t *testing.T, conn *websocket.Conn) session.Event {
	t.Helper()
	var event session.Event
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("read deadline: %v", err)
	}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return event
}

func TestStreamRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	_, resp, err := dialStream(t, srv, nil)
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 got %+v", resp)
	}
}

func TestStreamDeliversFramesAndSurprise(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	env.do(t, http.MethodGet, "/api/session", nil)
	conn, _, err := dialStream(t, srv, env.cookie)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readEvent(t, conn)
	if first.Type != session.EventFrame || first.Display != "00:00:00.00" || first.Phase != "idle" {
		t.Fatalf("unexpected initial frame %+v", first)
	}

	env.do(t, http.MethodPost, "/api/stopwatch/start", nil)
	started := readEvent(t, conn)
	if started.Type != session.EventFrame || !started.Running {
		t.Fatalf("expected running frame got %+v", started)
	}

	env.clock.Advance(1250 * time.Millisecond)
	env.do(t, http.MethodPost, "/api/stopwatch/stop", nil)
	env.do(t, http.MethodPost, "/api/surprise", nil)

	// Drain ticks published before the stop until the paused frame arrives.
	var paused session.Event
	for {
		paused = readEvent(t, conn)
		if paused.Type == session.EventFrame && !paused.Running {
			break
		}
	}
	if paused.Display != "00:00:01.25" || paused.Phase != "paused" {
		t.Fatalf("unexpected paused frame %+v", paused)
	}

	surprise := readEvent(t, conn)
	if surprise.Type != session.EventSurprise || surprise.Animation != session.AnimationBalloons {
		t.Fatalf("expected surprise event got %+v", surprise)
	}
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	env.do(t, http.MethodGet, "/api/session", nil)
	_, resp, err := dialStreamFrom(t, srv, env.cookie, "https://evil.example")
	if err == nil {
		t.Fatalf("expected handshake failure for foreign origin")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 got %+v", resp)
	}

	conn, _, err := dialStreamFrom(t, srv, env.cookie, srv.URL)
	if err != nil {
		t.Fatalf("same-host dial: %v", err)
	}
	defer conn.Close()
	if first := readEvent(t, conn); first.Type != session.EventFrame {
		t.Fatalf("unexpected initial event %+v", first)
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		host    string
		origin  string
		ok      bool
	}{
		{"no origin header", nil, "dash.local:3000", "", true},
		{"same host", nil, "dash.local:3000", "http://dash.local:3000", true},
		{"same host any case", nil, "dash.local:3000", "http://DASH.local:3000", true},
		{"other host", nil, "dash.local:3000", "http://evil.example", false},
		{"other port", nil, "dash.local:3000", "http://dash.local:4000", false},
		{"malformed", nil, "dash.local:3000", "http://[::1", false},
		{"configured", []string{"https://app.example"}, "dash.local:3000", "https://app.example", true},
		{"configured excludes same host", []string{"https://app.example"}, "dash.local:3000", "http://dash.local:3000", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := &Server{allowedOrigins: tc.allowed}
			req := httptest.NewRequest(http.MethodGet, "/api/stream", nil)
			req.Host = tc.host
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			if got := s.checkOrigin(req); got != tc.ok {
				t.Fatalf("expected %v got %v", tc.ok, got)
			}
		})
	}
}
