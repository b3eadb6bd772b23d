package speech

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func collect(t *testing.T, ch <-chan Recognized, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				return got
			}
			got = append(got, ev.Text)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events: %q", len(got), n, got)
		}
	}
	return got
}

func TestLinesEmitsVerbatimLines(t *testing.T) {
	input := "hello there\r\nHey Brittney shoot\n\nHey Brittney shoot!\n"
	l := NewLines(strings.NewReader(input))

	errc := make(chan error, 1)
	go func() { errc <- l.Run(context.Background()) }()

	got := collect(t, l.Events(), 3)
	want := []string{"hello there", "Hey Brittney shoot", "Hey Brittney shoot!"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("events = %q, want %q", got, want)
	}
	if err := <-errc; err != nil {
		t.Errorf("Run = %v at EOF, want nil", err)
	}
	if _, ok := <-l.Events(); ok {
		t.Error("Events not closed after Run returned")
	}
}

func TestLinesStopsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	l := NewLines(pr)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run ignored cancellation")
	}
}

func TestParseResult(t *testing.T) {
	tests := []struct {
		in    string
		text  string
		final bool
		ok    bool
	}{
		{`{"type":"result","text":"Hey Brittney shoot","final":true}`, "Hey Brittney shoot", true, true},
		{`{"result":"abc","final":false}`, "abc", false, true},
		{`{"alternatives":[{"text":"x"}],"is_final":true}`, "x", true, true},
		{`{"partial":"Hey Brit"}`, "Hey Brit", false, true},
		{`{"type":"ping"}`, "", false, false},
		{`not json`, "", false, false},
	}
	for _, tt := range tests {
		text, final, ok := parseResult([]byte(tt.in))
		if text != tt.text || final != tt.final || ok != tt.ok {
			t.Errorf("parseResult(%s) = %q, %v, %v", tt.in, text, final, ok)
		}
	}
}

func TestWebSocketEmitsFinalResults(t *testing.T) {
	grammar := make(chan grammarMessage, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var g grammarMessage
		if err := conn.ReadJSON(&g); err != nil {
			return
		}
		grammar <- g
		for _, msg := range []string{
			`{"partial":"Hey Brit"}`,
			`{"type":"result","text":"Hey Brittney shoot","final":false}`,
			`{"type":"result","text":"Hey Brittney shoot","final":true}`,
			`{"type":"result","text":"something else","final":true}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	ws := NewWebSocket(WebSocketConfig{
		Endpoint:  "ws" + strings.TrimPrefix(srv.URL, "http"),
		Phrases:   []string{"Hey Brittney shoot"},
		Reconnect: 10 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- ws.Run(ctx) }()

	select {
	case g := <-grammar:
		if g.Type != "grammar" || len(g.Phrases) != 1 || g.Phrases[0] != "Hey Brittney shoot" {
			t.Errorf("grammar = %+v", g)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("grammar never sent")
	}

	got := collect(t, ws.Events(), 2)
	if len(got) != 2 || got[0] != "Hey Brittney shoot" || got[1] != "something else" {
		t.Errorf("events = %q", got)
	}

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestWebSocketRetriesUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	ws := NewWebSocket(WebSocketConfig{Endpoint: url, Reconnect: 5 * time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := ws.Run(ctx); err != nil {
		t.Errorf("Run = %v, want nil after cancellation", err)
	}
}
