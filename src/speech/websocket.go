package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketConfig configures the recognizer service client.
type WebSocketConfig struct {
	// Endpoint is the ws:// or wss:// URL of the recognizer service.
	Endpoint string
	// Phrases is sent as the grammar on connect so the service can constrain
	// recognition, as a grammar-based engine would.
	Phrases []string
	// Reconnect is the pause between connection attempts.
	Reconnect time.Duration
}

// WebSocket receives recognition results from a streaming recognizer
// service. Only final results are emitted.
type WebSocket struct {
	cfg    WebSocketConfig
	dialer websocket.Dialer
	out    chan Recognized
}

func NewWebSocket(cfg WebSocketConfig) *WebSocket {
	if cfg.Reconnect <= 0 {
		cfg.Reconnect = 3 * time.Second
	}
	return &WebSocket{
		cfg: cfg,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		out: make(chan Recognized, eventBuffer),
	}
}

func (w *WebSocket) Events() <-chan Recognized { return w.out }

// Run keeps a connection open until ctx is cancelled, reconnecting after
// failures.
func (w *WebSocket) Run(ctx context.Context) error {
	defer close(w.out)
	for {
		err := w.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		log.Warn().Err(err).Str("endpoint", w.cfg.Endpoint).Dur("retry_in", w.cfg.Reconnect).Msg("Speech service connection lost")
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.cfg.Reconnect):
		}
	}
}

type grammarMessage struct {
	Type    string   `json:"type"`
	Phrases []string `json:"phrases"`
}

func (w *WebSocket) session(ctx context.Context) error {
	conn, resp, err := w.dialer.DialContext(ctx, w.cfg.Endpoint, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: HTTP %d: %w", w.cfg.Endpoint, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", w.cfg.Endpoint, err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "shutdown")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	if err := conn.WriteJSON(grammarMessage{Type: "grammar", Phrases: w.cfg.Phrases}); err != nil {
		return fmt.Errorf("send grammar: %w", err)
	}
	log.Info().Str("endpoint", w.cfg.Endpoint).Msg("Connected to speech service")

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}
		text, final, ok := parseResult(data)
		if !ok || !final || text == "" {
			continue
		}
		log.Debug().Str("text", text).Msg("Speech recognized")
		safeSend(w.out, Recognized{Text: text, At: time.Now()})
	}
}

// parseResult pulls the text and finality out of the result shapes common
// recognizer services send:
//
//	{"type":"result","text":"...","final":true}
//	{"result":"...","final":true}
//	{"alternatives":[{"text":"..."}],"final":true}
//	{"partial":"..."}
func parseResult(data []byte) (text string, final, ok bool) {
	var msg struct {
		Type         string `json:"type"`
		Text         string `json:"text"`
		Result       string `json:"result"`
		Partial      string `json:"partial"`
		Final        bool   `json:"final"`
		IsFinal      bool   `json:"is_final"`
		Alternatives []struct {
			Text string `json:"text"`
		} `json:"alternatives"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", false, false
	}
	final = msg.Final || msg.IsFinal
	switch {
	case msg.Text != "":
		return msg.Text, final, true
	case msg.Result != "":
		return msg.Result, final, true
	case len(msg.Alternatives) > 0:
		return msg.Alternatives[0].Text, final, true
	case msg.Partial != "":
		return msg.Partial, false, true
	}
	return "", false, false
}
