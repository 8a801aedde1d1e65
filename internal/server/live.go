package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/observability"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/sheet"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	writeWait  = 10 * time.Second
)

// liveRequest is one editor update. Each message carries the whole song.
type liveRequest struct {
	Text     string `json:"text"`
	Format   string `json:"format,omitempty"`
	Interval int    `json:"interval,omitempty"`
	ToKey    string `json:"to_key,omitempty"`
	Spelling string `json:"spelling,omitempty"`
}

type liveResponse struct {
	Seq       int    `json:"seq"`
	Format    string `json:"format"`
	Interval  int    `json:"interval"`
	HTML      string `json:"html"`
	Ambiguous []int  `json:"ambiguous,omitempty"`
}

type liveError struct {
	Seq   int         `json:"seq"`
	Code  errors.Code `json:"code"`
	Error string      `json:"error"`
}

// liveSession is one live-editor connection. Writes are serialized because
// the keepalive pinger and the read loop both write.
type liveSession struct {
	id     string
	conn   *websocket.Conn
	logger *log.Logger
	mu     sync.Mutex
}

func (ls *liveSession) write(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	_ = ls.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return ls.conn.WriteMessage(websocket.TextMessage, data)
}

func (ls *liveSession) ping(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ls.mu.Lock()
			err := ls.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			ls.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// handleLive upgrades to a WebSocket and answers every message with the
// rendered HTML. Bad messages get an error reply; the connection stays open.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		s.logger.Debug("live upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	ls := &liveSession{id: id, conn: conn, logger: s.logger.With("session", id)}
	ls.logger.Debug("live session opened")

	conn.SetReadLimit(int64(s.bodyLimit()))
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		ls.ping(done)
	}()
	defer wg.Wait()
	defer close(done)

	ctx := r.Context()
	for seq := 1; ; seq++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ls.logger.Warn("live session closed", "err", err)
			} else {
				ls.logger.Debug("live session closed", "messages", seq-1)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		resp, err := s.renderLive(ctx, seq, data)
		observability.Server().OnLiveMessage(ctx, ls.id, seq, err)
		var reply any = resp
		if err != nil {
			reply = liveError{Seq: seq, Code: errors.GetCode(err), Error: errors.UserMessage(err)}
		}
		if err := ls.write(reply); err != nil {
			ls.logger.Debug("live write failed", "err", err)
			return
		}
	}
}

// renderLive renders one live message. Empty text is a valid editor state
// and renders as an empty fragment.
func (s *Server) renderLive(ctx context.Context, seq int, data []byte) (liveResponse, error) {
	var req liveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return liveResponse{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid message")
	}
	if strings.TrimSpace(req.Text) == "" {
		return liveResponse{Seq: seq, Format: sheet.Above.String()}, nil
	}

	opts := s.options(renderRequest{
		Text:     req.Text,
		Format:   req.Format,
		Interval: req.Interval,
		ToKey:    req.ToKey,
		Spelling: req.Spelling,
		Output:   pipeline.OutputHTML,
	})
	res, err := s.runner.Execute(ctx, opts)
	if err != nil {
		return liveResponse{}, err
	}
	return liveResponse{
		Seq:       seq,
		Format:    res.Document.Format.String(),
		Interval:  res.Interval,
		HTML:      string(res.Body),
		Ambiguous: res.Detection.Ambiguous,
	}, nil
}

// checkOrigin returns the upgrader's origin check. With no allowed origins
// it returns nil, which makes gorilla enforce same-origin.
func checkOrigin(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		for _, a := range allowed {
			switch {
			case a == "*", a == origin:
				return true
			case strings.HasPrefix(a, "*.") && strings.HasSuffix(origin, a[1:]):
				return true
			}
		}
		return false
	}
}
