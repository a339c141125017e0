package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/caelumsys/caelum/command"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the client.
	pongWait = 60 * time.Second

	// Send pings to client with this period. Must be less than pongWait.
	pingPeriod = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// IsWebSocket reports whether r asks for a websocket upgrade.
func IsWebSocket(r *http.Request) bool {
	contains := func(key, val string) bool {
		vv := strings.Split(r.Header.Get(key), ",")
		for _, v := range vv {
			if val == strings.ToLower(strings.TrimSpace(v)) {
				return true
			}
		}
		return false
	}

	return contains("Connection", "upgrade") && contains("Upgrade", "websocket")
}

func (s *Server) getEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "unsupported method "+r.Method, http.StatusMethodNotAllowed)
		return
	}
	if !IsWebSocket(r) {
		http.Error(w, "websocket upgrade required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	st := &stream{
		ctx:     r.Context(),
		conn:    conn,
		exec:    s.exec,
		limiter: s.newLimiter(),
		replies: make(chan *Message, 16),
	}
	log.Debug().Str("remote", r.RemoteAddr).Msg("websocket connected")
	st.run()
	log.Debug().Str("remote", r.RemoteAddr).Msg("websocket closed")
}

type stream struct {
	// request context
	ctx context.Context
	// the websocket connection.
	conn    *websocket.Conn
	exec    Executor
	limiter *rate.Limiter
	// results waiting to be written; only the write loop touches conn writes
	replies chan *Message
}

func (s *stream) run() {
	defer s.conn.Close()

	// to cancel everything
	stopCtx, cancel := context.WithCancel(context.Background())

	wg := sync.WaitGroup{}
	wg.Add(2)

	go s.bufToClientLoop(cancel, &wg, stopCtx)
	go s.clientToServerLoop(cancel, &wg, stopCtx)
	wg.Wait()
}

func (s *stream) clientToServerLoop(cancel context.CancelFunc, wg *sync.WaitGroup, stopCtx context.Context) {
	defer func() {
		cancel()
		wg.Done()
	}()

	s.conn.SetReadLimit(MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		reply := s.handle(string(msg))
		select {
		case s.replies <- reply:
		case <-stopCtx.Done():
			return
		}
	}
}

func (s *stream) handle(text string) *Message {
	id := uuid.NewString()
	if !s.limiter.Allow() {
		return NewMessage("error", command.FailureMarker+" Too many commands, slow down", id)
	}

	res := s.exec.Execute(s.ctx, text)
	m := NewMessage("result", res.String(), id)
	m.Result = NewResultView(res)
	return m
}

func (s *stream) bufToClientLoop(cancel context.CancelFunc, wg *sync.WaitGroup, stopCtx context.Context) {
	defer func() {
		s.conn.Close()
		cancel()
		wg.Done()
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stopCtx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case msg := <-s.replies:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}
