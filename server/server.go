// Package server exposes the dispatcher over HTTP.
//
//	POST /commands   run {"text": "..."} and return the result
//	GET  /commands   list registered commands
//	GET  /events     websocket: each text frame is a command, each reply a result
//
// Every client gets its own rate limiter keyed by remote address; each
// websocket connection gets its own as well.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/caelumsys/caelum/command"
)

const (
	// MaxMessageSize is the longest command text accepted, in bytes.
	MaxMessageSize = 1024

	// limiters idle this long are forgotten
	visitorTTL = 10 * time.Minute

	shutdownTimeout = 5 * time.Second
)

// Executor runs command text. *command.Dispatcher satisfies it.
type Executor interface {
	Execute(ctx context.Context, input string) command.Result
}

// Catalog lists commands. *command.Registry satisfies it.
type Catalog interface {
	Templates() []*command.Template
}

// Message is a websocket frame sent to clients.
type Message struct {
	Id        string
	Text      string
	Type      string      // "result" or "error"
	Created   int64       `json:",string"`
	CommandID string      `json:",omitempty"` // id of the frame being answered
	Result    *ResultView `json:",omitempty"`
}

// NewMessage returns a message of the given type.
func NewMessage(typ, text, commandID string) *Message {
	return &Message{
		Id:        uuid.New().String(),
		Text:      text,
		Type:      typ,
		Created:   time.Now().UnixNano(),
		CommandID: commandID,
	}
}

// ResultView is the JSON form of a command.Result.
type ResultView struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	OK         bool              `json:"ok"`
	Text       string            `json:"text"`
	Input      string            `json:"input"`
	Pattern    string            `json:"pattern,omitempty"`
	Args       map[string]string `json:"args,omitempty"`
	Score      float64           `json:"score"`
	Exact      bool              `json:"exact"`
	Correction string            `json:"correction,omitempty"`
	DurationMS float64           `json:"duration_ms"`
}

// NewResultView converts r for the wire.
func NewResultView(r command.Result) *ResultView {
	return &ResultView{
		ID:         r.ID,
		Status:     r.Status.String(),
		OK:         r.OK(),
		Text:       r.String(),
		Input:      r.Input,
		Pattern:    r.Pattern,
		Args:       r.Args,
		Score:      r.Score,
		Exact:      r.Exact,
		Correction: r.Correction,
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
	}
}

// CommandView describes one registered command.
type CommandView struct {
	Pattern     string `json:"pattern"`
	Safe        bool   `json:"safe"`
	Description string `json:"description,omitempty"`
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Server serves the dispatcher.
type Server struct {
	exec    Executor
	catalog Catalog
	limit   rate.Limit
	burst   int

	mtx      sync.Mutex
	visitors map[string]*visitor
}

// Option configures a Server.
type Option func(*Server)

// WithRate allows r commands per second with bursts of burst, per client.
func WithRate(r float64, burst int) Option {
	return func(s *Server) {
		if r > 0 {
			s.limit = rate.Limit(r)
		}
		if burst > 0 {
			s.burst = burst
		}
	}
}

// New returns a server running commands through exec and listing catalog.
func New(exec Executor, catalog Catalog, opts ...Option) *Server {
	s := &Server{
		exec:     exec,
		catalog:  catalog,
		limit:    5,
		burst:    10,
		visitors: make(map[string]*visitor),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes wrapped with CORS headers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/commands", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.getCommandsHandler(w, r)
		case http.MethodPost:
			s.postCommandHandler(w, r)
		default:
			http.Error(w, "unsupported method "+r.Method, http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/events", s.getEvents)
	return WithCors(mux)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving commands")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// limiter returns the shared limiter of the client at remoteAddr.
func (s *Server) limiter(remoteAddr string) *rate.Limiter {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := time.Now()
	v, ok := s.visitors[host]
	if !ok {
		v = &visitor{limiter: s.newLimiter()}
		s.visitors[host] = v
	}
	v.lastSeen = now

	for k, other := range s.visitors {
		if now.Sub(other.lastSeen) > visitorTTL {
			delete(s.visitors, k)
		}
	}
	return v.limiter
}

func (s *Server) newLimiter() *rate.Limiter {
	return rate.NewLimiter(s.limit, s.burst)
}
