package server

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

type commandRequest struct {
	Text string `json:"text"`
}

func (s *Server) getCommandsHandler(w http.ResponseWriter, r *http.Request) {
	templates := s.catalog.Templates()
	views := make([]CommandView, len(templates))
	for i, t := range templates {
		views[i] = CommandView{
			Pattern:     t.Pattern(),
			Safe:        t.Safe(),
			Description: t.Description(),
		}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) postCommandHandler(w http.ResponseWriter, r *http.Request) {
	text, err := readCommand(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(strings.TrimSpace(text)) == 0 {
		http.Error(w, "Command cannot be blank", http.StatusBadRequest)
		return
	}

	if !s.limiter(r.RemoteAddr).Allow() {
		log.Warn().Str("remote", r.RemoteAddr).Msg("rate limit exceeded")
		http.Error(w, "Too many commands, slow down", http.StatusTooManyRequests)
		return
	}

	// default length
	text = truncate(text, MaxMessageSize)

	res := s.exec.Execute(r.Context(), text)
	writeJSON(w, http.StatusOK, NewResultView(res))
}

// readCommand accepts a JSON body or a form with "text" (or "prompt").
func readCommand(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req commandRequest
		body := io.LimitReader(r.Body, 4*MaxMessageSize)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", err
		}
		return req.Text, nil
	}

	if err := r.ParseForm(); err != nil {
		return "", err
	}
	if text := r.Form.Get("text"); text != "" {
		return text, nil
	}
	return r.Form.Get("prompt"), nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}

// SetHeaders allows cross-origin requests.
func SetHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func WithCors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// set cors origin allow all
		SetHeaders(w, r)

		// if options return immediately
		if r.Method == http.MethodOptions {
			return
		}

		h.ServeHTTP(w, r)
	})
}
