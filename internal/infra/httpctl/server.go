package httpctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"voice-tutor/internal/application"
)

const maxTextBytes = 4096

// Controller is the part of the conversation controller the bridge drives.
type Controller interface {
	Press()
	Release()
	Submit(text string)
	Snapshot() application.Snapshot
}

// Server exposes the talk control over HTTP for headless push-to-talk
// hardware and scripts.
type Server struct {
	addr       string
	authToken  string
	controller Controller
	logger     *slog.Logger
	router     chi.Router
	httpServer *http.Server
}

type Config struct {
	Addr      string
	AuthToken string
	RateLimit int
}

func NewServer(cfg Config, controller Controller, logger *slog.Logger) *Server {
	s := &Server{
		addr:       cfg.Addr,
		authToken:  cfg.AuthToken,
		controller: controller,
		logger:     logger,
	}

	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 30
	}
	limiter := NewRateLimiter(limit, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// No auth or rate limiting on health check
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/transcript", s.handleTranscript)

		r.With(limiter.Middleware).Post("/press", s.handlePress)
		r.With(limiter.Middleware).Post("/release", s.handleRelease)
		r.With(limiter.Middleware).Post("/text", s.handleText)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	s.httpServer = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("control server starting", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serving: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.httpServer.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}
	return nil
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			// Check header first
			token := r.Header.Get("X-Auth-Token")
			if token == "" {
				token = r.URL.Query().Get("token")
			}

			if token != s.authToken {
				s.logger.Warn("unauthorized control request", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	s.controller.Press()
	s.logger.Info("press received via HTTP")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	s.controller.Release()
	s.logger.Info("release received via HTTP")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxTextBytes+1))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if len(data) > maxTextBytes {
		http.Error(w, "text too long", http.StatusRequestEntityTooLarge)
		return
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		http.Error(w, "empty text", http.StatusBadRequest)
		return
	}

	// Typed text is only accepted from Idle; anywhere else the controller drops it.
	if state := s.controller.Snapshot().State; state != application.StateIdle {
		http.Error(w, fmt.Sprintf("busy: %s", state), http.StatusConflict)
		return
	}

	s.controller.Submit(text)
	s.logger.Info("text received via HTTP", "chars", len(text))
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "text": text})
}

type messageJSON struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

type transcriptJSON struct {
	State     string        `json:"state"`
	Recording bool          `json:"recording"`
	Loading   bool          `json:"loading"`
	Messages  []messageJSON `json:"messages"`
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	snap := s.controller.Snapshot()

	out := transcriptJSON{
		State:     string(snap.State),
		Recording: snap.Recording,
		Loading:   snap.Loading,
		Messages:  make([]messageJSON, len(snap.Messages)),
	}
	for i, m := range snap.Messages {
		out.Messages[i] = messageJSON{
			ID:        m.ID,
			Sender:    string(m.Sender),
			Text:      m.Text,
			CreatedAt: m.CreatedAt.Format(time.RFC3339Nano),
		}
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.controller.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"state":    snap.State,
		"messages": len(snap.Messages),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
