package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pixelframe/internal/config"
	"pixelframe/internal/logging"
)

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}

	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.WithComponent(logger, "api-server"),
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/config", srv.handleConfig)
	mux.HandleFunc("/api/action/", srv.handleAction)

	srv.server = &http.Server{
		Handler:           srv.wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", "address", listener.Addr().String())
	return nil
}

func (s *apiServer) stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// wrap applies bearer-token auth and tags every request with a correlation
// ID, echoed in the response headers and the logs.
func (s *apiServer) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.NewString()
		}
		w.Header().Set("X-Correlation-ID", correlationID)

		logger := s.logger.With(logging.FieldCorrelationID, correlationID)
		r = r.WithContext(logging.IntoContext(r.Context(), logger))

		if s.token != "" {
			supplied := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if supplied != s.token {
				logger.Warn("rejected unauthorized request", "path", r.URL.Path, "remote", r.RemoteAddr)
				s.writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
		}

		logger.Debug("api request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.daemon.Status())
}

// configView is the subset of configuration exposed over the API. Paths
// and the API token stay private.
type configView struct {
	Unthrottled      bool   `json:"unthrottled"`
	ResumeLast       bool   `json:"resume_last"`
	AutoCycleSeconds int    `json:"auto_cycle_seconds"`
	PixelFormat      string `json:"pixel_format"`
	LogLevel         string `json:"log_level"`
}

func (s *apiServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, http.StatusOK, configView{
			Unthrottled:      s.daemon.cfg.Playback.Unthrottled,
			ResumeLast:       s.daemon.cfg.Playback.ResumeLast,
			AutoCycleSeconds: s.daemon.cfg.Playback.AutoCycleSeconds,
			PixelFormat:      s.daemon.cfg.Display.PixelFormat,
			LogLevel:         s.daemon.cfg.Logging.Level,
		})
	case http.MethodPut, http.MethodPost:
		var update struct {
			Unthrottled *bool `json:"unthrottled"`
			ResumeLast  *bool `json:"resume_last"`
		}
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid config payload")
			return
		}
		if update.Unthrottled != nil {
			s.daemon.cfg.Playback.Unthrottled = *update.Unthrottled
		}
		if update.ResumeLast != nil {
			s.daemon.cfg.Playback.ResumeLast = *update.ResumeLast
		}
		logging.FromContext(r.Context()).Info("config updated over api")
		s.writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	pl := s.daemon.Player()
	if pl == nil {
		s.writeError(w, http.StatusServiceUnavailable, "player not running")
		return
	}

	action := strings.TrimPrefix(r.URL.Path, "/api/action/")
	logger := logging.FromContext(r.Context())

	accepted := true
	switch action {
	case "next":
		accepted = pl.Cycle(1)
	case "previous":
		accepted = pl.Cycle(-1)
	case "random":
		accepted = pl.CycleRandom()
	case "pause":
		pl.SetPaused(true)
	case "resume":
		pl.SetPaused(false)
	case "toggle":
		pl.TogglePause()
	default:
		s.writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	logger.Info("action handled", "action", action, "accepted", accepted)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"action":   action,
		"accepted": accepted,
		"paused":   pl.IsPaused(),
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
