package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shortreel/internal/api"
	"shortreel/internal/config"
	"shortreel/internal/logging"
	"shortreel/internal/queue"
	"shortreel/internal/services"
	"shortreel/internal/shorts"
)

const maxSubmissionBytes = 1 << 20

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(cfg.Paths.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/short-video", s.handleSubmit)
	mux.HandleFunc("GET /api/short-video/{id}/status", s.handleVideoStatus)
	mux.HandleFunc("GET /api/short-video/{id}", s.handleDownload)
	mux.HandleFunc("DELETE /api/short-video/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/short-videos", s.handleList)
	mux.HandleFunc("GET /api/music-tags", s.handleMusicTags)
	mux.HandleFunc("GET /api/voices", s.handleVoices)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	return withRequestID(authMiddleware(token, mux))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("paths.api_bind is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub shorts.Submission
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSubmissionBytes)).Decode(&sub); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}
	id, err := s.daemon.deps.Jobs.Submit(r.Context(), sub)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, api.SubmitResponse{VideoID: id})
}

func (s *apiServer) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.daemon.deps.Jobs.Status(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{Status: string(status)})
}

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	body, err := s.daemon.deps.Store.Open(r.Context(), id)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	defer body.Close()
	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", id+".mp4"))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil && !errors.Is(err, context.Canceled) {
		logging.WithContext(r.Context(), s.logger).Debug("video stream interrupted", logging.Error(err))
	}
}

func (s *apiServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := s.daemon.deps.Jobs.Status(r.Context(), id)
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	if status == queue.StatusProcessing {
		s.writeError(w, http.StatusConflict, "video is still processing")
		return
	}
	if err := s.daemon.deps.Store.Delete(r.Context(), id); err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	logging.WithContext(services.WithJobID(r.Context(), id), s.logger).Info("video deleted",
		logging.String(logging.FieldEventType, "video_deleted"),
	)
	s.writeJSON(w, http.StatusOK, api.DeleteResponse{Success: true})
}

func (s *apiServer) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.daemon.deps.Jobs.List(r.Context())
	if err != nil {
		s.writeServiceError(r.Context(), w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.VideoListResponse{Videos: api.FromEntries(entries)})
}

func (s *apiServer) handleMusicTags(w http.ResponseWriter, _ *http.Request) {
	moods := s.daemon.deps.Music.Moods()
	tags := make([]string, len(moods))
	for i, mood := range moods {
		tags[i] = string(mood)
	}
	s.writeJSON(w, http.StatusOK, tags)
}

func (s *apiServer) handleVoices(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, shorts.Voices())
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		LockFilePath: status.LockFilePath,
		Storage:      status.Storage,
		Queue:        api.FromSnapshot(status.Queue),
		Dependencies: api.FromDependencies(status.Dependencies),
		Staging:      api.FromStagingDirs(status.Staging),
	})
}

func (s *apiServer) writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "video not found")
	default:
		logging.ErrorWithContext(logging.WithContext(ctx, s.logger), "api request failed", "api_request_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
		)
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
