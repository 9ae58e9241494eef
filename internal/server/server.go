package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/KaramelBytes/samplescope-cli/internal/analysis"
	"github.com/KaramelBytes/samplescope-cli/internal/config"
	"github.com/KaramelBytes/samplescope-cli/internal/parser"
)

// UploadField is the multipart part carrying the sample.
const UploadField = "file"

const shutdownTimeout = 10 * time.Second

type handler struct {
	maxUpload int64
	logger    *zap.Logger
}

// New builds the HTTP API: POST /api/data/analyze and GET /healthz.
func New(cfg *config.Global, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{maxUpload: cfg.MaxUploadBytes, logger: logger.Named("http")}
	if h.maxUpload <= 0 {
		h.maxUpload = config.DefaultMaxUploadBytes
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/api/data/analyze", h.analyze)
	return r
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(zap.String("request_id", RequestIDFrom(r.Context())))
	if r.ContentLength > h.maxUpload {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", h.maxUpload))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	file, hdr, err := r.FormFile(UploadField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, http.StatusBadRequest, analysis.ErrEmptyInput)
			return
		}
		writeError(w, statusFor(err), err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	log.Info("received sample", zap.String("file", hdr.Filename), zap.Int("bytes", len(data)))

	rep, err := analysis.Analyze(data, hdr.Filename)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.Error("analysis failed", zap.String("file", hdr.Filename), zap.Error(err))
		}
		writeError(w, status, err)
		return
	}
	log.Debug("analysis complete",
		zap.String("file", rep.FileName),
		zap.Int64("rows", rep.RowCount),
		zap.Int("columns", rep.ColumnCount))
	writeJSON(w, http.StatusOK, rep)
}

// statusFor maps engine and transport errors to HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, analysis.ErrEmptyInput), errors.Is(err, parser.ErrMalformed):
		return http.StatusBadRequest
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// Run serves the API on cfg.ListenAddr until ctx is cancelled, then drains
// in-flight requests.
func Run(ctx context.Context, cfg *config.Global, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      New(cfg, logger),
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSec) * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.ListenAddr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
