// Package api exposes the dataset operations of the active session over
// HTTP for the browser UI.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	config "github.com/mwantia/gotagger/internal/config/server"
	"github.com/mwantia/gotagger/internal/dataset"
	"github.com/mwantia/gotagger/pkg/log"
)

// Server routes HTTP requests to the active dataset session.
type Server struct {
	manager dataset.Manager
	picker  FolderPicker
	cfg     config.HTTPServerConfig
	log     log.LoggerService

	http *http.Server
}

func NewServer(manager dataset.Manager, picker FolderPicker, cfg config.HTTPServerConfig, logger log.LoggerService) *Server {
	s := &Server{
		manager: manager,
		picker:  picker,
		cfg:     cfg,
		log:     logger,
	}

	s.http = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds a fresh handler tree for this server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/system/pick-folder", s.handlePickFolder)
		r.Post("/dataset", s.handleOpenDataset)

		r.Get("/images", s.handleListImages)
		r.Post("/images/delete", s.handleDeleteImages)
		r.Get("/images/by-tag/{tagName}", s.handleImagesByTag)
		r.Route("/images/{filename}", func(r chi.Router) {
			r.Get("/tags", s.handleImageTags)
			r.Post("/rename", s.handleRenameImage)
		})

		r.Post("/upload", s.handleUpload)

		r.Get("/tags/summary", s.handleTagSummary)
		r.Post("/tags/save", s.handleSaveTags)
		r.Post("/tags/update-color", s.handleUpdateTagColor)
		r.Post("/tags/batch-process", s.handleBatchProcess)
		r.Delete("/tags/{tagName}", s.handleDeleteTag)
	})

	r.Get("/images/*", s.handleServeImage)

	if s.cfg.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.cfg.PublicDir)))
	}

	return r
}

// ListenAndServe blocks until the listener fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info("Listening on http://%s", s.cfg.Address)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.log.Debug("%s %s %d %dB in %s [%s]", r.Method, r.URL.Path, ww.Status(), ww.BytesWritten(),
			time.Since(start), middleware.GetReqID(r.Context()))
	})
}

// session resolves the active dataset or writes the matching error response.
func (s *Server) session(w http.ResponseWriter) (*dataset.Session, bool) {
	session, err := s.manager.Current()
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}
	return session, true
}
