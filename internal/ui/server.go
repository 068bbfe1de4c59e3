// Package ui provides the web playground for interactive template analysis.
package ui

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/sqlsift/sqlsift/internal/analyze"
	"github.com/sqlsift/sqlsift/internal/config"
	"github.com/sqlsift/sqlsift/internal/state"
)

// Server is the playground HTTP server.
type Server struct {
	analyzer     *analyze.Analyzer
	store        *state.Store
	sessionStore *sessions.CookieStore
	host         string
	port         int
	templatesDir string
	watch        *config.WatchConfig
	logger       *slog.Logger
	notifier     *Notifier
}

// Config holds configuration for the playground server.
type Config struct {
	Analyzer      *analyze.Analyzer
	Store         *state.Store
	Host          string
	Port          int
	TemplatesDir  string
	Watch         *config.WatchConfig
	SessionSecret string
	Logger        *slog.Logger
}

// NewServer creates a new playground server instance.
func NewServer(cfg Config) *Server {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.MaxAge(86400 * 30) // 30 days
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		analyzer:     cfg.Analyzer,
		store:        cfg.Store,
		sessionStore: sessionStore,
		host:         cfg.Host,
		port:         cfg.Port,
		templatesDir: cfg.TemplatesDir,
		watch:        cfg.Watch,
		logger:       logger,
		notifier:     NewNotifier(),
	}
}

// Serve starts the playground server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.logger.Info("starting playground server", "addr", fmt.Sprintf("http://%s", addr))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Watch template files if a directory is configured
	if s.watch != nil && s.templatesDir != "" {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down playground server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// Routes builds the playground router.
func (s *Server) Routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/", s.handleIndex)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/events", s.handleEvents)

	r.Route("/api", func(api chi.Router) {
		api.Post("/analyze", s.handleAnalyze)
		api.Post("/render", s.handleRender)
		api.Get("/template", s.handleGetTemplate)
		api.Get("/history", s.handleHistory)
	})

	return r
}

// watchFiles watches the templates directory and pings connected clients
// when a template changes.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.templatesDir); err != nil {
		s.logger.Error("failed to watch templates directory", "error", err)
		// Don't fail - continue without watching
	}

	debounce := time.Duration(s.watch.DebounceMS) * time.Millisecond
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !s.watch.WantsFile(event.Name) {
				continue
			}

			// Debounce
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(debounce, func() {
				s.logger.Debug("template changed", "file", name)
				s.notifier.Broadcast()
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
