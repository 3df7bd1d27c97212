// Package web provides the HTTP JSON API server.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vinylog/vinylog/internal/account"
	"github.com/vinylog/vinylog/internal/cache"
	"github.com/vinylog/vinylog/internal/comments"
	"github.com/vinylog/vinylog/internal/identity"
	"github.com/vinylog/vinylog/internal/lastfm"
	"github.com/vinylog/vinylog/internal/status"
	vsync "github.com/vinylog/vinylog/internal/sync"
)

// sweepInterval is how often expired sessions are removed.
const sweepInterval = time.Hour

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr string
}

// Deps are the services the handlers dispatch to.
type Deps struct {
	Identity *identity.Manager
	Account  *account.Service
	Status   *status.Store
	Comments *comments.Service
	Sync     *vsync.Engine
	Metadata *lastfm.Client
	Library  LibraryLister
	Cache    *cache.Cache
}

// Server is the HTTP server for the JSON API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	identity *identity.Manager
	logger   zerolog.Logger
}

// NewServer creates the server, wiring middleware and routes.
func NewServer(cfg ServerConfig, deps Deps, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "web").Logger()

	router := chi.NewRouter()
	s := &Server{
		router:   router,
		handlers: NewHandlers(deps, logger),
		identity: deps.Identity,
		logger:   logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.withUser)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handlers.Register)
		r.Post("/auth/login", s.handlers.Login)
		r.Post("/auth/logout", s.handlers.Logout)

		// Catalogue browsing is public.
		r.Get("/albums/search", s.handlers.SearchAlbums)
		r.Get("/artists/search", s.handlers.SearchArtists)
		r.Get("/charts/albums", s.handlers.TopAlbums)
		r.Get("/charts/artists", s.handlers.TopArtists)
		r.Get("/albums/info", s.handlers.AlbumInfo)
		r.Get("/artists/info", s.handlers.ArtistInfo)
		r.Get("/artists/top-albums", s.handlers.ArtistTopAlbums)
		r.Get("/albums/{albumID}/comments", s.handlers.ListComments)

		// Everything below requires a session.
		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/albums/status", s.handlers.AlbumStatus)
			r.Post("/albums/favorite", s.handlers.ToggleFavorite)
			r.Post("/albums/listened", s.handlers.ToggleListened)
			r.Get("/library/favorites", s.handlers.ListFavorites)
			r.Get("/library/listened", s.handlers.ListListened)

			r.Post("/albums/{albumID}/comments", s.handlers.AddComment)
			r.Delete("/comments/{commentID}", s.handlers.DeleteComment)

			r.Get("/profile", s.handlers.GetProfile)
			r.Put("/profile", s.handlers.UpdateProfile)
			r.Put("/profile/favorite-albums", s.handlers.SetFavoriteAlbums)
			r.Delete("/account", s.handlers.DeleteAccount)

			r.Get("/spotify/connect", s.handlers.SpotifyConnect)
			r.Get("/spotify/callback", s.handlers.SpotifyCallback)
			r.Post("/spotify/sync", s.handlers.SpotifySync)
			r.Get("/spotify/status", s.handlers.SpotifyStatus)
			r.Get("/spotify/overview", s.handlers.SpotifyOverview)
			r.Delete("/spotify", s.handlers.SpotifyDisconnect)
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("server listening")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server, sweeps expired sessions periodically, and handles
// graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	go s.sweepSessions(sweepCtx)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info().Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info().Msg("server stopped")
	return nil
}

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.identity.Sweep(ctx)
		}
	}
}
