package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/desertthunder/mixdeck/internal/favorites"
	"github.com/desertthunder/mixdeck/internal/models"
	"github.com/desertthunder/mixdeck/internal/services"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Searcher is the search surface the server needs; [services.Aggregator] implements it.
type Searcher interface {
	Search(ctx context.Context, p models.Provider, query string, limit int) ([]models.Track, error)
	SearchAll(ctx context.Context, query string, limit int) ([]services.Result, error)
}

// Server holds the HTTP handlers' dependencies.
type Server struct {
	search  Searcher
	store   favorites.Store
	session *Session
	hub     *Hub
	logger  *log.Logger
	origins []string
}

// New creates a Server. store may be nil, in which case favorites routes answer 503.
func New(search Searcher, store favorites.Store, session *Session, hub *Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		search:  search,
		store:   store,
		session: session,
		hub:     hub,
		logger:  logger.WithPrefix("http"),
	}
}

// AllowOrigins permits browser pages from origins to open the player websocket. Same-origin requests and clients
// that send no Origin header are always accepted; "*" accepts any origin.
func (s *Server) AllowOrigins(origins ...string) *Server {
	s.origins = append(s.origins, origins...)
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.origins {
		if allowed == "*" || strings.EqualFold(strings.TrimRight(allowed, "/"), origin) {
			return true
		}
	}
	s.logger.Warn("rejected websocket origin", "origin", origin)
	return false
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// Router builds the chi router with the standard middleware followed by mws.
func (s *Server) Router(mws ...Middleware) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(s.logger))
	for _, mw := range mws {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)
	r.Get("/search", s.handleSearch)

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/", s.handleAddFavorite)
		r.Delete("/{provider}/{id}", s.handleRemoveFavorite)
	})

	r.Route("/player", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Get("/ws", s.handleWS)
		r.Post("/seek", s.handleSeek)
		r.Post("/volume", s.handleVolume)
		r.Get("/queue", s.handleQueue)
		r.Post("/queue", s.handleEnqueue)
		r.Post("/queue/{index}/play", s.handlePlayAt)
		r.Delete("/queue/{index}", s.handleDequeue)
		r.Post("/{action}", s.handleTransport)
	})

	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully. The hub and the session clock run
// for the lifetime of the server.
func (s *Server) ListenAndServe(ctx context.Context, addr string, tick time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.hub.Run(ctx)
	go s.session.Run(ctx, tick)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		return srv.Shutdown(shutdownCtx)
	}
}

// RequestLogger logs one line per request at debug level, and at warn level for 5xx responses.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= 500 {
				logger.Warn("request", kv...)
				return
			}
			logger.Debug("request", kv...)
		})
	}
}
