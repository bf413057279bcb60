// Package server is an HTTP host for content items and their parts.
//
// It owns what the part drivers deliberately do not: loading and saving
// items, rendering shapes into pages, and protecting edit forms. Every
// edit form carries a signed token naming the item and the version it was
// rendered from; a tampered token is rejected with 400 and a token for an
// older version with 409, so two people editing one item cannot silently
// overwrite each other.
//
//	srv := server.New(reg, st, resolver, codec, server.WithGraphQL(gql))
//	http.ListenAndServe(":8080", srv.Routes())
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/pthm/hxpart"
	"github.com/pthm/hxpart/lib/encoding"
	hxrender "github.com/pthm/hxpart/lib/render"
	"github.com/pthm/hxpart/lib/store"
)

// TokenField is the form key carrying the edit token.
const TokenField = "__token"

// Errors surfaced through OnError.
var (
	ErrTokenInvalid = errors.New("server: edit token is invalid")
	ErrStale        = errors.New("server: edit form is out of date")
)

// Server serves content items.
type Server struct {
	registry *hxpart.Registry
	store    store.Store
	resolver *hxrender.Resolver
	codec    *encoding.Codec
	graphql  http.Handler
	tokenTTL time.Duration
	logger   *slog.Logger

	// OnError writes the response for a failed request. The default maps
	// missing items to 404, bad tokens to 400 and version conflicts to
	// 409.
	OnError func(http.ResponseWriter, *http.Request, error)
}

// Option configures a Server.
type Option func(*Server)

// WithGraphQL mounts h at POST /graphql. Without it the route does not
// exist.
func WithGraphQL(h http.Handler) Option {
	return func(s *Server) {
		s.graphql = h
	}
}

// WithTokenTTL sets how long an edit form stays valid. Defaults to 24h.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = d
	}
}

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server.
func New(reg *hxpart.Registry, st store.Store, resolver *hxrender.Resolver, codec *encoding.Codec, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		store:    st,
		resolver: resolver,
		codec:    codec,
		tokenTTL: 24 * time.Hour,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.OnError = s.defaultError
	return s
}

// Routes returns the server's router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)

	r.Get("/items/{id}", s.showItem)
	r.Get("/items/{id}/edit", s.editItem)
	r.Post("/items/{id}/edit", s.updateItem)

	r.Get("/new/{contentType}", s.newItem)
	r.Post("/new/{contentType}", s.createItem)

	if s.graphql != nil {
		r.Post("/graphql", s.graphql.ServeHTTP)
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (s *Server) defaultError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, hxpart.ErrUnknownContentType):
		status = http.StatusNotFound
	case errors.Is(err, ErrTokenInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, ErrStale), errors.Is(err, store.ErrConflict), errors.Is(err, store.ErrAlreadyExists):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal error", status)
		return
	}
	s.logger.DebugContext(r.Context(), "request rejected", "path", r.URL.Path, "status", status, "error", err)
	http.Error(w, http.StatusText(status), status)
}
