// Package http serves the portal's JSON pages, admin writes, media and the
// invalidation stream.
package http

import (
	"bufio"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pocketflix-portal/internal/access"
	"pocketflix-portal/internal/blob"
	"pocketflix-portal/internal/domain"
	"pocketflix-portal/internal/identity"
	"pocketflix-portal/internal/queries"
	"pocketflix-portal/internal/quizflow"
)

// AuthRoutes are the browser sign-in handlers of an interactive identity provider.
type AuthRoutes interface {
	Login(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Client   *queries.Client
	Flow     *quizflow.Service
	Identity identity.Provider
	// Auth is optional.
	Auth     AuthRoutes
	Uploader *blob.Uploader
	Objects  blob.Store
	// Media resolves /media URLs; usually a cache in front of Uploader.
	Media  domain.BlobFetcher
	Logger *slog.Logger
}

type Server struct {
	client   *queries.Client
	flow     *quizflow.Service
	ident    identity.Provider
	auth     AuthRoutes
	uploader *blob.Uploader
	objects  blob.Store
	media    domain.BlobFetcher
	logger   *slog.Logger
	newID    func() string
	ws       *WSHandler
}

func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Identity == nil {
		d.Identity = identity.None{}
	}
	if d.Media == nil && d.Uploader != nil {
		d.Media = d.Uploader
	}
	s := &Server{
		client:   d.Client,
		flow:     d.Flow,
		ident:    d.Identity,
		auth:     d.Auth,
		uploader: d.Uploader,
		objects:  d.Objects,
		media:    d.Media,
		logger:   d.Logger,
		newID:    uuid.NewString,
	}
	s.ws = NewWSHandler(d.Client.Cache(), d.Logger)
	return s
}

func (s *Server) state(r *http.Request) access.UserState {
	return access.CurrentUser(r.Context(), s.client)
}

func (s *Server) account(h http.HandlerFunc) http.Handler {
	return access.Require(s.state, access.AccountGuard, h)
}

func (s *Server) admin(h http.HandlerFunc) http.Handler {
	return access.Require(s.state, access.AdminGuard, h)
}

// Handler builds the routed, logged and identity-aware handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("GET /api/home", s.home)
	mux.HandleFunc("GET /api/settings", s.settings)
	mux.HandleFunc("GET /api/videos/{id}/quizzes", s.videoQuizzes)
	mux.HandleFunc("GET /api/leaderboard", s.leaderboard)
	mux.HandleFunc("GET /api/me", s.me)
	mux.Handle("PUT /api/me/profile", s.account(s.saveProfile))
	mux.Handle("GET /api/me/approval", s.account(s.approvalStatus))
	mux.Handle("POST /api/me/approval", s.account(s.requestApproval))

	mux.Handle("POST /api/attempts", s.account(s.startAttempt))
	mux.Handle("GET /api/attempts/{id}", s.account(s.getAttempt))
	mux.Handle("PUT /api/attempts/{id}/answers", s.account(s.answer))
	mux.Handle("POST /api/attempts/{id}/submit", s.account(s.submit))
	mux.Handle("DELETE /api/attempts/{id}", s.account(s.discard))

	mux.Handle("GET /account", s.account(s.accountPage))
	mux.Handle("GET /admin", s.admin(s.dashboard))
	s.adminRoutes(mux)

	mux.HandleFunc("GET /media/{name...}", s.serveMedia)
	mux.HandleFunc("GET /ws", s.ws.ServeWS)

	if s.auth != nil {
		mux.HandleFunc("GET /login", s.auth.Login)
		mux.HandleFunc("GET /callback", s.auth.Callback)
		mux.HandleFunc("GET /logout", s.auth.Logout)
	}

	return s.logRequests(identity.Middleware(s.ident, s.logger)(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrader take over the connection.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
