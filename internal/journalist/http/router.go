// Package http is the JSON API surface of the journalist interface. Handlers
// stay thin: decode, call a service, translate the error. Rate limits follow
// the sensitivity of the endpoint, with login throttled hardest.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pressfwd/sourcedesk/internal/journalist/service"
	"github.com/pressfwd/sourcedesk/internal/journalist/store"
	"github.com/pressfwd/sourcedesk/pkg/httpx"
	"github.com/pressfwd/sourcedesk/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *Sessions
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	AuthService       *service.AuthService
	AccountService    *service.AccountService
	CollectionService *service.CollectionService
	ReplyService      *service.ReplyService
	ExportService     *service.ExportService
}

func NewRouter(sessions *Sessions, buildVersion string, st store.Store, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerSources()
	r.registerReplies()
	r.registerExports()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	loginHandler := &LoginHandler{AuthService: r.AuthService, Sessions: r.sessions}
	r.Mux.Handle("POST /v1/session",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSources() {
	h := &SourcesHandler{Collections: r.CollectionService}

	r.Mux.Handle("GET /v1/sources",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /v1/sources/{fsid}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /v1/sources/{fsid}/star",
		httpx.Chain(http.HandlerFunc(h.HandleStar),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/sources/{fsid}/flag",
		httpx.Chain(http.HandlerFunc(h.HandleFlag),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/sources/{fsid}/rename",
		httpx.Chain(http.HandlerFunc(h.HandleRename),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/sources/{fsid}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/sources/{fsid}/submissions/delete",
		httpx.Chain(http.HandlerFunc(h.HandleDeleteSubmissions),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerReplies() {
	h := &RepliesHandler{ReplyService: r.ReplyService}

	r.Mux.Handle("POST /v1/sources/{fsid}/replies",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/sources/{fsid}/replies",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerExports() {
	h := &ExportHandler{ExportService: r.ExportService}

	r.Mux.Handle("POST /v1/export",
		httpx.Chain(http.HandlerFunc(h.HandleExport),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/sources/{fsid}/export",
		httpx.Chain(http.HandlerFunc(h.HandleExportSelected),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /v1/sources/{fsid}/submissions/{filename}",
		httpx.Chain(http.HandlerFunc(h.HandleDownload),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{AccountService: r.AccountService}

	admin := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler,
			AuthnMiddleware(r.sessions),
			RequireAdmin(),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/users", admin(h.HandleList))
	r.Mux.Handle("POST /v1/users", admin(h.HandleCreate))
	r.Mux.Handle("GET /v1/users/{id}", admin(h.HandleGet))
	r.Mux.Handle("DELETE /v1/users/{id}", admin(h.HandleDelete))
	r.Mux.Handle("POST /v1/users/{id}/username", admin(h.HandleSetUsername))
	r.Mux.Handle("POST /v1/users/{id}/admin", admin(h.HandleSetAdmin))
	r.Mux.Handle("POST /v1/users/{id}/password", admin(h.HandleSetPassword))
	r.Mux.Handle("POST /v1/users/{id}/totp/reset", admin(h.HandleResetTOTP))
	r.Mux.Handle("POST /v1/users/{id}/hotp/reset", admin(h.HandleResetHOTP))

	// Token verification gets a strict limit: it accepts guesses at 2FA codes.
	r.Mux.Handle("POST /v1/users/{id}/token/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerifyToken),
			AuthnMiddleware(r.sessions),
			RequireAdmin(),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Self-service password change for any authenticated journalist.
	r.Mux.Handle("POST /v1/me/password",
		httpx.Chain(http.HandlerFunc(h.HandleSetOwnPassword),
			AuthnMiddleware(r.sessions),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
