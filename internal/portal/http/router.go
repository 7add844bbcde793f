// Package http is the portal shell: the local HTTP surface the UI talks to.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portal/internal/portal/events"
	"github.com/aussiebroadwan/portal/internal/portal/logout"
	"github.com/aussiebroadwan/portal/internal/portal/resilience"
	"github.com/aussiebroadwan/portal/internal/portal/session"
	"github.com/aussiebroadwan/portal/internal/portal/store"
	"github.com/aussiebroadwan/portal/pkg/httpx"
	"github.com/aussiebroadwan/portal/pkg/portalsdk"
	"github.com/aussiebroadwan/portal/pkg/slogx"

	_ "github.com/aussiebroadwan/portal/api/portal" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	Session *session.Controller
	Logout  *logout.Coordinator
	Layer   *resilience.Layer
	API     *portalsdk.Client
	Bus     *events.Bus
	Store   store.Store
	Metrics http.Handler
}

func NewRouter(buildVersion string, logger *slog.Logger) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerAPI()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.WrapHandler)
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Employee Self-Service Portal Shell API
//	@version		0.1.0
//	@description	Local surface of the portal shell. It owns the session lifecycle (sign in, inactivity warning, extension, logout) and forwards employee API calls through a resilience layer.
//
//	@contact.name	AussieBroadWAN Team
//
//	@BasePath		/
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	h := &SessionHandler{Session: r.Session, Logout: r.Logout}

	// Login attempts are limited per client address
	r.Mux.Handle("POST /session/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitMiddleware(httpx.LoginLimit, httpx.IPKeyExtractor),
		),
	)
	r.Mux.HandleFunc("POST /session/logout", h.HandleLogout)
	r.Mux.HandleFunc("POST /session/extend", h.HandleExtend)
	r.Mux.HandleFunc("POST /session/activity", h.HandleActivity)
	r.Mux.HandleFunc("POST /session/visibility", h.HandleVisibility)
	r.Mux.HandleFunc("GET /session/status", h.HandleStatus)

	if r.Bus != nil {
		r.Mux.Handle("GET /session/events", &EventsHandler{Bus: r.Bus})
	}
}

func (r *Router) registerAPI() {
	r.Mux.Handle("/api/{path...}", &ProxyHandler{Layer: r.Layer, API: r.API})
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.Store, r.Layer))
	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics)
	}
}
