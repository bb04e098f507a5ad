package httpserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/http/handlers"
	"github.com/iago/civic-issues-back/internal/http/middleware"
)

type RouterDependencies struct {
	API            *handlers.API
	Resolver       auth.Resolver
	Logger         *log.Logger
	CORSOrigins    []string
	CORSMaxAge     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(deps RouterDependencies) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", "resource not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	router.HandleFunc("/healthz", deps.API.Health).Methods(http.MethodGet)

	requireAuth := middleware.Auth(deps.Resolver, deps.Logger)
	analytics := map[string]http.HandlerFunc{
		"/overview":     deps.API.Overview,
		"/departments":  deps.API.Departments,
		"/mandal-areas": deps.API.MandalAreas,
		"/trends":       deps.API.Trends,
		"/performance":  deps.API.Performance,
		"/dashboard":    deps.API.Dashboard,
	}
	// Registered on the root router: a subrouter loses the method mismatch
	// of earlier routes and answers 404 instead of 405.
	for path, handler := range analytics {
		router.Handle("/api/analytics"+path, requireAuth(handler)).Methods(http.MethodGet)
	}

	handler := http.Handler(router)
	handler = middleware.RateLimit(deps.RateLimitRPS, deps.RateLimitBurst)(handler)
	handler = middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: deps.CORSOrigins,
		MaxAge:         deps.CORSMaxAge,
	})(handler)
	handler = middleware.Trace(deps.Logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
