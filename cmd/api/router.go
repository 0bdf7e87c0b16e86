package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/noah-isme/wholesale-pricing/internal/catalog"
	"github.com/noah-isme/wholesale-pricing/internal/common"
	"github.com/noah-isme/wholesale-pricing/internal/draftorder"
	"github.com/noah-isme/wholesale-pricing/internal/health"
	"github.com/noah-isme/wholesale-pricing/internal/obs"
	"github.com/noah-isme/wholesale-pricing/internal/ratelimit"
	"github.com/noah-isme/wholesale-pricing/internal/security"
	"github.com/noah-isme/wholesale-pricing/internal/wholesale"
)

type routerDeps struct {
	Logger      zerolog.Logger
	HTTPMetrics *obs.HTTPMetrics
	Metrics     http.Handler
	Tracing     bool
	Pprof       http.Handler
	CORSOrigins []string
	BodyLimit   int64
	Limiter     ratelimit.Limiter
	Idem        common.Idem
	Health      health.Handler
	Catalog     *catalog.Handler
	Wholesale   *wholesale.Handler
	Drafts      *draftorder.Handler
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: true}.Middleware)
	r.Use(security.CORS(d.CORSOrigins))

	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics)
	}
	if d.Pprof != nil {
		r.Mount("/debug/pprof", d.Pprof)
	}
	r.Get("/health/live", d.Health.Live)
	r.Get("/health/ready", d.Health.Ready)
	r.Get("/test-connection", d.Wholesale.TestConnection)

	limit := ratelimit.Handler{
		Limiter: d.Limiter,
		OnError: func(err error) { d.Logger.Warn().Err(err).Msg("rate_limit_store_failed") },
	}
	r.Route("/api", func(api chi.Router) {
		api.Use(limit.Middleware)
		api.Use(security.BodyLimit{Max: d.BodyLimit}.Middleware)

		api.Post("/wholesale-prices", d.Wholesale.WholesalePrices)
		api.Post("/cart-details", d.Wholesale.CartDetails)
		if d.Catalog != nil {
			api.Get("/catalog", d.Catalog.List)
			api.Get("/catalog/lookup", d.Catalog.Lookup)
		}
		if d.Drafts != nil {
			api.Route("/draft-orders", func(dr chi.Router) {
				dr.Use(d.Idem.Middleware)
				d.Drafts.Routes(dr)
			})
		}
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "route not found", nil)
	})
	return r
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
