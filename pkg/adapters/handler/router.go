package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-linkbio/pkg/config"
	"github.com/wadjakorntonsri/go-linkbio/pkg/ports"
)

// Services is everything the router dispatches to.
type Services struct {
	Linktrees ports.LinktreeService
	ABTests   ports.ABTestService
	Analytics ports.AnalyticsService
	Resolver  ports.ResolverService
	Users     ports.UserService
	Health    ports.HealthChecker
	Backend   string
	// Limiter guards the anonymous write endpoints. Nil disables it.
	Limiter ports.RateLimiter
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services) http.Handler {
	lh := NewLinktreeHandler(svc.Linktrees)
	th := NewABTestHandler(svc.ABTests, cfg.RequestTimeout())
	ah := NewAnalyticsHandler(svc.Analytics, cfg.AnalyticsTimeout())
	ph := NewPublicHandler(svc.Resolver)
	uh := NewUserHandler(svc.Users)
	hh := NewHealthHandler(svc.Health, svc.Backend)
	authHandler := NewAuthHandler(cfg, svc.Users)

	mw := NewMiddleware(cfg, svc.Limiter)
	reqTimeout := mw.Timeout(cfg.RequestTimeout())
	analyticsTimeout := mw.Timeout(cfg.AnalyticsTimeout())

	owner := func(h http.HandlerFunc) http.Handler {
		return reqTimeout(mw.AuthMiddleware(h))
	}
	ownerAnalytics := func(h http.HandlerFunc) http.Handler {
		return analyticsTimeout(mw.AuthMiddleware(h))
	}
	public := func(h http.HandlerFunc) http.Handler {
		return reqTimeout(mw.OptionalAuth(h))
	}
	telemetry := func(h http.HandlerFunc) http.Handler {
		return mw.RateLimit(h)
	}

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", hh.Liveness)
	mux.HandleFunc("GET /api/health", hh.Readiness)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /auth/{provider}/login", authHandler.Login)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.Callback)
	mux.HandleFunc("GET /auth/logout", authHandler.Logout)

	mux.Handle("GET /api/public/linktrees/{slug}", public(ph.GetLinktree))
	mux.Handle("GET /api/ab-test-links/{linkId}", public(th.ActiveForLink))
	mux.Handle("POST /api/ab-test-metrics/{testId}", telemetry(th.RecordMetric))
	mux.Handle("POST /api/public/analytics", telemetry(ah.Track))
	mux.Handle("POST /api/analytics", telemetry(ah.Track))

	// Linktree Directory
	mux.Handle("GET /api/linktrees", owner(lh.List))
	mux.Handle("POST /api/linktrees", owner(lh.Create))
	mux.Handle("GET /api/linktrees/{slug}", owner(lh.Get))
	mux.Handle("PATCH /api/linktrees/{slug}", owner(lh.Update))
	mux.Handle("DELETE /api/linktrees/{slug}", owner(lh.Delete))
	mux.Handle("POST /api/linktrees/{slug}/links", owner(lh.AddLink))
	mux.Handle("PUT /api/linktrees/{slug}/links/reorder", owner(lh.ReorderLinks))
	mux.Handle("PATCH /api/linktrees/{slug}/links/{linkId}", owner(lh.UpdateLink))
	mux.Handle("DELETE /api/linktrees/{slug}/links/{linkId}", owner(lh.DeleteLink))

	// A/B tests
	mux.Handle("GET /api/ab-tests", owner(th.List))
	mux.Handle("POST /api/ab-tests", owner(th.Create))
	mux.Handle("PATCH /api/ab-tests/{testId}", owner(th.UpdateStatus))
	mux.Handle("GET /api/ab-test-metrics/{testId}", owner(th.Metrics))

	// Analytics
	mux.Handle("GET /api/analytics", ownerAnalytics(ah.List))
	mux.Handle("GET /api/analytics/report", ownerAnalytics(ah.Report))
	mux.Handle("GET /api/analytics/summary", ownerAnalytics(ah.Summary))

	// Profile
	mux.Handle("GET /api/user/profile", owner(uh.GetProfile))
	mux.Handle("PUT /api/user/profile", owner(uh.UpdateProfile))

	return Recoverer(RequestLogger(mux))
}
