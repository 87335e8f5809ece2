package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/velora-app/velora/internal/middleware"
	"github.com/velora-app/velora/internal/quiz"
	"github.com/velora-app/velora/internal/services"
)

// Router owns the HTTP surface: the public funnel endpoints, the checkout,
// and the staff dashboard. Everything persists through a single Store.
type Router struct {
	flow      *quiz.Controller
	catalog   *quiz.Catalog
	auth      *services.AdminAuthService
	settings  *services.SettingsService
	checkout  *services.CheckoutService
	analytics *services.AnalyticsService
	mailer    *services.Mailer
	tracking  *services.TrackingService
}

type RouterConfig struct {
	Store      Store
	Catalog    *quiz.Catalog
	PricingURL string
	Payments   services.PaymentClient
	Mailer     *services.Mailer
	Tracking   *services.TrackingService
}

func NewRouter(cfg RouterConfig) *Router {
	settings := services.NewSettingsService(newSettingsStoreAdapter(cfg.Store))
	questionOrder := make([]string, 0, cfg.Catalog.Len())
	for _, q := range cfg.Catalog.Questions() {
		questionOrder = append(questionOrder, q.ID)
	}
	return &Router{
		flow:      quiz.NewController(cfg.Catalog, newFunnelStoreAdapter(cfg.Store), cfg.PricingURL),
		catalog:   cfg.Catalog,
		auth:      services.NewAdminAuthService(newAdminStoreAdapter(cfg.Store), middleware.SignToken),
		settings:  settings,
		checkout:  services.NewCheckoutService(newOrderStoreAdapter(cfg.Store), cfg.Payments, settings),
		analytics: services.NewAnalyticsService(newAnalyticsStoreAdapter(cfg.Store), questionOrder),
		mailer:    cfg.Mailer,
		tracking:  cfg.Tracking,
	}
}

// Flow exposes the controller for the idle-session pruner.
func (rt *Router) Flow() *quiz.Controller { return rt.flow }

// Auth exposes the auth service for the first-boot admin seed.
func (rt *Router) Auth() *services.AdminAuthService { return rt.auth }

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/questions", rt.handleQuestions)                          // GET
	mux.HandleFunc("/api/flow/session", rt.handleOpenSession)                     // POST
	mux.HandleFunc("/api/flow/resume", rt.handleResume)                           // POST
	mux.HandleFunc("/api/flow/state", rt.handleState)                             // GET
	mux.HandleFunc("/api/flow/advance", rt.handleAdvance)                         // POST
	mux.HandleFunc("/api/flow/retreat", rt.handleRetreat)                         // POST
	mux.HandleFunc("/api/flow/interstitial/complete", rt.handleInterstitialDone)  // POST
	mux.HandleFunc("/api/flow/analysis/answer", rt.handleAnalysisAnswer)          // POST
	mux.HandleFunc("/api/flow/summary", rt.handleSummary)                         // GET
	mux.HandleFunc("/api/plans", rt.handlePlans)                                  // GET
	mux.HandleFunc("/api/checkout", rt.handleCheckout)                            // POST
	mux.HandleFunc("/api/checkout/complete", rt.handleCheckoutComplete)           // POST
	mux.HandleFunc("/api/admin/login", rt.handleAdminLogin)                       // POST
	mux.Handle("/api/admin/dashboard", middleware.RequireAuth(http.HandlerFunc(rt.handleAdminDashboard)))
	mux.Handle("/api/admin/export", middleware.RequireAuth(http.HandlerFunc(rt.handleAdminExport)))
	mux.Handle("/api/admin/settings", middleware.RequireAuth(http.HandlerFunc(rt.handleAdminSettings)))
}

// sessionIDFrom prefers the explicit value, then the X-Session-Id header.
func sessionIDFrom(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return strings.TrimSpace(r.Header.Get("X-Session-Id"))
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
