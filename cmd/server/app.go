package main

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/diewo77/invoice-admin/internal/auth"
	"github.com/diewo77/invoice-admin/internal/config"
	"github.com/diewo77/invoice-admin/internal/gate"
	"github.com/diewo77/invoice-admin/internal/handlers"
	"github.com/diewo77/invoice-admin/internal/httpx"
	"github.com/diewo77/invoice-admin/internal/i18n"
	"github.com/diewo77/invoice-admin/internal/invoices"
	"github.com/diewo77/invoice-admin/internal/middleware"
	"github.com/diewo77/invoice-admin/internal/numbering"
	"github.com/diewo77/invoice-admin/internal/policy"
)

// App is the main application handler that sets up all routes.
type App struct {
	mux     *http.ServeMux
	handler http.Handler
	db      *gorm.DB
}

// NewApp wires the allocator, repository, workflow and handlers and
// configures all routes.
func NewApp(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *App {
	app := &App{mux: http.NewServeMux(), db: db}

	g := gate.NewGate[uint]()
	ownership := policy.NewOwnershipPolicy()
	g.Register("invoice", ownership)
	g.Register("client", ownership)

	allocator := numbering.NewAllocator(db, cfg.Numbering)
	repo := invoices.NewRepository(db)
	workflow := invoices.NewWorkflow(allocator, repo, log.Logger)

	ah := handlers.NewAuthHandler(db)
	ih := handlers.NewInvoiceHandler(repo, workflow, g)
	ch := handlers.NewClientHandler(db, g)

	// Double-submit protection for invoice creation; no-op without redis.
	idem := func(h http.Handler) http.Handler { return h }
	if rdb != nil {
		idem = middleware.Idempotency(rdb, time.Duration(cfg.Redis.IdempotencyTTL)*time.Second)
	}

	// Public routes
	app.mux.HandleFunc("POST /signup", ah.Signup)
	app.mux.HandleFunc("POST /login", ah.Login)
	app.mux.HandleFunc("POST /logout", ah.Logout)

	// Invoices
	app.mux.Handle("POST /invoices", app.requireAuth(idem(http.HandlerFunc(ih.Create))))
	app.mux.Handle("GET /invoices", app.requireAuth(http.HandlerFunc(ih.List)))
	app.mux.Handle("GET /invoices/{number}", app.requireAuth(http.HandlerFunc(ih.Get)))
	app.mux.Handle("POST /invoices/{number}/status", app.requireAuth(idem(http.HandlerFunc(ih.UpdateStatus))))
	app.mux.Handle("POST /invoices/{number}/delete", app.requireAuth(idem(http.HandlerFunc(ih.Delete))))

	// Clients
	app.mux.Handle("GET /clients", app.requireAuth(http.HandlerFunc(ch.List)))
	app.mux.Handle("POST /clients", app.requireAuth(http.HandlerFunc(ch.Create)))
	app.mux.Handle("GET /clients/{id}", app.requireAuth(http.HandlerFunc(ch.Get)))

	app.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	app.handler = middleware.RequestLogger(auth.Middleware(withLanguage(app.mux)))
	return app
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

// requireAuth wraps a handler to require a valid session.
func (a *App) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok || userID == 0 {
			lang := i18n.Lang(r.Context())
			httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withLanguage stores the negotiated response language in the context.
func withLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}
