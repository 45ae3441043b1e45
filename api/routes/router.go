package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/netbill/isp-billing/api/controllers"
	"github.com/netbill/isp-billing/api/middleware"
	"github.com/netbill/isp-billing/internal/auth"
	"github.com/netbill/isp-billing/internal/customers"
	"github.com/netbill/isp-billing/internal/expenses"
	"github.com/netbill/isp-billing/internal/invoices"
	"github.com/netbill/isp-billing/internal/packages"
	"github.com/netbill/isp-billing/internal/reports"
	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/pkg/auth/session"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Auth      auth.Service
	Customers customers.Service
	Packages  packages.Service
	Expenses  expenses.Service
	Invoices  invoices.Service
	Settings  settings.Service
	Reports   reports.Service
}

// Probes are pinged by the readiness endpoint.
type Probes struct {
	DB      controllers.Pinger
	Redis   controllers.Pinger
	Storage controllers.Pinger
}

func (p Probes) named() map[string]controllers.Pinger {
	deps := map[string]controllers.Pinger{}
	if p.DB != nil {
		deps["db"] = p.DB
	}
	if p.Redis != nil {
		deps["redis"] = p.Redis
	}
	if p.Storage != nil {
		deps["storage"] = p.Storage
	}
	return deps
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	probes Probes,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	sessions session.AccessSessionChecker,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, probes.named(), logg))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		login := controllers.AuthLogin(svc.Auth, logg)
		if redisClient != nil {
			r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", login)
		} else {
			r.Post("/login", login)
		}
		r.Post("/refresh", controllers.AuthRefresh(svc.Auth, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(svc.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))

		r.Get("/me", controllers.AuthMe())
		r.Get("/dashboard", controllers.Dashboard(svc.Reports, logg))

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", controllers.CustomerList(svc.Customers, logg))
			r.Post("/", controllers.CustomerCreate(svc.Customers, logg))
			r.Get("/{id}", controllers.CustomerGet(svc.Customers, logg))
			r.Put("/{id}", controllers.CustomerUpdate(svc.Customers, logg))
			r.Delete("/{id}", controllers.CustomerDelete(svc.Customers, logg))
		})

		r.Route("/packages", func(r chi.Router) {
			r.Get("/", controllers.PackageList(svc.Packages, logg))
			r.Post("/", controllers.PackageCreate(svc.Packages, logg))
			r.Get("/{id}", controllers.PackageGet(svc.Packages, logg))
			r.Put("/{id}", controllers.PackageUpdate(svc.Packages, logg))
			r.Delete("/{id}", controllers.PackageDelete(svc.Packages, logg))
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", controllers.ExpenseList(svc.Expenses, logg))
			r.Post("/", controllers.ExpenseCreate(svc.Expenses, logg))
			r.Get("/{id}", controllers.ExpenseGet(svc.Expenses, logg))
			r.Put("/{id}", controllers.ExpenseUpdate(svc.Expenses, logg))
			r.Delete("/{id}", controllers.ExpenseDelete(svc.Expenses, logg))
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", controllers.InvoiceList(svc.Invoices, logg))
			r.Post("/generate", controllers.InvoiceGenerate(svc.Invoices, logg))
			r.Get("/{id}", controllers.InvoiceGet(svc.Invoices, logg))
			r.Post("/{id}/pay", controllers.InvoicePay(svc.Invoices, cfg.Storage.MaxUploadBytes(), logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.SettingsGet(svc.Settings, logg))
			r.Put("/", controllers.SettingsUpdate(svc.Settings, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", controllers.ReportGet(svc.Reports, logg))
			r.Get("/export", controllers.ReportExport(svc.Reports, logg))
			r.Get("/summary", controllers.FinancialSummary(svc.Reports, logg))
		})
	})

	return r
}
