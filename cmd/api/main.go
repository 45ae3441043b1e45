package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netbill/isp-billing/api/routes"
	"github.com/netbill/isp-billing/internal/auth"
	"github.com/netbill/isp-billing/internal/customers"
	"github.com/netbill/isp-billing/internal/expenses"
	"github.com/netbill/isp-billing/internal/invoices"
	"github.com/netbill/isp-billing/internal/packages"
	"github.com/netbill/isp-billing/internal/reports"
	"github.com/netbill/isp-billing/internal/settings"
	"github.com/netbill/isp-billing/internal/users"
	"github.com/netbill/isp-billing/pkg/auth/session"
	"github.com/netbill/isp-billing/pkg/config"
	"github.com/netbill/isp-billing/pkg/db"
	"github.com/netbill/isp-billing/pkg/env"
	"github.com/netbill/isp-billing/pkg/instance"
	"github.com/netbill/isp-billing/pkg/logger"
	"github.com/netbill/isp-billing/pkg/metrics"
	"github.com/netbill/isp-billing/pkg/migrate"
	"github.com/netbill/isp-billing/pkg/redis"
	"github.com/netbill/isp-billing/pkg/storage/local"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if loaded, err := env.LoadFiles(); err != nil {
		logg.Error(context.Background(), "failed to read dotenv file", err)
		os.Exit(1)
	} else if len(loaded) == 0 {
		logg.Debug(context.Background(), "no dotenv file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	store, err := local.New(cfg.Storage.UploadRoot)
	if err != nil {
		logg.Error(context.Background(), "failed to prepare upload storage", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	billingMetrics := metrics.NewBillingMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	services, err := buildServices(cfg, logg, dbClient, redisClient, store, sessionManager, billingMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create services", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"db_driver":   cfg.DB.Driver,
		"upload_root": store.Root(),
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			routes.Probes{DB: dbClient, Redis: redisClient, Storage: store},
			redisClient,
			registry,
			sessionManager,
			services,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			exitCode = 1
		}
		cancel()
	}

	if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing resources", err)
		exitCode = 1
	}
	os.Exit(exitCode)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	store *local.Store,
	sessionManager *session.Manager,
	billingMetrics *metrics.BillingMetrics,
) (routes.Services, error) {
	conn := dbClient.DB()

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       users.NewRepository(conn),
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	customerService, err := customers.NewService(customers.ServiceParams{
		Repo:   customers.NewRepository(conn),
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	packageService, err := packages.NewService(packages.ServiceParams{
		Repo:   packages.NewRepository(conn),
		Tx:     dbClient,
		Logger: logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	expenseService, err := expenses.NewService(expenses.NewRepository(conn), nil)
	if err != nil {
		return routes.Services{}, err
	}

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:    invoices.NewRepository(conn),
		Store:   store,
		Locker:  invoices.NewRedisPeriodLocker(redisClient, cfg.Billing.GenerationLockTTL),
		Metrics: billingMetrics,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	settingsService, err := settings.NewService(settings.NewRepository(conn))
	if err != nil {
		return routes.Services{}, err
	}

	reportService, err := reports.NewService(reports.ServiceParams{
		Repo:          reports.NewRepository(conn),
		Settings:      settingsService,
		SummaryMonths: cfg.Billing.SummaryMonthWindow,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:      authService,
		Customers: customerService,
		Packages:  packageService,
		Expenses:  expenseService,
		Invoices:  invoiceService,
		Settings:  settingsService,
		Reports:   reportService,
	}, nil
}
