package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/netbill/isp-billing/internal/cron"
	"github.com/netbill/isp-billing/internal/invoices"
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
)

const metricsAddrEnv = "NETBILL_CRON_METRICS_ADDR"

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	var only jobNames
	flag.Var(&only, "job", "job to run with -once (repeatable, default all)")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

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
		ServiceName: "cron-worker",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	if !cfg.Billing.AutoGenerate && !*once {
		logg.Info(context.Background(), "automatic invoice generation disabled, exiting")
		return
	}

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
	cronMetrics := metrics.NewCronJobMetrics(registry)
	billingMetrics := metrics.NewBillingMetrics(registry)

	invoiceService, err := invoices.NewService(invoices.ServiceParams{
		Repo:    invoices.NewRepository(dbClient.DB()),
		Store:   store,
		Locker:  invoices.NewRedisPeriodLocker(redisClient, cfg.Billing.GenerationLockTTL),
		Metrics: billingMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice service", err)
		os.Exit(1)
	}

	invoiceJob, err := cron.NewInvoiceJob(cron.InvoiceJobParams{
		Logger:        logg,
		Generator:     invoiceService,
		CatchUpMonths: cfg.Billing.CatchUpMonths,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoice job", err)
		os.Exit(1)
	}

	lock, err := redis.NewLock(redisClient, redisClient.LockKey("cron", cfg.App.Env), cfg.Billing.GenerationLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	jobs, err := cron.NewRegistry(invoiceJob)
	if err != nil {
		logg.Error(context.Background(), "failed to register cron jobs", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Lock:     lock,
		Metrics:  cronMetrics,
		Interval: cfg.Billing.CronInterval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Billing.CronInterval.String(),
		"instance": instance.ID(),
	})

	exitCode := 0
	var metricsServer *http.Server
	if *once {
		failed, err := service.RunOnce(ctx, only...)
		switch {
		case err != nil:
			logg.Error(ctx, "single cycle failed", err)
			exitCode = 1
		case failed > 0:
			logg.Warn(logg.WithField(ctx, "failed_jobs", failed), "single cycle finished with failures")
			exitCode = 1
		}
	} else {
		metricsServer = startMetricsServer(ctx, logg, registry)
		logg.Info(ctx, "starting cron worker")
		if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "cron worker stopped unexpectedly", err)
			exitCode = 1
		}
	}

	var shutdownErr error
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		shutdownErr = metricsServer.Shutdown(shutdownCtx)
		cancel()
	}
	if err := multierr.Combine(shutdownErr, redisClient.Close(), dbClient.Close()); err != nil {
		logg.Error(ctx, "error closing resources", err)
		exitCode = 1
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
	os.Exit(exitCode)
}

// jobNames collects repeated -job flags.
type jobNames []string

func (j *jobNames) String() string { return strings.Join(*j, ",") }

func (j *jobNames) Set(v string) error {
	*j = append(*j, v)
	return nil
}

// startMetricsServer exposes the job metrics when NETBILL_CRON_METRICS_ADDR is set.
func startMetricsServer(ctx context.Context, logg *logger.Logger, registry *prometheus.Registry) *http.Server {
	addr := os.Getenv(metricsAddrEnv)
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "metrics server stopped", err)
		}
	}()
	return server
}
