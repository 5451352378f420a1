package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/washbay/washbay-api/internal/config"
	"github.com/washbay/washbay-api/internal/handler"
	billingHandler "github.com/washbay/washbay-api/internal/handler/billing"
	catalogHandler "github.com/washbay/washbay-api/internal/handler/catalog"
	customerHandler "github.com/washbay/washbay-api/internal/handler/customer"
	jobHandler "github.com/washbay/washbay-api/internal/handler/job"
	loyaltyHandler "github.com/washbay/washbay-api/internal/handler/loyalty"
	qcHandler "github.com/washbay/washbay-api/internal/handler/qc"
	visitHandler "github.com/washbay/washbay-api/internal/handler/visit"
	"github.com/washbay/washbay-api/internal/middleware"
	"github.com/washbay/washbay-api/internal/repository/postgres"
	"github.com/washbay/washbay-api/internal/router"
	"github.com/washbay/washbay-api/internal/service/billing"
	"github.com/washbay/washbay-api/internal/service/catalog"
	"github.com/washbay/washbay-api/internal/service/customer"
	"github.com/washbay/washbay-api/internal/service/job"
	"github.com/washbay/washbay-api/internal/service/loyalty"
	"github.com/washbay/washbay-api/internal/service/pricing"
	"github.com/washbay/washbay-api/internal/service/qc"
	"github.com/washbay/washbay-api/internal/service/visit"
	"github.com/washbay/washbay-api/pkg/auth"
	"github.com/washbay/washbay-api/pkg/logger"
	"github.com/washbay/washbay-api/pkg/metrics"
	"github.com/washbay/washbay-api/pkg/validator"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(&logger.Config{
		Level:  cfg.Logger.Level,
		Pretty: cfg.Logger.Pretty,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	base := postgres.NewBaseRepository(db)
	tenantRepo := postgres.NewTenantRepository(base)
	customerRepo := postgres.NewCustomerRepository(base)
	catalogRepo := postgres.NewCatalogRepository(base)
	jobRepo := postgres.NewJobRepository(base)
	qcRepo := postgres.NewQCRepository(base)
	visitRepo := postgres.NewVisitRepository(base)
	billingRepo := postgres.NewBillingRepository(base)
	loyaltyRepo := postgres.NewLoyaltyRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	pricingSvc := pricing.NewService(catalogRepo)
	catalogSvc := catalog.NewService(catalogRepo)
	customerSvc := customer.NewService(customerRepo)
	jobSvc := job.NewService(jobRepo, customerRepo, pricingSvc)
	qcSvc := qc.NewService(qcRepo, jobRepo)
	visitSvc := visit.NewService(visitRepo, customerRepo, pricingSvc)
	loyaltySvc := loyalty.NewService(loyaltyRepo)
	billingSvc := billing.NewService(billingRepo, jobRepo, outboxRepo, loyaltySvc)

	m := metrics.New("washbay")
	v := validator.New()
	baseHandler := handler.NewBaseHandler(v)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authMw := middleware.NewAuthMiddleware(jwtManager)
	tenantMw := middleware.NewTenantMiddleware(tenantRepo, middleware.DefaultTenantConfig())

	timeoutCfg := middleware.DefaultTimeoutConfig()
	if cfg.Server.TimeoutSeconds > 0 {
		timeoutCfg.Duration = time.Duration(cfg.Server.TimeoutSeconds) * time.Second
	}

	r := router.New(
		router.Config{
			CORS:    middleware.DefaultCORSConfig(),
			Timeout: timeoutCfg,
			RateLimiter: middleware.RateLimiterConfig{
				Rate:  rate.Limit(cfg.RateLimit.Rate),
				Burst: cfg.RateLimit.Burst,
			},
		},
		authMw,
		tenantMw,
		m,
		handler.NewHandler(),
		customerHandler.NewHandler(baseHandler, customerSvc),
		catalogHandler.NewHandler(baseHandler, catalogSvc, pricingSvc),
		jobHandler.NewHandler(baseHandler, jobSvc),
		qcHandler.NewHandler(baseHandler, qcSvc),
		visitHandler.NewHandler(baseHandler, visitSvc),
		billingHandler.NewHandler(baseHandler, billingSvc),
		loyaltyHandler.NewHandler(baseHandler, loyaltySvc),
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err, "server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "forced shutdown")
	}
	log.Info("server stopped")
}
