package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gym-membership-backend/internal/config"
	"gym-membership-backend/internal/domain/ports/adapter"
	"gym-membership-backend/internal/domain/ports/repository"
	"gym-membership-backend/internal/infra/adapters/payment"
	pg "gym-membership-backend/internal/infra/db/postgres"
	"gym-membership-backend/internal/infra/logging"
	"gym-membership-backend/internal/infra/metrics"
	red "gym-membership-backend/internal/infra/redis"
	"gym-membership-backend/internal/infra/sched"
	"gym-membership-backend/internal/infra/web"
	"gym-membership-backend/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	dev := flag.Bool("dev", false, "development mode: console logs, no real gateway calls")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, *dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, int32(cfg.Database.PoolSize))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	var rc red.RedisClient
	if cfg.Redis.URL != "" {
		rc, err = red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect redis")
		}
		defer rc.Close()
	} else {
		logger.Warn().Msg("redis not configured: catalog cache and webhook replay guard disabled")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	var typeRepo repository.MembershipTypeRepository = pg.NewMembershipTypeRepo(pool)
	if rc != nil {
		typeRepo = pg.NewTypeRepoCacheDecorator(typeRepo, rc, cfg.Redis.TTL)
	}
	membershipRepo := pg.NewMembershipRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	attendanceRepo := pg.NewAttendanceRepo(pool)
	userRepo := pg.NewUserRepo(pool)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	if cfg.Runtime.Dev {
		gateway = payment.NewNoopGateway()
		logger.Warn().Msg("dev mode: using no-op payment gateway")
	} else {
		gateway, err = payment.NewKhaltiGateway(cfg.Payment.Khalti)
		if err != nil {
			logger.Fatal().Err(err).Msg("init khalti gateway")
		}
	}

	// ---- Use cases ----
	typeUC := usecase.NewMembershipTypeUseCase(typeRepo, logger)
	membershipUC := usecase.NewMembershipUseCase(membershipRepo, typeRepo, userRepo, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, membershipRepo, typeRepo, userRepo, gateway, tm, logger)
	attendanceUC := usecase.NewAttendanceUseCase(attendanceRepo, userRepo, logger)

	// ---- HTTP server ----
	auth := web.NewAuthManager(cfg.AdminAuth.JWTSecret, cfg.AdminAuth.SecureCookie, cfg.AdminAuth.CookieDomain, cfg.AdminAuth.SessionTTL)
	srv := web.NewServer(typeUC, membershipUC, paymentUC, attendanceUC, auth, web.Options{
		APIKey:        cfg.Server.AdminAPIKey,
		SuccessURL:    cfg.Server.SuccessURL,
		WebhookSecret: cfg.Payment.Khalti.WebhookSecret,
		Redis:         rc,
	}, logger)

	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	}()

	// ---- Background reconciliation ----
	reconciler := sched.NewPaymentReconciler(paymentUC, paymentRepo, membershipRepo, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	logger.Info().Msg("bye")
}
