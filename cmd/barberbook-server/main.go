package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"barberbook/backend/internal/auth"
	"barberbook/backend/internal/calendly"
	"barberbook/backend/internal/config"
	"barberbook/backend/internal/service/appointments"
	"barberbook/backend/internal/service/catalog"
	"barberbook/backend/internal/service/integration"
	"barberbook/backend/internal/service/reconcile"
	"barberbook/backend/internal/service/tokens"
	"barberbook/backend/internal/service/users"
	"barberbook/backend/internal/store/postgres"
	grpcTransport "barberbook/backend/internal/transport/grpc"
	"barberbook/backend/internal/transport/httpapi"
	"barberbook/backend/internal/webhook"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).With(
		slog.String("service", "barberbook-server"),
	)
	slog.SetDefault(log)

	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)})).With(
		slog.String("service", "barberbook-server"),
	)
	slog.SetDefault(log)

	log.Info(
		"starting",
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("grpc_addr", cfg.GRPCAddr()),
		slog.String("log_level", cfg.LogLevel),
		slog.Duration("webhook_tolerance", cfg.WebhookTolerance),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("connecting to database", databaseLogArgs(cfg.DatabaseURL)...)
	db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		args := append([]any{slog.Any("err", err)}, databaseLogArgs(cfg.DatabaseURL)...)
		log.Error("database connection failed", args...)
		os.Exit(1)
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", slog.Any("err", err))
		}
	}()

	userRepo := postgres.NewUserRepo(db)
	serviceRepo := postgres.NewServiceRepo(db)
	appointmentRepo := postgres.NewAppointmentRepo(db)

	providerHTTP := &http.Client{Timeout: 15 * time.Second}
	oauth := calendly.NewOAuthExchanger(
		calendly.NewOAuthConfig(cfg.CalendlyClientID, cfg.CalendlyClientSecret, cfg.CalendlyRedirectURL, cfg.CalendlyAuthBaseURL),
		providerHTTP,
	)
	provider := calendly.NewClient(cfg.CalendlyAPIBaseURL, providerHTTP)
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL)

	tokenManager := tokens.NewManager(userRepo, oauth, log)
	apptSvc := appointments.NewService(appointmentRepo, tokenManager, provider, log)
	integrationSvc := integration.NewService(oauth, issuer, tokenManager, provider, integration.Config{WebhookURL: cfg.WebhookURL, SigningKey: cfg.WebhookSigningKey}, log)

	limiter := httpapi.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go limiter.Run(ctx)
	webhookLimiter := httpapi.NewRateLimiter(cfg.WebhookRateLimitRPS, cfg.WebhookRateLimitBurst)
	go webhookLimiter.Run(ctx)

	api := httpapi.NewServer(httpapi.Deps{
		Tokens:       issuer,
		Users:        users.NewService(userRepo, issuer, log),
		Catalog:      catalog.NewService(serviceRepo, userRepo, log),
		Appointments: apptSvc,
		Integration:  integrationSvc,
		Verifier:     webhook.Verifier{Secret: []byte(cfg.WebhookSigningKey), Tolerance: cfg.WebhookTolerance},
		Reconciler:   reconcile.NewReconciler(serviceRepo, userRepo, appointmentRepo, log),
		Health:       postgres.Pinger{DB: db},
		Limiter:      limiter,

		WebhookLimiter: webhookLimiter,
	}, httpapi.Config{
		RequestTimeout:    cfg.RequestTimeout,
		ConnectSuccessURL: cfg.ConnectSuccessURL,
		ConnectErrorURL:   cfg.ConnectErrorURL,
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			defaultRequestTimeoutInterceptor(cfg.RequestTimeout),
			grpcTransport.AuthInterceptor(issuer),
		),
	)
	grpcTransport.RegisterIntegrationServiceServer(grpcServer, grpcTransport.NewIntegrationServer(integrationSvc, apptSvc, log))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	go grpcTransport.WatchHealth(ctx, healthServer, postgres.Pinger{DB: db}, 15*time.Second, log)

	lis, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		log.Error("grpc listen failed", slog.Any("err", err), slog.String("grpc_addr", cfg.GRPCAddr()))
		os.Exit(1)
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- grpcServer.Serve(lis)
	}()
	go func() {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Info("servers started", slog.String("http_addr", cfg.HTTPAddr), slog.String("grpc_addr", cfg.GRPCAddr()))

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			log.Error("server stopped with error", slog.Any("err", err))
			shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
			os.Exit(1)
		}
	}
	shutdown(log, httpServer, grpcServer, cfg.ShutdownTimeout)
}

func defaultRequestTimeoutInterceptor(timeout time.Duration) grpc.UnaryServerInterceptor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		return handler(ctx, req)
	}
}

func shutdown(log *slog.Logger, hs *http.Server, gs *grpc.Server, timeout time.Duration) {
	log.Info("shutting down servers", slog.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := hs.Shutdown(ctx); err != nil {
		log.Warn("http graceful shutdown failed; closing", slog.Any("err", err))
		_ = hs.Close()
	}

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("servers stopped")
	case <-ctx.Done():
		log.Warn("grpc graceful shutdown timed out; forcing stop")
		gs.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func databaseLogArgs(databaseURL string) []any {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return []any{slog.String("db_url", "invalid")}
	}
	name := strings.TrimPrefix(u.Path, "/")
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "default"
	}
	if host == "" {
		host = "unknown"
	}
	if name == "" {
		name = "unknown"
	}
	return []any{
		slog.String("db_host", host),
		slog.String("db_port", port),
		slog.String("db_name", name),
	}
}
