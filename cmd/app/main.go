package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dxtobi/xplus/pkg/campaigns"
	"github.com/Dxtobi/xplus/pkg/config"
	"github.com/Dxtobi/xplus/pkg/engagements"
	"github.com/Dxtobi/xplus/pkg/gateway"
	"github.com/Dxtobi/xplus/pkg/geoip"
	"github.com/Dxtobi/xplus/pkg/handlers"
	wshandlers "github.com/Dxtobi/xplus/pkg/handlers/websockets"
	"github.com/Dxtobi/xplus/pkg/middleware"
	"github.com/Dxtobi/xplus/pkg/payments"
	"github.com/Dxtobi/xplus/pkg/payouts"
	"github.com/Dxtobi/xplus/pkg/ratelimit"
	"github.com/Dxtobi/xplus/pkg/review"
	"github.com/Dxtobi/xplus/pkg/scheduler"
	"github.com/Dxtobi/xplus/pkg/storage"
	dydbstore "github.com/Dxtobi/xplus/pkg/storage/dynamodb"
	"github.com/Dxtobi/xplus/pkg/storage/sqlstore"
	"github.com/Dxtobi/xplus/pkg/users"
	"github.com/Dxtobi/xplus/pkg/websockets"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

const submissionWindow = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var sqsClient *sqs.Client
	var store storage.Storage
	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return err
		}
		store = dydbstore.New(dynamodb.NewFromConfig(awsCfg), dydbstore.TableNames(cfg.Tables))
		if cfg.SQSQueueURL != "" {
			sqsClient = sqs.NewFromConfig(awsCfg)
		}
	default:
		sqlStore, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.DatabaseDSN, 10)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		if err := sqlStore.Migrate(ctx); err != nil {
			return err
		}
		store = sqlStore
	}

	httpClient := &http.Client{Timeout: cfg.GatewayTimeout}
	gw := gateway.NewPaystack(cfg.PaystackBaseURL, cfg.PaystackSecretKey, httpClient)

	var limiter ratelimit.Limiter
	if cfg.SubmissionRateLimit > 0 {
		if cfg.RedisAddr != "" {
			client, err := ratelimit.Connect(cfg.RedisAddr)
			if err != nil {
				return err
			}
			defer client.Close()
			limiter = ratelimit.NewRedisLimiter(client, "xplus:submissions", cfg.SubmissionRateLimit, submissionWindow)
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.SubmissionRateLimit, submissionWindow)
		}
	}

	hub := websockets.NewHub()
	notifier := websockets.NewBalanceNotifier(store, hub, logger)

	reviewer := review.NewService(store, notifier, logger)
	payoutSvc := payouts.NewService(store, gw, reviewer, notifier, logger, cfg.GatewayTimeout)
	opts := []payments.Option{
		payments.WithNotifier(notifier),
		payments.WithCallbackURL(cfg.PublicBaseURL),
	}
	if sqsClient != nil {
		opts = append(opts, payments.WithScheduler(scheduler.NewSQSScheduler(sqsClient, cfg.SQSQueueURL)))
	}
	userSvc := users.NewService(store)

	h := handlers.NewApiHandler(handlers.Dependencies{
		Campaigns:   campaigns.NewService(store, logger),
		Engagements: engagements.NewService(store, geoip.NewIPAPI(cfg.GeoIPBaseURL, &http.Client{Timeout: 2 * time.Second}), logger),
		Reviewer:    reviewer,
		Payments:    payments.NewService(store, gw, payoutSvc, logger, opts...),
		Payouts:     payoutSvc,
		Users:       userSvc,
		Limiter:     limiter,
		Logger:      logger,
	})

	verifier, err := middleware.NewVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}
	router := handlers.NewRouter(h,
		middleware.Authenticator(verifier, userSvc, logger),
		wshandlers.NewLocalHandler(hub, logger),
		logger,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.HTTPPort, "store", cfg.StoreDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
