package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/checkout-gateway/internal/cache"
	"github.com/fjod/go_cart/checkout-gateway/internal/config"
	h "github.com/fjod/go_cart/checkout-gateway/internal/http"
	"github.com/fjod/go_cart/checkout-gateway/internal/payment"
	"github.com/fjod/go_cart/checkout-gateway/internal/service"
	"github.com/fjod/go_cart/checkout-gateway/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const serviceName = "checkout-gateway"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "Creates hosted Stripe checkout sessions and serves the storefront",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Optional TOML config file; environment variables take precedence",
				EnvVars: []string{"CONFIG_FILE"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Options{
		Service:   serviceName,
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		SentryDSN: cfg.SentryDSN,
	})
	if err != nil {
		return err
	}
	defer logger.Sync(log)
	zap.ReplaceGlobals(log)

	sessionCache, closeCache, err := setupCache(c.Context, cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	provider := payment.NewStripeProvider(payment.StripeOptions{
		SecretKey: cfg.StripeSecretKey,
		Logger:    log.Named("stripe"),
	})

	checkoutService := service.NewCheckoutService(provider, sessionCache, service.Options{
		PublicBaseURL:   cfg.PublicBaseURL,
		SuccessURL:      cfg.SuccessURL,
		CancelURL:       cfg.CancelURL,
		ProviderTimeout: cfg.ProviderTimeout,
	}, log.Named("checkout"))

	router := h.NewRouter(h.RouterConfig{
		ServiceName:        serviceName,
		Checkout:           h.NewCheckoutHandler(checkoutService, log.Named("http")),
		StaticRoot:         cfg.StaticRoot,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Logger:             log.Named("access"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Leave room for the provider call.
		WriteTimeout: cfg.ProviderTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Checkout server running", zap.String("url", fmt.Sprintf("http://localhost:%d", cfg.Port)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error("server error", zap.Error(err))
			return err
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	log.Info("server exited")
	return nil
}

// setupCache connects to Redis when configured. Without Redis, idempotent
// replays are only honored by Stripe itself.
func setupCache(ctx context.Context, cfg config.Config, log *zap.Logger) (cache.SessionCache, func(), error) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("Redis ping succeeded", zap.String("addr", cfg.RedisAddr))

	return cache.NewRedisCache(redisClient), func() { redisClient.Close() }, nil
}
