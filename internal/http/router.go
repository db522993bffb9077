package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	ServiceName        string
	Checkout           *CheckoutHandler
	StaticRoot         string
	MaxRequestBodySize int64
	Logger             *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	bodyLimit := cfg.MaxRequestBodySize
	if bodyLimit <= 0 {
		bodyLimit = 1 << 20 // 1MB
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.With(MaxBodySize(bodyLimit)).
		Post("/create-checkout-session", cfg.Checkout.CreateCheckoutSession)

	static := StaticHandler(cfg.StaticRoot)
	r.With(middleware.Compress(5)).Get("/*", static.ServeHTTP)
	r.With(middleware.Compress(5)).Head("/*", static.ServeHTTP)

	return otelhttp.NewHandler(r, cfg.ServiceName)
}
