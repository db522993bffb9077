package service

import (
	"context"
	"time"

	"github.com/fjod/go_cart/checkout-gateway/internal/cache"
	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type CheckoutService interface {
	CreateCheckoutSession(ctx context.Context, cart *d.Cart, idempotencyKey string) (*d.CheckoutSession, error)
}

// SessionProvider creates hosted checkout sessions at the payment provider.
type SessionProvider interface {
	CreateSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutSession, error)
}

type Options struct {
	PublicBaseURL   string
	SuccessURL      string
	CancelURL       string
	ProviderTimeout time.Duration
}

type CheckoutServiceImpl struct {
	provider SessionProvider
	cache    cache.SessionCache
	opts     Options
	log      *zap.Logger
	sfg      singleflight.Group // collapses concurrent requests sharing an idempotency key
}

// NewCheckoutService wires the service. A nil cache disables idempotent replays.
func NewCheckoutService(provider SessionProvider, sessionCache cache.SessionCache, opts Options, log *zap.Logger) *CheckoutServiceImpl {
	if sessionCache == nil {
		sessionCache = cache.NopCache{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckoutServiceImpl{
		provider: provider,
		cache:    sessionCache,
		opts:     opts,
		log:      log,
	}
}
