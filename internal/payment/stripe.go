package payment

import (
	"context"
	"errors"
	"net/http"

	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"github.com/fjod/go_cart/checkout-gateway/pkg/circuitbreaker"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"
)

type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeProvider struct {
	sessions sessionCreator
	breaker  *gobreaker.CircuitBreaker[*stripe.CheckoutSession]
}

type StripeOptions struct {
	SecretKey string
	// BackendURL overrides the Stripe API host. Tests point it at httptest.
	BackendURL string
	HTTPClient *http.Client
	Breaker    circuitbreaker.Settings
	Logger     *zap.Logger
}

// NewStripeProvider builds a provider that never retries on its own:
// the SDK's network retries are switched off.
func NewStripeProvider(opts StripeOptions) *StripeProvider {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     log.Sugar(),
	}
	if opts.BackendURL != "" {
		cfg.URL = stripe.String(opts.BackendURL)
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}

	client := &session.Client{
		B:   stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Key: opts.SecretKey,
	}
	return newStripeProvider(client, opts.Breaker, log)
}

func newStripeProvider(sessions sessionCreator, breaker circuitbreaker.Settings, log *zap.Logger) *StripeProvider {
	if breaker.Name == "" {
		breaker.Name = "stripe-checkout"
	}
	if breaker.IsSuccessful == nil {
		breaker.IsSuccessful = isProviderHealthy
	}
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		}
	}
	return &StripeProvider{
		sessions: sessions,
		breaker:  circuitbreaker.New[*stripe.CheckoutSession](breaker),
	}
}

func (p *StripeProvider) CreateSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutSession, error) {
	params := toSessionParams(request)
	params.Context = ctx

	sess, err := p.breaker.Execute(func() (*stripe.CheckoutSession, error) {
		return p.sessions.New(params)
	})
	if err != nil {
		return nil, &d.UpstreamError{Op: "stripe checkout session", Err: err}
	}
	if sess == nil || sess.URL == "" {
		return nil, &d.UpstreamError{Op: "stripe checkout session", Err: errors.New("session has no url")}
	}
	return &d.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func toSessionParams(request *d.CheckoutRequest) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(request.LineItems))
	for _, li := range request.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.ProductName),
		}
		if len(li.ProductImages) > 0 {
			product.Images = stripe.StringSlice(li.ProductImages)
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(li.Quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(li.Currency),
				UnitAmount:  stripe.Int64(li.UnitAmount),
				ProductData: product,
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(request.Mode),
		LineItems:  lineItems,
		SuccessURL: stripe.String(request.SuccessURL),
		CancelURL:  stripe.String(request.CancelURL),
	}
	if request.IdempotencyKey != "" {
		params.SetIdempotencyKey(request.IdempotencyKey)
	}
	return params
}

// isProviderHealthy keeps caller-caused failures (4xx, cancelled requests)
// from tripping the breaker.
func isProviderHealthy(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode > 0 && stripeErr.HTTPStatusCode < http.StatusInternalServerError &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests
	}
	return false
}

