package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/fjod/go_cart/checkout-gateway/internal/cache"
	d "github.com/fjod/go_cart/checkout-gateway/internal/domain"
	"go.uber.org/zap"
)

func (s *CheckoutServiceImpl) CreateCheckoutSession(ctx context.Context, cart *d.Cart, idempotencyKey string) (*d.CheckoutSession, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, d.ErrEmptyCart
	}

	lineItems, err := BuildLineItems(cart.Items, s.opts.PublicBaseURL)
	if err != nil {
		return nil, err
	}

	request := &d.CheckoutRequest{
		LineItems:      lineItems,
		Mode:           d.ModePayment,
		SuccessURL:     s.opts.SuccessURL,
		CancelURL:      s.opts.CancelURL,
		IdempotencyKey: idempotencyKey,
	}

	if idempotencyKey == "" {
		return s.createSession(ctx, request)
	}

	// Flights are per key and request. Concurrent different carts under one
	// key both reach the provider, which rejects the reuse.
	fingerprint := requestFingerprint(request)
	v, err, shared := s.sfg.Do(idempotencyKey+"|"+fingerprint, func() (interface{}, error) {
		cached, err := s.cache.Get(ctx, idempotencyKey)
		switch {
		case err == nil && cached.Fingerprint == fingerprint:
			s.log.Info("replaying checkout session", zap.String("idempotency_key", idempotencyKey))
			return &d.CheckoutSession{URL: cached.URL}, nil
		case err == nil:
			return nil, d.ErrIdempotencyKeyReused
		case !errors.Is(err, cache.ErrCacheMiss):
			s.log.Warn("session cache get failed", zap.Error(err)) // keep going without the cache
		}

		session, err := s.createSession(ctx, request)
		if err != nil {
			return nil, err
		}

		entry := cache.Session{URL: session.URL, Fingerprint: fingerprint}
		if errSet := s.cache.Set(ctx, idempotencyKey, entry); errSet != nil {
			s.log.Warn("session cache set failed", zap.Error(errSet))
		}
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("checkout session shared between concurrent requests", zap.String("idempotency_key", idempotencyKey))
	}
	return v.(*d.CheckoutSession), nil
}

func (s *CheckoutServiceImpl) createSession(ctx context.Context, request *d.CheckoutRequest) (*d.CheckoutSession, error) {
	if s.opts.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ProviderTimeout)
		defer cancel()
	}

	session, err := s.provider.CreateSession(ctx, request)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.Join(d.ErrProviderTimeout, err)
		}
		var upstream *d.UpstreamError
		if !errors.As(err, &upstream) {
			err = &d.UpstreamError{Op: "create checkout session", Err: err}
		}
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.String("session_id", session.ID),
		zap.Int("line_items", len(request.LineItems)))
	return session, nil
}

// requestFingerprint identifies what a checkout request buys, so a replay can
// be told apart from a key reused for another cart.
func requestFingerprint(request *d.CheckoutRequest) string {
	data, _ := json.Marshal(struct {
		LineItems  []d.LineItem
		Mode       string
		SuccessURL string
		CancelURL  string
	}{request.LineItems, request.Mode, request.SuccessURL, request.CancelURL})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
