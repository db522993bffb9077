package cache

import (
	"context"
	"errors"
)

// Session is what an idempotency key remembers: the hosted checkout URL and
// a fingerprint of the request that produced it.
type Session struct {
	URL         string
	Fingerprint string
}

// SessionCache remembers which hosted checkout session was issued for an
// idempotency key.
type SessionCache interface {
	Get(ctx context.Context, idempotencyKey string) (Session, error)
	Set(ctx context.Context, idempotencyKey string, session Session) error
}

var ErrCacheMiss = errors.New("cache miss")

// NopCache never stores anything. Used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string) (Session, error) {
	return Session{}, ErrCacheMiss
}

func (NopCache) Set(context.Context, string, Session) error {
	return nil
}
