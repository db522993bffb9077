// Package config resolves the gateway's configuration once at startup.
// Sources are layered: defaults, an optional TOML file, then environment
// variables. Empty environment variables count as unset.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	fallbackSuccessURL = "https://example.com/valentine/"
	fallbackCancelURL  = "https://example.com/valentine/cart.html"
)

// Config is immutable after Load; pass it by value.
type Config struct {
	AppEnv   string
	LogLevel string
	Port     int

	StripeSecretKey string
	PublicBaseURL   string
	SuccessURL      string
	CancelURL       string
	ProviderTimeout time.Duration

	StaticRoot         string
	MaxRequestBodySize int64
	ShutdownTimeout    time.Duration

	RedisAddr     string
	RedisPassword string
	SentryDSN     string
}

var defaults = map[string]interface{}{
	"app_env":          "dev",
	"log_level":        "info",
	"port":             4242,
	"static_root":      ".",
	"provider_timeout": "30s",
	"shutdown_timeout": "10s",
}

// keys lists every setting; the environment variable is the upper-cased key.
var keys = []string{
	"app_env", "log_level", "port",
	"stripe_secret_key", "public_base_url", "checkout_success_url", "checkout_cancel_url",
	"provider_timeout", "static_root", "shutdown_timeout",
	"redis_addr", "redis_password", "sentry_dsn",
}

// Load builds the configuration. configFile may be empty.
func Load(configFile string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), toml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error loading config file %s: %w", configFile, err)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if value == "" || !known(key) {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("error loading environment: %w", err)
	}

	return build(k)
}

func known(key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}

func build(k *koanf.Koanf) (Config, error) {
	cfg := Config{
		AppEnv:             k.String("app_env"),
		LogLevel:           k.String("log_level"),
		Port:               k.Int("port"),
		StripeSecretKey:    strings.TrimSpace(k.String("stripe_secret_key")),
		PublicBaseURL:      k.String("public_base_url"),
		SuccessURL:         k.String("checkout_success_url"),
		CancelURL:          k.String("checkout_cancel_url"),
		ProviderTimeout:    k.Duration("provider_timeout"),
		StaticRoot:         k.String("static_root"),
		MaxRequestBodySize: 1 << 20, // 1MB
		ShutdownTimeout:    k.Duration("shutdown_timeout"),
		RedisAddr:          k.String("redis_addr"),
		RedisPassword:      k.String("redis_password"),
		SentryDSN:          k.String("sentry_dsn"),
	}

	if cfg.SuccessURL == "" {
		cfg.SuccessURL = fallbackSuccessURL
		if cfg.PublicBaseURL != "" {
			cfg.SuccessURL = cfg.PublicBaseURL + "/valentine/"
		}
	}
	if cfg.CancelURL == "" {
		cfg.CancelURL = fallbackCancelURL
		if cfg.PublicBaseURL != "" {
			cfg.CancelURL = cfg.PublicBaseURL + "/valentine/cart.html"
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var result *multierror.Error

	if c.StripeSecretKey == "" {
		result = multierror.Append(result, fmt.Errorf("missing STRIPE_SECRET_KEY environment variable"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("invalid port %d", c.Port))
	}
	if !isAbsoluteURL(c.SuccessURL) {
		result = multierror.Append(result, fmt.Errorf("success URL is not absolute: %q", c.SuccessURL))
	}
	if !isAbsoluteURL(c.CancelURL) {
		result = multierror.Append(result, fmt.Errorf("cancel URL is not absolute: %q", c.CancelURL))
	}
	if c.ProviderTimeout < 0 {
		result = multierror.Append(result, fmt.Errorf("invalid provider timeout %s", c.ProviderTimeout))
	}

	return result.ErrorOrNil()
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
