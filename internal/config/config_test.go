package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every known variable; empty values are treated as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(strings.ToUpper(k), "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4242, cfg.Port)
	assert.Equal(t, ":4242", cfg.Addr())
	assert.Equal(t, "sk_test_123", cfg.StripeSecretKey)
	assert.Equal(t, "", cfg.PublicBaseURL)
	assert.Equal(t, "https://example.com/valentine/", cfg.SuccessURL)
	assert.Equal(t, "https://example.com/valentine/cart.html", cfg.CancelURL)
	assert.Equal(t, ".", cfg.StaticRoot)
	assert.Equal(t, int64(1<<20), cfg.MaxRequestBodySize)
	assert.Equal(t, 30*time.Second, cfg.ProviderTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Empty(t, cfg.RedisAddr)
}

func TestLoad_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STRIPE_SECRET_KEY")
}

func TestLoad_RedirectsDerivedFromBaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.test")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://shop.test/valentine/", cfg.SuccessURL)
	assert.Equal(t, "https://shop.test/valentine/cart.html", cfg.CancelURL)
}

func TestLoad_ExplicitRedirectsWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")
	t.Setenv("PUBLIC_BASE_URL", "https://shop.test")
	t.Setenv("CHECKOUT_SUCCESS_URL", "https://other.test/thanks")
	t.Setenv("CHECKOUT_CANCEL_URL", "https://other.test/cart")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://other.test/thanks", cfg.SuccessURL)
	assert.Equal(t, "https://other.test/cart", cfg.CancelURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "gateway.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
stripe_secret_key = "sk_from_file"
port = 5000
public_base_url = "https://file.test"
provider_timeout = "5s"
`), 0o600))
	t.Setenv("PORT", "6000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_from_file", cfg.StripeSecretKey)
	assert.Equal(t, 6000, cfg.Port)
	assert.Equal(t, "https://file.test", cfg.PublicBaseURL)
	assert.Equal(t, 5*time.Second, cfg.ProviderTimeout)
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_123")

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "99999")
	t.Setenv("CHECKOUT_SUCCESS_URL", "/relative")

	_, err := Load("")
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "STRIPE_SECRET_KEY")
	assert.Contains(t, msg, "invalid port 99999")
	assert.Contains(t, msg, "success URL is not absolute")
}
