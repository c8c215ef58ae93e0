package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"kvStore": map[string]any{
			"opTimeout": "2s",
			"bucketUrl": "mem://",
		},
		"commerce": map[string]any{
			"consumerSecret": "",
			"breaker": map[string]any{
				"consecutiveFailures": 5,
			},
		},
		"secretKey": map[string]any{
			"identity": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "KVSTORE_OPTIMEOUT", want: "kvStore.opTimeout"},
		{envKey: "KVSTORE_BUCKETURL", want: "kvStore.bucketUrl"},
		{envKey: "COMMERCE_CONSUMERSECRET", want: "commerce.consumerSecret"},
		{envKey: "COMMERCE_BREAKER_CONSECUTIVEFAILURES", want: "commerce.breaker.consecutiveFailures"},
		{envKey: "SECRETKEY_IDENTITY", want: "secretKey.identity"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestApplyDefaults_FillsMissingSections(t *testing.T) {
	cfg := &Config{}

	applyDefaults(cfg)

	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, KVDriverMemory, cfg.KVStore.Driver)
	assert.Equal(t, defaultKVOpTimeout, cfg.KVStore.OpTimeout)
	assert.Equal(t, 12*time.Second, cfg.Commerce.Timeout)
	assert.Equal(t, "IN", cfg.Checkout.FallbackCountry)
	assert.Equal(t, 500*time.Millisecond, cfg.Coupon.Debounce)
	assert.Equal(t, defaultSessionCookie, cfg.Session.CookieName)
	assert.Equal(t, defaultSessionIdleTTL, cfg.Session.IdleTTL)
	assert.Equal(t, defaultAwaitingPaymentTTL, cfg.Session.AwaitingPaymentTTL)
}

func TestApplyDefaults_KeepsConfiguredValues(t *testing.T) {
	cfg := &Config{
		KVStore:  &KVStoreConfig{Driver: KVDriverRedis, OpTimeout: time.Second},
		Commerce: &CommerceConfig{Timeout: 15 * time.Second},
		Checkout: &CheckoutConfig{FallbackCountry: "US"},
	}

	applyDefaults(cfg)

	assert.Equal(t, KVDriverRedis, cfg.KVStore.Driver)
	assert.Equal(t, time.Second, cfg.KVStore.OpTimeout)
	assert.Equal(t, 15*time.Second, cfg.Commerce.Timeout)
	assert.Equal(t, "US", cfg.Checkout.FallbackCountry)
}
