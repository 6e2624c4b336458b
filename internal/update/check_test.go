package update

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsNewer_BasicOrdering(t *testing.T) {
	assert.True(t, isNewer("1.2.0", "1.1.0"))
	assert.False(t, isNewer("1.1.0", "1.2.0"))
	assert.False(t, isNewer("1.1.0", "1.1.0"))
}

func TestIsNewer_HandlesVPrefix(t *testing.T) {
	assert.True(t, isNewer("v2.0.0", "1.9.9"))
	assert.True(t, isNewer("v1.0.1", "v1.0.0"))
}

func TestIsNewer_MissingComponentsTreatedAsZero(t *testing.T) {
	assert.True(t, isNewer("1.1", "1.0.9"))
	assert.False(t, isNewer("1", "1.0.0"))
}

func TestIsNewer_EmptyOrEqualIsNotNewer(t *testing.T) {
	assert.False(t, isNewer("", "1.0.0"))
	assert.False(t, isNewer("1.0.0", ""))
}

func TestConfigFromEnv_DisabledByZero(t *testing.T) {
	t.Setenv("SEMANTIQ_UPDATE_CHECK", "0")
	cfg := ConfigFromEnv()
	assert.False(t, cfg.Enabled)
}

func TestConfigFromEnv_DisabledByFalse(t *testing.T) {
	t.Setenv("SEMANTIQ_UPDATE_CHECK", "false")
	cfg := ConfigFromEnv()
	assert.False(t, cfg.Enabled)
}

func TestConfigFromEnv_DefaultsEnabled(t *testing.T) {
	t.Setenv("SEMANTIQ_UPDATE_CHECK", "")
	cfg := ConfigFromEnv()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, defaultCacheHours, int(cfg.CacheDuration.Hours()))
}

func TestConfigFromEnv_CustomCacheHours(t *testing.T) {
	t.Setenv("SEMANTIQ_UPDATE_CACHE_HOURS", "6")
	cfg := ConfigFromEnv()
	assert.Equal(t, 6, int(cfg.CacheDuration.Hours()))
}

func TestCheckForUpdate_DisabledReturnsNil(t *testing.T) {
	info, err := CheckForUpdate(context.Background(), "1.0.0", Config{Enabled: false})
	assert.NoError(t, err)
	assert.Nil(t, info)
}

func TestDisableUpdateCheck_OverridesConfig(t *testing.T) {
	DisableUpdateCheck()
	defer disabled.Store(false)

	info, err := CheckForUpdate(context.Background(), "1.0.0", Config{Enabled: true, CacheDuration: defaultCacheHours * time.Hour, Timeout: defaultTimeout})
	assert.NoError(t, err)
	assert.Nil(t, info)
}
