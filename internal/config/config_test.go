package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("HOST", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "")
	t.Setenv("FRONTEND_URL_2", "")
	t.Setenv("PORT", "")

	cfg := Load()

	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.AllowedHost) // host check disabled outside production
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
}

func TestLoadProductionHostCheck(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("HOST", "https://api.alignalternativetherapy.com:443/some/path")

	cfg := Load()

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "api.alignalternativetherapy.com", cfg.AllowedHost)
}

func TestLoadAllowedOrigins(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://www.alignalternativetherapy.com, http://localhost:3000 ,")

	cfg := Load()

	assert.Equal(t, []string{
		"https://www.alignalternativetherapy.com",
		"http://localhost:3000",
	}, cfg.AllowedOrigins)
}

func TestLoadOriginsFallBackToFrontendURLs(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "https://www.alignalternativetherapy.com")
	t.Setenv("FRONTEND_URL_2", "http://localhost:3000")

	cfg := Load()

	assert.Equal(t, []string{
		"https://www.alignalternativetherapy.com",
		"http://localhost:3000",
	}, cfg.AllowedOrigins)
}
