package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setAuthEnv(t *testing.T) {
	t.Setenv("AUTH_PROVIDER_URL", "https://project.supabase.co")
	t.Setenv("AUTH_JWT_SECRET", "super-secret")
}

func TestLoad_MissingAuthConfigFailsFast(t *testing.T) {
	t.Setenv("AUTH_PROVIDER_URL", "")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAuthConfig)
}

func TestLoad_MissingJWTSecretFailsFast(t *testing.T) {
	t.Setenv("AUTH_PROVIDER_URL", "https://project.supabase.co")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAuthConfig)
}

func TestLoad_SiteURLPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		siteURL   string
		deployURL string
		want      string
	}{
		{"explicit setting wins", "https://stackfinder.io", "https://preview.example.dev", "https://stackfinder.io"},
		{"platform deploy URL second", "", "https://preview.example.dev", "https://preview.example.dev"},
		{"local fallback last", "", "", "http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setAuthEnv(t)
			t.Setenv("SITE_URL", tt.siteURL)
			t.Setenv("DEPLOY_URL", tt.deployURL)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Site.BaseURL)
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	setAuthEnv(t)
	t.Setenv("SITE_URL", "")
	t.Setenv("DEPLOY_URL", "")
	t.Setenv("ADMIN_APP_URL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDRESS", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.Site.AdminURL)
	assert.Equal(t, "stackfinder.sqlite", cfg.Database.URL)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}
