package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1500*time.Millisecond, cfg.SubmitLatency)
	assert.Equal(t, 30*time.Minute, cfg.ScreenTTL)
	assert.Equal(t, 10000, cfg.MaxScreens)
	assert.Equal(t, "/dashboard", cfg.DashboardPath)
	assert.Equal(t, devSessionSecret, cfg.SessionSecret)
	assert.False(t, cfg.SecureCookies())
}

func TestNewConfig_Overrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("SUBMIT_LATENCY", "250ms")
	t.Setenv("SCREEN_TTL", "5m")
	t.Setenv("BASE_URL", "https://hypes.in")
	t.Setenv("LOG_LEVEL", "info")

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 250*time.Millisecond, cfg.SubmitLatency)
	assert.Equal(t, 5*time.Minute, cfg.ScreenTTL)
	assert.True(t, cfg.SecureCookies())
	assert.False(t, cfg.IsDevelopment())
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"production without secret", map[string]string{"ENV": "production", "SESSION_SECRET": ""}},
		{"production with short secret", map[string]string{"ENV": "production", "SESSION_SECRET": "short"}},
		{"zero latency", map[string]string{"SUBMIT_LATENCY": "0s"}},
		{"unparseable latency", map[string]string{"SUBMIT_LATENCY": "soon"}},
		{"tiny ttl", map[string]string{"SCREEN_TTL": "10ms"}},
		{"zero screen capacity", map[string]string{"MAX_SCREENS": "0"}},
		{"relative dashboard path", map[string]string{"DASHBOARD_PATH": "dashboard"}},
		{"unknown log level", map[string]string{"LOG_LEVEL": "verbose"}},
		{"port out of range", map[string]string{"PORT": "70000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ENV", "development")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := NewConfig()
			if err == nil {
				t.Errorf("NewConfig() expected error for %v", tt.env)
			}
		})
	}
}
