package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/roamwyth")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "app.events", cfg.EventsExchange)
	require.Equal(t, 587, cfg.SMTP.Port)
	require.False(t, cfg.SMTP.Configured())
	require.Empty(t, cfg.LLMAPIKey)
}

func TestLoadMissingRequired(t *testing.T) {
	// t.Setenv restores the previous values once the test ends.
	t.Setenv("DB_DSN", "unused")
	t.Setenv("JWT_SECRET", "unused")
	require.NoError(t, os.Unsetenv("DB_DSN"))
	require.NoError(t, os.Unsetenv("JWT_SECRET"))

	_, err := Load()
	require.Error(t, err)
}
