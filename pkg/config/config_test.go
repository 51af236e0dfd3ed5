package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	for _, k := range []string{"MAILTM_LOGLEVEL", "MAILTM_API_BASEURL", "MAILTM_API_TIMEOUT",
		"MAILTM_ACCOUNT_ADDRESS", "MAILTM_ACCOUNT_PASSWORD", "MAILTM_ACCOUNT_TOKEN"} {
		// Setenv restores the original value on cleanup.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	conf, err := Process()
	require.NoError(t, err)
	assert.Equal(t, "WARN", conf.LogLevel)
	assert.Equal(t, "https://api.mail.tm", conf.API.BaseURL)
	assert.Equal(t, 30*time.Second, conf.API.Timeout)
	assert.False(t, conf.Account.HasCredentials())
}

func TestProcessEnvironment(t *testing.T) {
	t.Setenv("MAILTM_LOGLEVEL", "debug")
	t.Setenv("MAILTM_API_BASEURL", "http://localhost:8080")
	t.Setenv("MAILTM_API_TIMEOUT", "5s")
	t.Setenv("MAILTM_ACCOUNT_ADDRESS", "nick@example.org")
	t.Setenv("MAILTM_ACCOUNT_PASSWORD", "secret")
	t.Setenv("MAILTM_ACCOUNT_TOKEN", "")
	require.NoError(t, os.Unsetenv("MAILTM_ACCOUNT_TOKEN"))

	conf, err := Process()
	require.NoError(t, err)
	assert.Equal(t, "debug", conf.LogLevel)
	assert.Equal(t, "http://localhost:8080", conf.API.BaseURL)
	assert.Equal(t, 5*time.Second, conf.API.Timeout)
	assert.Equal(t, "nick@example.org", conf.Account.Address)
	assert.True(t, conf.Account.HasCredentials())
}

func TestProcessInvalidDuration(t *testing.T) {
	t.Setenv("MAILTM_API_TIMEOUT", "soon")

	_, err := Process()
	assert.Error(t, err)
}

func TestAccountHasCredentials(t *testing.T) {
	tests := []struct {
		name string
		acct Account
		want bool
	}{
		{"empty", Account{}, false},
		{"token", Account{Token: "jwt"}, true},
		{"address only", Account{Address: "a@b.org"}, false},
		{"address and password", Account{Address: "a@b.org", Password: "pw"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.acct.HasCredentials())
		})
	}
}
