package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEnv_Flags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"Y", true},
		{"0", false},
		{"false", false},
		{"no", false},
		{"maybe", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			cfg := &Config{SMTP: SMTPConfig{UseTLS: !tt.want}}
			require.NoError(t, ApplyEnv(cfg, []string{"SMTP_USE_TLS=" + tt.value}))
			assert.Equal(t, tt.want, cfg.SMTP.UseTLS)
		})
	}
}

func TestApplyEnv_Port(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.NoError(t, ApplyEnv(cfg, []string{"SMTP_PORT=587"}))
	assert.Equal(t, 587, cfg.SMTP.Port)

	err := ApplyEnv(&Config{}, []string{"SMTP_PORT=smtp"})
	assert.Error(t, err)
}

func TestApplyEnv_EmptyValuesAreUnset(t *testing.T) {
	t.Parallel()

	cfg := &Config{LogsDir: "from-file", Mail: MailConfig{Recipients: []string{"keep@example.com"}}}
	require.NoError(t, ApplyEnv(cfg, []string{"LOGS_DIR=", "MAIL_RECIPIENTS=  ", "NOEQUALS"}))

	assert.Equal(t, "from-file", cfg.LogsDir)
	assert.Equal(t, []string{"keep@example.com"}, cfg.Mail.Recipients)
}

func TestApplyEnv_AllStrings(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	require.NoError(t, ApplyEnv(cfg, []string{
		"COLLECTIONS_ROOT=/srv/collections",
		"LOGS_DIR=/var/log/automatest",
		"RUNNER=newman",
		"POSTMAN_API_KEY=PMAK-1",
		"SMTP_PASS=pw",
		"MAIL_FROM=qa@example.com",
		"MAIL_SUBJECT=Report",
		"MAIL_RECIPIENTS=one@example.com",
	}))

	assert.Equal(t, "/srv/collections", cfg.CollectionsRoot)
	assert.Equal(t, "/var/log/automatest", cfg.LogsDir)
	assert.Equal(t, "newman", cfg.Runner)
	assert.Equal(t, "PMAK-1", cfg.PostmanAPIKey)
	assert.Equal(t, "pw", cfg.SMTP.Password)
	assert.Equal(t, "qa@example.com", cfg.Mail.From)
	assert.Equal(t, "Report", cfg.Mail.Subject)
	assert.Equal(t, []string{"one@example.com"}, cfg.Mail.Recipients)
}

func TestEnvKeys(t *testing.T) {
	t.Parallel()

	assert.Contains(t, EnvKeys, "SMTP_PASS")
	assert.Contains(t, EnvKeys, "MAIL_RECIPIENTS")
	assert.Len(t, EnvKeys, 12)
}
