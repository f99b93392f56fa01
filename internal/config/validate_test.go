package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{
		PostmanAPIKey: "PMAK-1",
		SMTP:          SMTPConfig{Host: "smtp.example.com", User: "bot@example.com", Password: "pw"},
		Mail:          MailConfig{Recipients: []string{"dev@example.com"}},
	}
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(*Config) {}, ""},
		{"runner case-insensitive", func(c *Config) { c.Runner = " Newman " }, ""},
		{"unknown runner", func(c *Config) { c.Runner = "jest" }, "runner"},
		{"port zero", func(c *Config) { c.SMTP.Port = 0 }, "smtp.port"},
		{"port too large", func(c *Config) { c.SMTP.Port = 65536 }, "smtp.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			_, err := Validate(cfg)
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}

func TestValidate_NormalizesRunner(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Runner = "NEWMAN"
	_, err := Validate(cfg)
	require.NoError(t, err)
	assert.Equal(t, "newman", cfg.Runner)
}

func TestValidate_WarnsWithoutAPIKey(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.PostmanAPIKey = ""
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "POSTMAN_API_KEY")

	cfg.Runner = "newman"
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidateMail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"complete", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.SMTP.Host = "" }, "smtp.host (SMTP_HOST)"},
		{"missing user", func(c *Config) { c.SMTP.User = "" }, "smtp.user (SMTP_USER)"},
		{"missing password", func(c *Config) { c.SMTP.Password = " " }, "smtp.password (SMTP_PASS)"},
		{"missing from", func(c *Config) { c.Mail.From = "" }, "mail.from (MAIL_FROM)"},
		{"no recipients", func(c *Config) { c.Mail.Recipients = nil }, "mail.recipients (MAIL_RECIPIENTS)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateMail(cfg)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.wantField, ve.Field)
		})
	}
}
