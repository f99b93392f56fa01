package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()

	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestParse_Full(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
collections_root: suites
logs_dir: out
runner: newman
postman_api_key: PMAK-123
smtp:
  host: smtp.example.com
  port: 587
  use_tls: true
  user: bot@example.com
  password: secret
mail:
  from: qa@example.com
  subject: Nightly
  recipients: [dev@example.com, ops@example.com]
`))
	require.NoError(t, err)

	assert.Equal(t, "suites", cfg.CollectionsRoot)
	assert.Equal(t, "out", cfg.LogsDir)
	assert.Equal(t, "newman", cfg.Runner)
	assert.Equal(t, "PMAK-123", cfg.PostmanAPIKey)
	assert.Equal(t, SMTPConfig{Host: "smtp.example.com", Port: 587, UseTLS: true, User: "bot@example.com", Password: "secret"}, cfg.SMTP)
	assert.Equal(t, []string{"dev@example.com", "ops@example.com"}, cfg.Mail.Recipients)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"malformed yaml", "runner: [unterminated"},
		{"unknown field", "collection_root: typo\n"},
		{"unknown runner", "runner: jest\n"},
		{"port out of range", "smtp:\n  port: 70000\n"},
		{"top-level list", "- a\n- b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestResolve_DefaultsOnly(t *testing.T) {
	t.Parallel()

	cfg, warnings, err := Resolve(Options{Environ: []string{}})
	require.NoError(t, err)

	assert.Equal(t, DefaultCollectionsRoot, cfg.CollectionsRoot)
	assert.Equal(t, DefaultLogsDir, cfg.LogsDir)
	assert.Equal(t, DefaultRunner, cfg.Runner)
	assert.Equal(t, DefaultSMTPPort, cfg.SMTP.Port)
	assert.False(t, cfg.SMTP.UseTLS)
	assert.Equal(t, DefaultMailSubject, cfg.Mail.Subject)
	assert.Empty(t, cfg.Mail.Recipients)
	assert.Len(t, warnings, 1)
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, dir, "automatest.yaml", `
runner: newman
smtp:
  host: file.example.com
  use_tls: true
mail:
  recipients: [file@example.com]
`)

	cfg, _, err := Resolve(Options{
		ConfigPath: path,
		Environ: []string{
			"SMTP_HOST=env.example.com",
			"SMTP_USE_TLS=no",
			"SMTP_USER=bot@example.com",
			"MAIL_RECIPIENTS= a@example.com , ,b@example.com ",
			"UNRELATED=1",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "newman", cfg.Runner)
	assert.Equal(t, "env.example.com", cfg.SMTP.Host)
	assert.False(t, cfg.SMTP.UseTLS)
	assert.Equal(t, "bot@example.com", cfg.Mail.From, "from falls back to SMTP user")
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Mail.Recipients)
}

func TestResolve_ExplicitConfigMustExist(t *testing.T) {
	t.Parallel()

	_, _, err := Resolve(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml"), Environ: []string{}})
	assert.Error(t, err)
}

func TestResolve_InvalidRunnerFromEnv(t *testing.T) {
	t.Parallel()

	_, _, err := Resolve(Options{Environ: []string{"RUNNER=jest"}})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "runner", ve.Field)
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "SMTP_HOST=dotenv.example.com\nSMTP_USER=dotenv-user\n")

	t.Setenv("SMTP_USER", "shell-user")
	t.Setenv("SMTP_HOST", "placeholder")
	require.NoError(t, os.Unsetenv("SMTP_HOST"))

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "dotenv.example.com", os.Getenv("SMTP_HOST"))
	assert.Equal(t, "shell-user", os.Getenv("SMTP_USER"))
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	t.Parallel()

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	assert.NoError(t, LoadDotEnv(""))
}
