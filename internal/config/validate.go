package config

import (
	"fmt"
	"strings"
)

// Runners accepted in the runner setting.
var knownRunners = map[string]bool{"postman": true, "newman": true}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a resolved configuration for errors and returns warnings
// for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	runner := strings.ToLower(strings.TrimSpace(cfg.Runner))
	if !knownRunners[runner] {
		return nil, &ValidationError{
			Field:   "runner",
			Message: fmt.Sprintf(`must be "postman" or "newman", got %q`, cfg.Runner),
		}
	}
	cfg.Runner = runner

	if cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535 {
		return nil, &ValidationError{Field: "smtp.port", Message: "must be between 1 and 65535"}
	}

	if runner == "postman" && cfg.PostmanAPIKey == "" {
		warnings = append(warnings, "POSTMAN_API_KEY is not set; relying on an existing postman login")
	}
	return warnings, nil
}

// ValidateMail reports the first missing setting required to send the report.
func ValidateMail(cfg *Config) error {
	required := []struct {
		field string
		value string
	}{
		{"smtp.host (SMTP_HOST)", cfg.SMTP.Host},
		{"smtp.user (SMTP_USER)", cfg.SMTP.User},
		{"smtp.password (SMTP_PASS)", cfg.SMTP.Password},
		{"mail.from (MAIL_FROM)", cfg.Mail.From},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required to send the report"}
		}
	}
	if len(cfg.Mail.Recipients) == 0 {
		return &ValidationError{Field: "mail.recipients (MAIL_RECIPIENTS)", Message: "no recipients configured"}
	}
	return nil
}
