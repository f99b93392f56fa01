package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// envOverlay mirrors the environment variables that override file settings.
// Nil fields were not set.
type envOverlay struct {
	CollectionsRoot *string  `mapstructure:"COLLECTIONS_ROOT"`
	LogsDir         *string  `mapstructure:"LOGS_DIR"`
	Runner          *string  `mapstructure:"RUNNER"`
	PostmanAPIKey   *string  `mapstructure:"POSTMAN_API_KEY"`
	SMTPHost        *string  `mapstructure:"SMTP_HOST"`
	SMTPPort        *int     `mapstructure:"SMTP_PORT"`
	SMTPUseTLS      *bool    `mapstructure:"SMTP_USE_TLS"`
	SMTPUser        *string  `mapstructure:"SMTP_USER"`
	SMTPPass        *string  `mapstructure:"SMTP_PASS"`
	MailFrom        *string  `mapstructure:"MAIL_FROM"`
	MailSubject     *string  `mapstructure:"MAIL_SUBJECT"`
	MailRecipients  []string `mapstructure:"MAIL_RECIPIENTS"`
}

// EnvKeys lists the recognized environment variables.
var EnvKeys = envKeys()

func envKeys() []string {
	t := reflect.TypeOf(envOverlay{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, t.Field(i).Tag.Get("mapstructure"))
	}
	return keys
}

// ApplyEnv overlays recognized variables from environ (KEY=VALUE pairs)
// onto cfg. Empty values are treated as unset.
func ApplyEnv(cfg *Config, environ []string) error {
	known := make(map[string]bool, len(EnvKeys))
	for _, k := range EnvKeys {
		known[k] = true
	}

	input := make(map[string]any)
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !known[key] || strings.TrimSpace(value) == "" {
			continue
		}
		input[key] = strings.TrimSpace(value)
	}
	if len(input) == 0 {
		return nil
	}

	var overlay envOverlay
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &overlay,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			flagHook,
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to build environment decoder: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("invalid environment configuration: %w", err)
	}

	overlay.apply(cfg)
	return nil
}

// flagHook interprets 1/true/yes/y (any case) as true and anything else as false.
func flagHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String || t.Kind() != reflect.Bool {
		return data, nil
	}
	switch strings.ToLower(strings.TrimSpace(data.(string))) {
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

func (o *envOverlay) apply(cfg *Config) {
	setString(&cfg.CollectionsRoot, o.CollectionsRoot)
	setString(&cfg.LogsDir, o.LogsDir)
	setString(&cfg.Runner, o.Runner)
	setString(&cfg.PostmanAPIKey, o.PostmanAPIKey)
	setString(&cfg.SMTP.Host, o.SMTPHost)
	setString(&cfg.SMTP.User, o.SMTPUser)
	setString(&cfg.SMTP.Password, o.SMTPPass)
	setString(&cfg.Mail.From, o.MailFrom)
	setString(&cfg.Mail.Subject, o.MailSubject)
	if o.SMTPPort != nil {
		cfg.SMTP.Port = *o.SMTPPort
	}
	if o.SMTPUseTLS != nil {
		cfg.SMTP.UseTLS = *o.SMTPUseTLS
	}
	if o.MailRecipients != nil {
		cfg.Mail.Recipients = cleanRecipients(o.MailRecipients)
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func cleanRecipients(list []string) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
