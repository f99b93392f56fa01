package config

// Default configuration values.
const (
	DefaultCollectionsRoot = "collections"
	DefaultLogsDir         = "logs"
	DefaultRunner          = "postman"
	DefaultSMTPPort        = 465
	DefaultMailSubject     = "[AUTOMATEST] Postman collections report"
)

// applyDefaults fills in default values for unset configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.CollectionsRoot == "" {
		cfg.CollectionsRoot = DefaultCollectionsRoot
	}
	if cfg.LogsDir == "" {
		cfg.LogsDir = DefaultLogsDir
	}
	if cfg.Runner == "" {
		cfg.Runner = DefaultRunner
	}
	applyMailDefaults(cfg)
}

func applyMailDefaults(cfg *Config) {
	if cfg.SMTP.Port == 0 {
		cfg.SMTP.Port = DefaultSMTPPort
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.SMTP.User
	}
	if cfg.Mail.Subject == "" {
		cfg.Mail.Subject = DefaultMailSubject
	}
	cfg.Mail.Recipients = cleanRecipients(cfg.Mail.Recipients)
}
