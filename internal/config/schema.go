// Package config provides configuration loading and validation for
// automatest.yaml, the .env file and the process environment.
package config

// Config represents the resolved automatest configuration.
type Config struct {
	CollectionsRoot string     `yaml:"collections_root,omitempty"`
	LogsDir         string     `yaml:"logs_dir,omitempty"`
	Runner          string     `yaml:"runner,omitempty"`
	PostmanAPIKey   string     `yaml:"postman_api_key,omitempty"`
	SMTP            SMTPConfig `yaml:"smtp,omitempty"`
	Mail            MailConfig `yaml:"mail,omitempty"`
}

// SMTPConfig holds the outgoing mail server settings.
type SMTPConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	UseTLS   bool   `yaml:"use_tls,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// MailConfig describes the report message.
type MailConfig struct {
	From       string   `yaml:"from,omitempty"`
	Subject    string   `yaml:"subject,omitempty"`
	Recipients []string `yaml:"recipients,omitempty"`
}
