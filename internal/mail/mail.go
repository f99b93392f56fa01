// Package mail delivers the run report over SMTP.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	aerrors "github.com/AndreyAkinshin/automatest/internal/errors"
)

// ImplicitTLSPort is the SMTPS port; other ports use STARTTLS when requested.
const ImplicitTLSPort = 465

// AutomationHeader tags every report message.
const (
	AutomationHeader = "X-Automation"
	AutomationValue  = "Automatest-Postman-CLI"
)

const (
	fallbackBody = "The HTML report is attached."
	sendTimeout  = 30 * time.Second
)

// Config holds everything needed to deliver one report.
type Config struct {
	Host       string
	Port       int
	UseTLS     bool
	Username   string
	Password   string
	From       string
	Subject    string
	Recipients []string
}

// Validate reports missing settings. Nothing can be sent without them.
func (c Config) Validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"host", c.Host},
		{"username", c.Username},
		{"password", c.Password},
		{"from", c.From},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return aerrors.Configf("incomplete SMTP configuration: missing %s", strings.Join(missing, ", "))
	}
	if len(c.Recipients) == 0 {
		return aerrors.Config("no mail recipients configured")
	}
	return nil
}

// Report is the content of one message.
type Report struct {
	Text        string
	HTML        string
	Attachments []string
}

// Sender delivers reports with a fixed configuration.
type Sender struct {
	cfg Config
}

// NewSender validates cfg and returns a Sender.
func NewSender(cfg Config) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Sender{cfg: cfg}, nil
}

// Send builds and delivers the report.
func (s *Sender) Send(ctx context.Context, r Report) error {
	msg, err := BuildMessage(s.cfg, r)
	if err != nil {
		return err
	}
	client, err := newClient(s.cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return aerrors.Wrap(err, "failed to send report email")
	}
	slog.Info("report email sent", "recipients", len(s.cfg.Recipients), "attachments", len(r.Attachments))
	return nil
}

// BuildMessage assembles the message: plain text body, HTML alternative,
// automation headers and the existing attachments.
func BuildMessage(cfg Config, r Report) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(cfg.From); err != nil {
		return nil, aerrors.WrapKind(aerrors.KindConfig, err, "invalid sender address")
	}
	if err := msg.To(cfg.Recipients...); err != nil {
		return nil, aerrors.WrapKind(aerrors.KindConfig, err, "invalid recipient address")
	}
	if err := msg.ReplyTo(cfg.From); err != nil {
		return nil, aerrors.WrapKind(aerrors.KindConfig, err, "invalid reply-to address")
	}
	msg.Subject(cfg.Subject)
	msg.SetGenHeader(gomail.Header(AutomationHeader), AutomationValue)

	text := r.Text
	if strings.TrimSpace(text) == "" {
		text = fallbackBody
	}
	msg.SetBodyString(gomail.TypeTextPlain, text)
	if r.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, r.HTML)
	}

	for _, path := range r.Attachments {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			slog.Debug("skipping missing attachment", "path", path)
			continue
		}
		msg.AttachFile(path,
			gomail.WithFileName(AttachmentName(path)),
			gomail.WithFileContentType(ContentTypeFor(path)))
	}
	return msg, nil
}

// AttachmentName flattens a run artifact path into a unique file name,
// e.g. logs/<ts>/shop/dev/users/run.json becomes shop_dev_users_run.json.
func AttachmentName(path string) string {
	dir, file := filepath.Split(filepath.Clean(path))
	parts := strings.Split(filepath.ToSlash(filepath.Clean(dir)), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	var kept []string
	for _, p := range parts {
		if p != "" && p != "." && p != "/" {
			kept = append(kept, p)
		}
	}
	return strings.Join(append(kept, file), "_")
}

// ContentTypeFor maps an attachment extension to its content type.
func ContentTypeFor(path string) gomail.ContentType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return gomail.ContentType("application/json")
	case ".txt":
		return gomail.TypeTextPlain
	default:
		return gomail.TypeAppOctetStream
	}
}

func newClient(cfg Config) (*gomail.Client, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(sendTimeout),
	}
	switch {
	case cfg.Port == ImplicitTLSPort:
		opts = append(opts, gomail.WithSSL(), gomail.WithSMTPAuth(gomail.SMTPAuthAutoDiscover))
	case cfg.UseTLS:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory), gomail.WithSMTPAuth(gomail.SMTPAuthAutoDiscover))
	default:
		// Plain SMTP still authenticates; the encrypted-only mechanisms
		// refuse to send credentials without TLS.
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS), gomail.WithSMTPAuth(gomail.SMTPAuthPlainNoEnc))
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, aerrors.WrapKind(aerrors.KindConfig, err, fmt.Sprintf("invalid SMTP settings for %s:%d", cfg.Host, cfg.Port))
	}
	return client, nil
}
