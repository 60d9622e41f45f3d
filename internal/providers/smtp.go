package providers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
	"gopkg.in/gomail.v2"
)

// SMTPProvider relays through an SMTP submission server. The dialer opens
// a new connection per call; STARTTLS is used whenever the server offers it
// and implicit TLS only on port 465.
type SMTPProvider struct {
	Dialer *gomail.Dialer
	DryRun bool
}

func NewSMTPProvider(cfg *config.Config) *SMTPProvider {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.SMTPHost,
		InsecureSkipVerify: cfg.SMTPInsecureSkipVerify,
	}
	if cfg.SMTPUser != "" {
		d.Auth = LoginAuth(cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPHost)
	}

	return &SMTPProvider{
		Dialer: d,
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *SMTPProvider) Name() string {
	return "smtp"
}

// Verify connects, negotiates STARTTLS, authenticates and quits.
func (p *SMTPProvider) Verify(ctx context.Context) error {
	if p.DryRun {
		return nil
	}

	sc, err := p.Dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp verify failed: %w", err)
	}
	return sc.Close()
}

func (p *SMTPProvider) Send(ctx context.Context, e *types.Email) error {
	if len(e.To) == 0 {
		return errors.New("smtp send failed: no recipients")
	}

	if p.DryRun {
		return p.SendDryRun(ctx, e)
	}

	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", e.FromAddress, e.FromName)
	msg.SetHeader("To", e.To...)
	if e.ReplyTo != "" {
		msg.SetHeader("Reply-To", e.ReplyTo)
	}
	msg.SetHeader("Subject", e.Subject)
	msg.SetBody("text/html", e.HTML)

	if err := p.Dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}

	return nil
}

func (p *SMTPProvider) SendDryRun(ctx context.Context, e *types.Email) error {
	slog.DebugContext(ctx, "dry-run smtp send",
		"host", p.Dialer.Host,
		"port", p.Dialer.Port,
		"from", e.From(),
		"to", e.To,
		"reply_to", e.ReplyTo,
		"subject", e.Subject,
		"html_bytes", len(e.HTML),
	)
	return nil
}

// loginAuth implements the LOGIN SMTP auth mechanism, which net/smtp does
// not ship.
type loginAuth struct {
	username string
	password string
	host     string
}

// LoginAuth returns an smtp.Auth using the LOGIN mechanism. Credentials are
// only sent over TLS or when the server explicitly advertises LOGIN.
func LoginAuth(username, password, host string) smtp.Auth {
	return &loginAuth{username: username, password: password, host: host}
}

func (a *loginAuth) Start(server *smtp.ServerInfo) (string, []byte, error) {
	if !server.TLS && !advertises(server.Auth, "LOGIN") {
		return "", nil, errors.New("unencrypted connection")
	}
	if server.Name != a.host {
		return "", nil, fmt.Errorf("unexpected server name %s", server.Name)
	}
	return "LOGIN", nil, nil
}

func (a *loginAuth) Next(fromServer []byte, more bool) ([]byte, error) {
	if !more {
		return nil, nil
	}
	switch strings.ToLower(strings.TrimSpace(string(fromServer))) {
	case "username:", "user:", "user name", "username":
		return []byte(a.username), nil
	case "password:", "pass:", "password":
		return []byte(a.password), nil
	default:
		return nil, fmt.Errorf("unexpected login challenge: %s", string(fromServer))
	}
}

func advertises(mechanisms []string, name string) bool {
	for _, m := range mechanisms {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}
