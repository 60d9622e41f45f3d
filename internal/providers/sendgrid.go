package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridProvider struct {
	APIHost string
	APIKey  string
	DryRun  bool
}

func NewSendGridProvider(cfg *config.Config) *SendGridProvider {
	return &SendGridProvider{
		APIHost: cfg.SendGridApiHost,
		APIKey:  cfg.SendGridEmailSendApiKey,
		DryRun:  !cfg.AppSendEnabled,
	}
}

func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

func (p *SendGridProvider) Send(ctx context.Context, e *types.Email) error {
	if len(e.To) == 0 {
		return errors.New("sendgrid send failed: no recipients")
	}

	if p.DryRun {
		return p.SendDryRun(ctx, e)
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(sgmail.NewEmail(e.FromName, e.FromAddress))
	msg.Subject = e.Subject
	msg.AddContent(sgmail.NewContent("text/html", e.HTML))
	if e.ReplyTo != "" {
		name, addr := ParseNameAddr(e.ReplyTo)
		msg.SetReplyTo(sgmail.NewEmail(name, addr))
	}

	personalization := sgmail.NewPersonalization()
	for _, to := range e.To {
		name, addr := ParseNameAddr(to)
		personalization.AddTos(sgmail.NewEmail(name, addr))
	}
	msg.AddPersonalizations(personalization)

	request := sendgrid.GetRequest(p.APIKey, "/v3/mail/send", p.APIHost)
	request.Method = "POST"
	request.Body = sgmail.GetRequestBody(msg)

	resp, err := sendgrid.API(request)
	if err != nil {
		return fmt.Errorf("sendgrid api error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	return nil
}

func (p *SendGridProvider) SendDryRun(ctx context.Context, e *types.Email) error {
	slog.DebugContext(ctx, "dry-run sendgrid send",
		"src_address", e.From(),
		"dst_address", e.To,
		"subject", e.Subject,
	)
	return nil
}

// ParseNameAddr splits "Name <addr>" into its parts. Unparseable input is
// returned as the address.
func ParseNameAddr(s string) (string, string) {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return "", s
	}
	return addr.Name, addr.Address
}
