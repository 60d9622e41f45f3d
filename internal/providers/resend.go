package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
	"github.com/resend/resend-go/v3"
)

type ResendProvider struct {
	Client *resend.Client
	DryRun bool
}

func NewResendProvider(cfg *config.Config) *ResendProvider {
	return &ResendProvider{
		Client: resend.NewClient(cfg.ResendApiKey),
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *ResendProvider) Name() string {
	return "resend"
}

func (p *ResendProvider) Send(ctx context.Context, e *types.Email) error {
	if len(e.To) == 0 {
		return errors.New("resend send failed: no recipients")
	}

	if p.DryRun {
		slog.DebugContext(ctx, "dry-run resend send",
			"src_address", e.From(),
			"dst_address", e.To,
			"subject", e.Subject,
		)
		return nil
	}

	_, err := p.Client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    e.From(),
		To:      e.To,
		Subject: e.Subject,
		Html:    e.HTML,
		ReplyTo: e.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}

	return nil
}
