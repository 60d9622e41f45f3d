package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awstypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
)

type sesSendClient interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesAccountClient interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

type SESProvider struct {
	Client  sesSendClient
	Account sesAccountClient
	DryRun  bool
}

func NewSESProvider(cfg *config.Config) *SESProvider {
	return &SESProvider{
		Client:  ses.NewFromConfig(*cfg.AWSConfig),
		Account: sesv2.NewFromConfig(*cfg.AWSConfig),
		DryRun:  !cfg.AppSendEnabled,
	}
}

func (p *SESProvider) Name() string {
	return "ses"
}

// Verify checks that sending is enabled for the SES account.
func (p *SESProvider) Verify(ctx context.Context) error {
	if p.DryRun || p.Account == nil {
		return nil
	}

	output, err := p.Account.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return fmt.Errorf("ses account check failed: %w", err)
	}

	if !output.SendingEnabled {
		return fmt.Errorf("ses sending is disabled (enforcement_status=%s, production_access=%t)",
			safeString(output.EnforcementStatus), output.ProductionAccessEnabled)
	}

	return nil
}

func (p *SESProvider) Send(ctx context.Context, e *types.Email) error {
	if len(e.To) == 0 {
		return errors.New("ses send failed: no recipients")
	}

	if p.DryRun {
		return p.SendDryRun(ctx, e)
	}

	input := &ses.SendEmailInput{
		Source:      awssdk.String(e.From()),
		Destination: &awstypes.Destination{ToAddresses: e.To},
		Message: &awstypes.Message{
			Subject: &awstypes.Content{Data: awssdk.String(e.Subject), Charset: awssdk.String("UTF-8")},
			Body: &awstypes.Body{
				Html: &awstypes.Content{Data: awssdk.String(e.HTML), Charset: awssdk.String("UTF-8")},
			},
		},
	}
	if e.ReplyTo != "" {
		input.ReplyToAddresses = []string{e.ReplyTo}
	}

	if _, err := p.Client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("error sending ses email: %w", err)
	}

	return nil
}

func (p *SESProvider) SendDryRun(ctx context.Context, e *types.Email) error {
	slog.DebugContext(ctx, "dry-run ses send",
		"src_address", e.From(),
		"dst_address", e.To,
		"reply_to", e.ReplyTo,
		"subject", e.Subject,
	)
	return nil
}

// safeString safely dereferences a string pointer, returning empty string if nil.
func safeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
