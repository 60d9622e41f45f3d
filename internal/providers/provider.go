package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
)

type Provider interface {
	Name() string
	Send(ctx context.Context, e *types.Email) error
}

// Verifier is an optional interface for providers that can check their
// connection or account before sending. Callers treat failures as
// diagnostics only.
type Verifier interface {
	Verify(ctx context.Context) error
}

// Factory builds a fresh provider for every invocation.
type Factory func() (Provider, error)

// NewFactory returns a Factory for the provider named in cfg.
func NewFactory(cfg *config.Config) (Factory, error) {
	switch cfg.AppEmailProvider {
	case "smtp":
		return func() (Provider, error) { return NewSMTPProvider(cfg), nil }, nil
	case "ses":
		if cfg.AWSConfig == nil {
			return nil, errors.New("aws config is required for ses provider")
		}
		return func() (Provider, error) { return NewSESProvider(cfg), nil }, nil
	case "sendgrid":
		return func() (Provider, error) { return NewSendGridProvider(cfg), nil }, nil
	case "resend":
		return func() (Provider, error) { return NewResendProvider(cfg), nil }, nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", cfg.AppEmailProvider)
	}
}
