package config

import (
	"context"
	"fmt"

	awsinternal "github.com/cruxstack/mail-dispatch-func-go/internal/aws"
)

// Resolve loads the AWS config when a component needs it and decrypts
// SMTP_PASS when it was stored encrypted.
func (c *Config) Resolve(ctx context.Context) error {
	if !c.NeedsAWS() {
		return nil
	}

	if c.AWSConfig == nil {
		awscfg, err := awsinternal.LoadConfig(ctx)
		if err != nil {
			return fmt.Errorf("failed to load aws config: %w", err)
		}
		c.AWSConfig = &awscfg
	}

	if c.SMTPPassEncrypted {
		pass, err := awsinternal.NewKMSClient(*c.AWSConfig).Decrypt(ctx, c.AppKmsKeyId, c.SMTPPass)
		if err != nil {
			return fmt.Errorf("failed to decrypt SMTP_PASS: %w", err)
		}
		c.SMTPPass = pass
		c.SMTPPassEncrypted = false
	}

	return nil
}
