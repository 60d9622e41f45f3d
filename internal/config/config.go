package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
)

const (
	DefaultCORSOrigin = "*"
	DefaultSMTPHost   = "smtp.mail.me.com"
	DefaultSMTPPort   = 587
	DefaultFromName   = "El Ancla CR"
	DefaultLocalAddr  = ":8888"
)

type Config struct {
	AWSConfig            *aws.Config
	AppLogLevel          slog.Level
	AppEmailProvider     string
	AppEmailVerifyEnable bool
	AppSendEnabled       bool
	AppKmsKeyId          string
	AppLocalAddr         string
	DebugMode            bool
	DebugDataPath        string

	CORSOrigin string

	SMTPHost               string
	SMTPPort               int
	SMTPUser               string
	SMTPPass               string
	SMTPPassEncrypted      bool
	SMTPInsecureSkipVerify bool

	FromName  string
	FromEmail string

	SendGridApiHost         string
	SendGridEmailSendApiKey string
	ResendApiKey            string
}

// New reads the configuration from the process environment. The AWS config
// and encrypted secrets are resolved later by the entry point, see
// NeedsAWS.
func New() (*Config, error) {
	cfg := Config{
		AppLogLevel:             slog.LevelInfo,
		AppEmailProvider:        strings.ToLower(strings.TrimSpace(os.Getenv("APP_EMAIL_PROVIDER"))),
		AppEmailVerifyEnable:    os.Getenv("APP_EMAIL_VERIFY_ENABLED") != "false",
		AppSendEnabled:          true,
		AppKmsKeyId:             os.Getenv("APP_KMS_KEY_ID"),
		AppLocalAddr:            getenv("APP_LOCAL_ADDR", DefaultLocalAddr),
		DebugMode:               os.Getenv("APP_DEBUG_MODE") == "true",
		DebugDataPath:           os.Getenv("APP_DEBUG_DATA_PATH"),
		CORSOrigin:              getenv("CORS_ORIGIN", DefaultCORSOrigin),
		SMTPHost:                getenv("SMTP_HOST", DefaultSMTPHost),
		SMTPPort:                DefaultSMTPPort,
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPass:                os.Getenv("SMTP_PASS"),
		SMTPPassEncrypted:       os.Getenv("APP_SMTP_PASS_ENCRYPTED") == "true",
		SMTPInsecureSkipVerify:  os.Getenv("APP_SMTP_INSECURE_SKIP_VERIFY") == "true",
		FromName:                getenv("FROM_NAME", DefaultFromName),
		FromEmail:               os.Getenv("FROM_EMAIL"),
		SendGridApiHost:         getenv("APP_SENDGRID_API_HOST", "https://api.sendgrid.com"),
		SendGridEmailSendApiKey: os.Getenv("APP_SENDGRID_EMAIL_SEND_API_KEY"),
		ResendApiKey:            os.Getenv("APP_RESEND_API_KEY"),
	}

	// disable send if debug mode by default
	if cfg.DebugMode && os.Getenv("APP_SEND_ENABLED") != "true" {
		cfg.AppSendEnabled = false
	}

	if levelStr := os.Getenv("APP_LOG_LEVEL"); levelStr != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(levelStr)); err == nil {
			cfg.AppLogLevel = level
		}
	}

	if cfg.AppEmailProvider == "" {
		cfg.AppEmailProvider = "smtp"
	}

	if portStr := strings.TrimSpace(os.Getenv("SMTP_PORT")); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", portStr, err)
		}
		cfg.SMTPPort = port
	}

	if cfg.FromEmail == "" {
		cfg.FromEmail = cfg.SMTPUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and valid
func (c *Config) Validate() error {
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT out of range: %d", c.SMTPPort)
	}

	switch c.AppEmailProvider {
	case "smtp", "ses":
	case "sendgrid":
		if c.SendGridEmailSendApiKey == "" {
			return errors.New("APP_SENDGRID_EMAIL_SEND_API_KEY is required when using sendgrid provider")
		}
	case "resend":
		if c.ResendApiKey == "" {
			return errors.New("APP_RESEND_API_KEY is required when using resend provider")
		}
	default:
		return fmt.Errorf("unknown email provider: %s (must be 'smtp', 'ses', 'sendgrid' or 'resend')", c.AppEmailProvider)
	}

	if c.SMTPPassEncrypted && c.SMTPPass == "" {
		return errors.New("SMTP_PASS is required when APP_SMTP_PASS_ENCRYPTED is set")
	}

	return nil
}

// NeedsAWS reports whether the AWS SDK config has to be loaded.
func (c *Config) NeedsAWS() bool {
	return c.AppEmailProvider == "ses" || c.SMTPPassEncrypted
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
