package sender

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/mail-dispatch-func-go/internal/config"
	"github.com/cruxstack/mail-dispatch-func-go/internal/metrics"
	"github.com/cruxstack/mail-dispatch-func-go/internal/payload"
	"github.com/cruxstack/mail-dispatch-func-go/internal/providers"
	"github.com/cruxstack/mail-dispatch-func-go/internal/templates"
	"github.com/cruxstack/mail-dispatch-func-go/internal/types"
)

// Sender is the mail dispatch handler. It holds no per-request state; a
// provider is built for every request.
type Sender struct {
	cfg         *config.Config
	newProvider providers.Factory
	renderer    *templates.Renderer
}

func NewSender(ctx context.Context, cfg *config.Config) (*Sender, error) {
	factory, err := providers.NewFactory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init provider: %w", err)
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to init renderer: %w", err)
	}

	return New(cfg, factory, renderer), nil
}

func New(cfg *config.Config, factory providers.Factory, renderer *templates.Renderer) *Sender {
	return &Sender{
		cfg:         cfg,
		newProvider: factory,
		renderer:    renderer,
	}
}

// Handle routes a proxy request. Failures are always reported through the
// response; the returned error is reserved for the Lambda runtime and is
// always nil.
func (s *Sender) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	method := strings.ToUpper(req.HTTPMethod)
	ctx = withRequestID(ctx, req.RequestContext.RequestID)

	resp, result := s.route(ctx, method, req)
	metrics.Requests.WithLabelValues(methodLabel(method), result).Inc()

	return resp, nil
}

// methodLabel bounds the method label to the routed verbs.
func methodLabel(method string) string {
	switch method {
	case http.MethodOptions, http.MethodGet, http.MethodPost:
		return method
	default:
		return "other"
	}
}

func (s *Sender) route(ctx context.Context, method string, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, string) {
	switch method {
	case http.MethodOptions:
		return s.respond(http.StatusNoContent, nil), "ok"
	case http.MethodGet:
		return s.respond(http.StatusOK, &responseBody{OK: true, Fn: "mail", Method: http.MethodGet}), "ok"
	case http.MethodPost:
	default:
		return s.respondError(http.StatusMethodNotAllowed, CodeMethodNotAllowed), CodeMethodNotAllowed
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			logger(ctx).WarnContext(ctx, "invalid base64 body", "error", err)
			return s.respondError(http.StatusBadRequest, CodeBadJSON), CodeBadJSON
		}
		body = decoded
	}

	p, err := payload.Parse(body)
	if err != nil {
		code := CodeMissingFields
		if errors.Is(err, payload.ErrBadJSON) {
			code = CodeBadJSON
		}
		logger(ctx).InfoContext(ctx, "rejected request", "code", code, "error", err)
		return s.respondError(http.StatusBadRequest, code), code
	}

	if err := s.Dispatch(ctx, p); err != nil {
		logger(ctx).ErrorContext(ctx, "MAIL_FAILED", "error", err)
		return s.respondError(http.StatusInternalServerError, CodeMailFailed), CodeMailFailed
	}

	return s.respondOK(), "ok"
}

// Dispatch builds the email for p and sends it exactly once.
func (s *Sender) Dispatch(ctx context.Context, p payload.Payload) error {
	email, shape, err := s.buildEmail(p)
	if err != nil {
		return err
	}

	provider, err := s.newProvider()
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	if v, ok := provider.(providers.Verifier); ok && s.cfg.AppEmailVerifyEnable {
		if err := v.Verify(ctx); err != nil {
			metrics.VerifyFailure.WithLabelValues(provider.Name()).Inc()
			logger(ctx).WarnContext(ctx, "provider verify failed, sending anyway",
				"provider", provider.Name(),
				"error", err,
			)
		}
	}

	if err := provider.Send(ctx, email); err != nil {
		metrics.MailSendFailure.WithLabelValues(provider.Name(), shape).Inc()
		return fmt.Errorf("%s send failed: %w", provider.Name(), err)
	}

	metrics.MailSendSuccess.WithLabelValues(provider.Name(), shape).Inc()
	logger(ctx).InfoContext(ctx, "email sent",
		"provider", provider.Name(),
		"shape", shape,
		"recipients", len(email.To),
	)
	return nil
}

func (s *Sender) buildEmail(p payload.Payload) (*types.Email, string, error) {
	email := &types.Email{
		FromName:    s.cfg.FromName,
		FromAddress: s.cfg.FromEmail,
		To:          p.Recipients(),
	}

	switch m := p.(type) {
	case *payload.SimpleMessage:
		email.Subject = m.Subject
		email.HTML = m.HTML
		email.ReplyTo = s.replyTo(m.ReplyTo)
		return email, "simple", nil
	case *payload.TemplatedMessage:
		html, err := s.renderer.Render(m)
		if err != nil {
			return nil, "", err
		}
		email.Subject = m.Title
		email.HTML = html
		email.ReplyTo = s.replyTo(m.ReplyTo)
		return email, "templated", nil
	default:
		return nil, "", fmt.Errorf("unsupported payload type %T", p)
	}
}

func (s *Sender) replyTo(requested string) string {
	if requested != "" {
		return requested
	}
	return s.cfg.FromEmail
}
