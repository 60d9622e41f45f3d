package httpadapter

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
)

// maxBodyBytes matches the Lambda synchronous invocation payload limit.
const maxBodyBytes = 6 << 20

// requestIDHeaders are checked in order for an upstream request id.
var requestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// HandlerFunc is the Lambda proxy handler signature served by the adapter.
type HandlerFunc func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Handler serves fn over net/http.
func Handler(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := NewRequest(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, errBodyTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			http.Error(w, http.StatusText(status), status)
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			// API Gateway answers 502 when the integration itself fails
			slog.ErrorContext(r.Context(), "handler returned error", "request_id", req.RequestContext.RequestID, "error", err)
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}

		w.Header().Set("X-Request-ID", req.RequestContext.RequestID)
		WriteResponse(w, resp)
	})
}

// NewRequest converts r into a proxy request event. Bodies that are not
// valid UTF-8 are base64 encoded.
func NewRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if err != nil {
			return events.APIGatewayProxyRequest{}, err
		}
		if len(b) > maxBodyBytes {
			return events.APIGatewayProxyRequest{}, errBodyTooLarge
		}
		body = b
	}

	req := events.APIGatewayProxyRequest{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Resource:   r.URL.Path,
	}

	req.Headers = make(map[string]string, len(r.Header))
	req.MultiValueHeaders = make(map[string][]string, len(r.Header))
	req.QueryStringParameters = map[string]string{}
	req.MultiValueQueryStringParameters = map[string][]string{}

	for k, v := range r.Header {
		req.Headers[k] = v[0]
		req.MultiValueHeaders[k] = v
	}
	for k, v := range r.URL.Query() {
		req.QueryStringParameters[k] = v[0]
		req.MultiValueQueryStringParameters[k] = v
	}

	if utf8.Valid(body) {
		req.Body = string(body)
	} else {
		req.Body = base64.StdEncoding.EncodeToString(body)
		req.IsBase64Encoded = true
	}

	req.RequestContext = events.APIGatewayProxyRequestContext{
		RequestID:  requestID(r),
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Identity: events.APIGatewayRequestIdentity{
			SourceIP:  r.RemoteAddr,
			UserAgent: r.UserAgent(),
		},
	}

	return req, nil
}

// WriteResponse copies a proxy response onto w.
func WriteResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
		body = decoded
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		w.Write(body)
	}
}

func requestID(r *http.Request) string {
	for _, h := range requestIDHeaders {
		if v := r.Header.Get(h); v != "" {
			return v
		}
	}
	return uuid.NewString()
}
