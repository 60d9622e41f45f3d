package sender

import (
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// error codes returned in the response body
const (
	CodeBadJSON          = "BAD_JSON"
	CodeMissingFields    = "MISSING_FIELDS"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeMailFailed       = "MAIL_FAILED"
)

type responseBody struct {
	OK     bool   `json:"ok"`
	Fn     string `json:"fn,omitempty"`
	Method string `json:"method,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CORSHeaders returns the headers attached to every response.
func CORSHeaders(origin string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Methods": "POST,GET,OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type, Authorization",
		"Access-Control-Max-Age":       "86400",
		"Content-Type":                 "application/json",
	}
}

func (s *Sender) respond(status int, body *responseBody) events.APIGatewayProxyResponse {
	resp := events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    CORSHeaders(s.cfg.CORSOrigin),
	}
	if body != nil {
		// marshalling a flat struct of strings and bools cannot fail
		b, _ := json.Marshal(body)
		resp.Body = string(b)
	}
	return resp
}

func (s *Sender) respondError(status int, code string) events.APIGatewayProxyResponse {
	return s.respond(status, &responseBody{OK: false, Error: code})
}

func (s *Sender) respondOK() events.APIGatewayProxyResponse {
	return s.respond(http.StatusOK, &responseBody{OK: true})
}
