// Package payload parses mail requests into one of the two accepted shapes.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
)

var (
	// ErrBadJSON indicates the body is not valid JSON.
	ErrBadJSON = errors.New("BAD_JSON")

	// ErrMissingFields indicates the body matches neither accepted shape.
	ErrMissingFields = errors.New("MISSING_FIELDS")
)

// Payload is either a *SimpleMessage or a *TemplatedMessage.
type Payload interface {
	Recipients() []string
	payload()
}

// SimpleMessage is sent as-is.
type SimpleMessage struct {
	To      Recipients
	Subject string
	HTML    string
	ReplyTo string
}

func (m *SimpleMessage) Recipients() []string { return m.To }
func (*SimpleMessage) payload()               {}

// TemplatedMessage feeds the HTML renderer.
type TemplatedMessage struct {
	ToEmail      string
	Title        string
	Preheader    string
	CustomerName string
	IntroHTML    string
	BodyHTML     string
	CTALabel     string
	CTAURL       string
	BrandLogoURL string
	BrandColor   string
	AccentColor  string
	Year         string
	ReplyTo      string
}

func (m *TemplatedMessage) Recipients() []string { return []string{m.ToEmail} }
func (*TemplatedMessage) payload()               {}

// fields holds the top-level members of a request body keyed by their
// exact JSON names.
type fields map[string]json.RawMessage

// Parse decodes body and classifies it. An empty body is treated as an
// empty object. Returned errors wrap ErrBadJSON or ErrMissingFields.
//
// Only the required members decide the shape. Optional members of the
// chosen shape never reject a body: strings are kept, numbers and booleans
// keep their literal text and anything else is ignored.
func Parse(body []byte) (Payload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte("{}")
	}

	var f fields
	if err := json.Unmarshal(body, &f); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, fmt.Errorf("%w: %v", ErrBadJSON, err)
		}
		return nil, fmt.Errorf("%w: body is not an object", ErrMissingFields)
	}

	// simple wins when both shapes are satisfied
	to := f.recipients("to")
	subject, html := f.str("subject"), f.str("html")
	if len(to) > 0 && subject != "" && html != "" {
		return &SimpleMessage{
			To:      to,
			Subject: subject,
			HTML:    html,
			ReplyTo: firstNonEmpty(f.str("replyTo"), f.str("reply_to")),
		}, nil
	}

	toEmail, title := f.str("to_email"), f.str("title")
	if toEmail != "" && title != "" {
		return &TemplatedMessage{
			ToEmail:      toEmail,
			Title:        title,
			Preheader:    f.text("preheader"),
			CustomerName: f.text("customer_name"),
			IntroHTML:    f.text("intro_html"),
			BodyHTML:     f.text("body_html"),
			CTALabel:     f.text("cta_label"),
			CTAURL:       f.text("cta_url"),
			BrandLogoURL: f.text("brand_logo_url"),
			BrandColor:   f.text("brand_color"),
			AccentColor:  f.text("accent_color"),
			Year:         strings.TrimSpace(f.text("year")),
			ReplyTo:      firstNonEmpty(f.str("reply_to"), f.str("replyTo")),
		}, nil
	}

	return nil, ErrMissingFields
}

// str returns the member when it is a JSON string.
func (f fields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

// text returns the member as display text. Numbers and booleans keep their
// literal form.
func (f fields) text(key string) string {
	raw, ok := f[key]
	if !ok {
		return ""
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch v := v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// recipients returns the decoded recipient list, or nil when the member is
// missing or not a string or array of strings.
func (f fields) recipients(key string) Recipients {
	raw, ok := f[key]
	if !ok {
		return nil
	}
	var r Recipients
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return r
}

// Recipients accepts a single address, a comma separated list, or an
// array of addresses.
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		list = []string{single}
	}

	out := make([]string, 0, len(list))
	for _, entry := range list {
		out = append(out, splitAddressList(entry)...)
	}
	*r = out
	return nil
}

// splitAddressList expands a comma separated list. Entries that do not
// parse as an address list are split on commas verbatim.
func splitAddressList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if addrs, err := mail.ParseAddressList(s); err == nil {
		if len(addrs) == 1 {
			return []string{s}
		}
		out := make([]string, 0, len(addrs))
		for _, a := range addrs {
			if a.Name == "" {
				out = append(out, a.Address)
			} else {
				out = append(out, a.String())
			}
		}
		return out
	}

	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
