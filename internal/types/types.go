package types

import "net/mail"

// Email is a fully prepared message handed to a provider.
type Email struct {
	FromName    string   `json:"fromName"`
	FromAddress string   `json:"fromAddress"`
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTML        string   `json:"html"`
	ReplyTo     string   `json:"replyTo,omitempty"`
}

// From returns the RFC 5322 formatted sender.
func (e *Email) From() string {
	if e.FromName == "" {
		return e.FromAddress
	}
	return (&mail.Address{Name: e.FromName, Address: e.FromAddress}).String()
}
