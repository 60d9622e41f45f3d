package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type sendGridRequest struct {
	From struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"from"`
	ReplyTo *struct {
		Email string `json:"email"`
	} `json:"reply_to"`
	Subject          string `json:"subject"`
	Personalizations []struct {
		To []struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// sendGridMockServer mocks the SendGrid mail send API
type sendGridMockServer struct {
	Server *httptest.Server

	mu      sync.Mutex
	request sendGridRequest
	auth    string
}

func newSendGridMockServer(t *testing.T, status int) *sendGridMockServer {
	t.Helper()
	mock := &sendGridMockServer{}
	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		defer mock.mu.Unlock()
		if r.URL.Path != "/v3/mail/send" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		mock.auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&mock.request); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.WriteHeader(status)
		if status >= 300 {
			w.Write([]byte(`{"errors":[{"message":"rejected"}]}`))
		}
	}))
	t.Cleanup(mock.Server.Close)
	return mock
}

func (m *sendGridMockServer) snapshot() (sendGridRequest, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.request, m.auth
}

func TestSendGridProvider_Send(t *testing.T) {
	mock := newSendGridMockServer(t, http.StatusAccepted)
	p := &SendGridProvider{APIHost: mock.Server.URL, APIKey: "SG.test"}

	e := testEmail()
	e.To = []string{"Ana <ana@example.com>", "luis@example.com"}

	if err := p.Send(context.Background(), e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, auth := mock.snapshot()
	if auth != "Bearer SG.test" {
		t.Errorf("unexpected authorization header %q", auth)
	}
	if req.From.Name != "El Ancla CR" || req.From.Email != "shop@example.com" {
		t.Errorf("unexpected from %+v", req.From)
	}
	if req.Subject != "Tu pedido" {
		t.Errorf("unexpected subject %q", req.Subject)
	}
	if req.ReplyTo == nil || req.ReplyTo.Email != "soporte@example.com" {
		t.Errorf("unexpected reply-to %+v", req.ReplyTo)
	}
	if len(req.Personalizations) != 1 || len(req.Personalizations[0].To) != 2 {
		t.Fatalf("unexpected personalizations %+v", req.Personalizations)
	}
	first := req.Personalizations[0].To[0]
	if first.Name != "Ana" || first.Email != "ana@example.com" {
		t.Errorf("unexpected first recipient %+v", first)
	}
	if len(req.Content) != 1 || req.Content[0].Type != "text/html" || req.Content[0].Value != "<p>Gracias</p>" {
		t.Errorf("unexpected content %+v", req.Content)
	}
}

func TestSendGridProvider_SendRejected(t *testing.T) {
	mock := newSendGridMockServer(t, http.StatusBadRequest)
	p := &SendGridProvider{APIHost: mock.Server.URL, APIKey: "SG.test"}

	err := p.Send(context.Background(), testEmail())
	if err == nil || !strings.Contains(err.Error(), "status=400") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestSendGridProvider_DryRun(t *testing.T) {
	p := &SendGridProvider{APIHost: "http://127.0.0.1:1", APIKey: "SG.test", DryRun: true}
	if err := p.Send(context.Background(), testEmail()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseNameAddr(t *testing.T) {
	testCases := []struct {
		input string
		name  string
		addr  string
	}{
		{"ana@example.com", "", "ana@example.com"},
		{"Ana <ana@example.com>", "Ana", "ana@example.com"},
		{`"El Ancla CR" <shop@example.com>`, "El Ancla CR", "shop@example.com"},
		{"not an address", "", "not an address"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			name, addr := ParseNameAddr(tc.input)
			if name != tc.name || addr != tc.addr {
				t.Errorf("expected (%q, %q), got (%q, %q)", tc.name, tc.addr, name, addr)
			}
		})
	}
}
