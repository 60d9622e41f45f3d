package templates

import (
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/cruxstack/mail-dispatch-func-go/internal/payload"
)

//go:embed files/universal.html.tmpl
var universalTemplateRaw string

// Defaults applied to every optional field left empty by the caller.
type Defaults struct {
	CustomerName string
	CTALabel     string
	CTAURL       string
	BrandLogoURL string
	BrandColor   string
	AccentColor  string
}

// Contact is the fixed footer contact information.
type Contact struct {
	Email         string
	WhatsAppURL   string
	WhatsAppLabel string
}

var (
	DefaultValues = Defaults{
		CustomerName: "Cliente",
		CTALabel:     "Ir a El Ancla",
		CTAURL:       "https://elancla.store",
		BrandLogoURL: "https://jszgeoosgpozjlvohrjy.supabase.co/storage/v1/object/public/assets//logo%20morado.png",
		BrandColor:   "#5A61E5",
		AccentColor:  "#F2BF53",
	}

	FooterContact = Contact{
		Email:         "info@elancla.store",
		WhatsAppURL:   "https://wa.me/50689422525",
		WhatsAppLabel: "+506 8942 2525",
	}
)

type templateData struct {
	*payload.TemplatedMessage
	Year     string
	Defaults Defaults
	Contact  Contact
}

// Renderer produces the universal HTML email. Fields are interpolated
// verbatim; callers are trusted.
type Renderer struct {
	tmpl *template.Template

	// Now supplies the year used when the message has none.
	Now func() time.Time
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("universal").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(universalTemplateRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse universal template: %w", err)
	}

	return &Renderer{tmpl: tmpl, Now: time.Now}, nil
}

func (r *Renderer) Render(m *payload.TemplatedMessage) (string, error) {
	year := m.Year
	if year == "" {
		year = strconv.Itoa(r.Now().Year())
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, templateData{
		TemplatedMessage: m,
		Year:             year,
		Defaults:         DefaultValues,
		Contact:          FooterContact,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render universal template: %w", err)
	}

	return buf.String(), nil
}
