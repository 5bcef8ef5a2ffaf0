package notifications

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/angelmondragon/storefront-orders/pkg/enums"
	"github.com/angelmondragon/storefront-orders/pkg/sendgrid"
)

//go:embed templates/*.html
var templateFS embed.FS

var subjects = map[enums.EmailTemplate]string{
	enums.EmailTemplateReceived:       "We received your order %s",
	enums.EmailTemplateConfirmed:      "Your order %s is confirmed",
	enums.EmailTemplateReadyForPickup: "Your order %s is ready for pickup",
	enums.EmailTemplateComplete:       "Your order %s is complete",
}

// Request asks for one email.
type Request struct {
	To       string
	ToName   string
	Template enums.EmailTemplate
	Payload  Payload
}

// Delivery is the transport's receipt.
type Delivery struct {
	MessageID  string
	StatusCode int
}

// Dispatcher renders order emails and hands them to the mail transport. It
// does not queue or retry.
type Dispatcher struct {
	transport sendgrid.Transport
	templates map[enums.EmailTemplate]*template.Template
}

// NewDispatcher parses the embedded templates.
func NewDispatcher(transport sendgrid.Transport) (*Dispatcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("mail transport required")
	}
	parsed := make(map[enums.EmailTemplate]*template.Template, len(subjects))
	for name := range subjects {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+string(name)+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		parsed[name] = tmpl
	}
	return &Dispatcher{transport: transport, templates: parsed}, nil
}

// Dispatch renders req and sends it. Transport errors are returned as is.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Delivery, error) {
	if strings.TrimSpace(req.To) == "" {
		return nil, fmt.Errorf("recipient required")
	}
	subject, html, err := d.Render(req.Template, req.Payload)
	if err != nil {
		return nil, err
	}
	res, err := d.transport.Send(ctx, sendgrid.Message{
		To:        req.To,
		ToName:    req.ToName,
		Subject:   subject,
		PlainText: plainText(subject, req.Payload),
		HTML:      html,
	})
	if err != nil {
		return nil, err
	}
	return &Delivery{MessageID: res.MessageID, StatusCode: res.StatusCode}, nil
}

// Render returns the subject and HTML body for template.
func (d *Dispatcher) Render(name enums.EmailTemplate, payload Payload) (string, string, error) {
	tmpl, ok := d.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", payload); err != nil {
		return "", "", fmt.Errorf("render %s template: %w", name, err)
	}
	return fmt.Sprintf(subjects[name], shortRef(payload.ReferenceNumber)), buf.String(), nil
}

func plainText(subject string, payload Payload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\nOrder reference: %s\n\n", subject, payload.ReferenceNumber)
	for _, item := range payload.Items {
		fmt.Fprintf(&b, "%s x%d  %s %s\n", item.Name, item.Quantity, payload.Currency, item.LinePrice)
	}
	fmt.Fprintf(&b, "\nTotal: %s %s\n", payload.Currency, payload.Total)
	if payload.Store.Name != "" {
		fmt.Fprintf(&b, "\n%s\n", payload.Store.Name)
		for _, line := range []string{payload.Store.Address, payload.Store.Phone, payload.Store.Email} {
			if line != "" {
				fmt.Fprintf(&b, "%s\n", line)
			}
		}
	}
	return b.String()
}

func shortRef(ref string) string {
	if len(ref) > 8 {
		return "#" + strings.ToUpper(ref[:8])
	}
	return "#" + strings.ToUpper(ref)
}
