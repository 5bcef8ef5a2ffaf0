package sendgrid

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/angelmondragon/storefront-orders/pkg/config"
	"github.com/angelmondragon/storefront-orders/pkg/logger"
)

const (
	mailSendEndpoint = "/v3/mail/send"
	defaultHost      = "https://api.sendgrid.com"
)

var errRecipientRequired = errors.New("recipient email is required")

// Message is one transactional email.
type Message struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Result is the transport's delivery metadata.
type Result struct {
	MessageID  string
	StatusCode int
}

// SendError reports a non-2xx answer from the mail API.
type SendError struct {
	StatusCode int
	Body       string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sendgrid mail send returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Transport delivers a Message.
type Transport interface {
	Send(ctx context.Context, msg Message) (*Result, error)
}

// Client sends mail through the SendGrid v3 API.
type Client struct {
	sdk  *sg.Client
	from *mail.Email
}

// Option configures optional client behavior.
type Option func(*clientOptions)

type clientOptions struct {
	host string
}

// WithHost overrides the SendGrid API host.
func WithHost(host string) Option {
	return func(o *clientOptions) {
		if trimmed := strings.TrimSpace(host); trimmed != "" {
			o.host = strings.TrimRight(trimmed, "/")
		}
	}
}

// NewClient builds a SendGrid client for the configured sender.
func NewClient(cfg config.SendgridConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if strings.TrimSpace(cfg.DefaultFrom) == "" {
		return nil, errors.New("sendgrid from address is required")
	}
	options := clientOptions{host: defaultHost}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	request := sg.GetRequest(key, mailSendEndpoint, options.host)
	request.Method = "POST"
	return &Client{
		sdk:  &sg.Client{Request: request},
		from: mail.NewEmail(cfg.FromName, cfg.DefaultFrom),
	}, nil
}

func (c *Client) Send(ctx context.Context, msg Message) (*Result, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, errRecipientRequired
	}
	to := mail.NewEmail(msg.ToName, msg.To)
	email := mail.NewSingleEmail(c.from, msg.Subject, to, msg.PlainText, msg.HTML)

	resp, err := c.sdk.SendWithContext(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("sendgrid mail send: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &SendError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	return &Result{MessageID: headerValue(resp.Headers, "X-Message-Id"), StatusCode: resp.StatusCode}, nil
}

func headerValue(headers map[string][]string, key string) string {
	for k, values := range headers {
		if strings.EqualFold(k, key) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// LogTransport only logs messages. It stands in for SendGrid when no API key
// is configured.
type LogTransport struct {
	logg *logger.Logger
}

// NewLogTransport builds the logging transport.
func NewLogTransport(logg *logger.Logger) *LogTransport {
	return &LogTransport{logg: logg}
}

func (t *LogTransport) Send(ctx context.Context, msg Message) (*Result, error) {
	if strings.TrimSpace(msg.To) == "" {
		return nil, errRecipientRequired
	}
	id := "log-" + uuid.NewString()
	if t.logg != nil {
		logCtx := t.logg.WithFields(ctx, map[string]any{
			"message_id": id,
			"subject":    msg.Subject,
		})
		t.logg.Info(logCtx, "email.logged")
	}
	return &Result{MessageID: id, StatusCode: 202}, nil
}

// NewTransport picks SendGrid when an API key is set and the log transport otherwise.
func NewTransport(cfg config.SendgridConfig, logg *logger.Logger) (Transport, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewLogTransport(logg), nil
	}
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}
