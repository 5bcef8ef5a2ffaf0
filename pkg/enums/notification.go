package enums

import "fmt"

// EmailTemplate identifies the transactional email rendered for an order event.
type EmailTemplate string

const (
	EmailTemplateReceived       EmailTemplate = "received"
	EmailTemplateConfirmed      EmailTemplate = "confirmed"
	EmailTemplateReadyForPickup EmailTemplate = "ready-for-pickup"
	EmailTemplateComplete       EmailTemplate = "complete"
)

var validEmailTemplates = []EmailTemplate{
	EmailTemplateReceived,
	EmailTemplateConfirmed,
	EmailTemplateReadyForPickup,
	EmailTemplateComplete,
}

// IsValid checks whether the given template matches the canonical set.
func (e EmailTemplate) IsValid() bool {
	for _, candidate := range validEmailTemplates {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEmailTemplate converts raw strings into EmailTemplate.
func ParseEmailTemplate(value string) (EmailTemplate, error) {
	for _, candidate := range validEmailTemplates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid email template %q", value)
}

// FulfillmentTemplateFor returns the email sent when staff move an order into
// status, and false when the status carries no notification.
func FulfillmentTemplateFor(status OrderStatus) (EmailTemplate, bool) {
	switch status {
	case OrderStatusReady:
		return EmailTemplateReadyForPickup, true
	case OrderStatusComplete:
		return EmailTemplateComplete, true
	default:
		return "", false
	}
}
