package worker

import (
	"strings"

	eventsModels "github.com/sangkips/customer-records-service/internal/domains/events/models"
)

var notificationTemplates = map[string]string{
	eventsModels.EventTypeCustomerCreated: "Welcome, {first_name}! Your customer record for {email} has been created.",
	eventsModels.EventTypeCustomerUpdated: "Hi {first_name}, your contact details were updated.",
	eventsModels.EventTypeCustomerDeleted: "Hi {first_name}, your customer record has been removed.",
}

// NotificationTemplate returns the template for an event type, or a generic
// fallback for unknown types.
func NotificationTemplate(eventType string) string {
	if tpl, ok := notificationTemplates[eventType]; ok {
		return tpl
	}
	return "Hi {first_name}, there is an update on your customer record."
}

// RenderNotification replaces template variables with customer data
// Supported variables: {name}, {first_name}, {email}, {phone}
func RenderNotification(template string, event eventsModels.GetEventWithCustomerRow) string {
	rendered := template

	rendered = strings.ReplaceAll(rendered, "{name}", event.CustomerName)
	rendered = strings.ReplaceAll(rendered, "{first_name}", firstName(event.CustomerName))
	rendered = strings.ReplaceAll(rendered, "{email}", event.CustomerEmail)

	// {phone} - handle nullable field
	if event.CustomerPhone.Valid {
		rendered = strings.ReplaceAll(rendered, "{phone}", event.CustomerPhone.String)
	} else {
		rendered = strings.ReplaceAll(rendered, "{phone}", "")
	}

	return rendered
}

func firstName(name string) string {
	if i := strings.IndexByte(name, ' '); i > 0 {
		return name[:i]
	}
	return name
}
