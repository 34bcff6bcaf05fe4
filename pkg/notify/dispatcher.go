package notify

import (
	"context"
	"fmt"

	"github.com/membertools/dues/pkg/members"
	"github.com/membertools/dues/pkg/observability"
)

// dateFormat matches the provider templates' expected due-date rendering
const dateFormat = "Mon Jan 2 2006"

// Dispatcher formats membership reminders and hands them to a delivery
// provider. It is stateless apart from the delivery log.
type Dispatcher struct {
	provider Provider
	logger   *observability.Logger
	log      *DeliveryLogStore
}

// NewDispatcher creates a Dispatcher delivering through the given provider
func NewDispatcher(provider Provider, logger *observability.Logger) *Dispatcher {
	return &Dispatcher{
		provider: provider,
		logger:   logger,
		log:      NewDeliveryLogStore(1000),
	}
}

// DeliveryLogs returns the most recent delivery attempts, newest first
func (d *Dispatcher) DeliveryLogs(limit int) []*DeliveryLog {
	return d.log.Recent(limit)
}

// DeliveryStats returns aggregate delivery counts
func (d *Dispatcher) DeliveryStats() DeliveryStats {
	return d.log.Stats()
}

// Send builds the payload for the given reminder kind and triggers delivery.
// A nil or incomplete ReminderData fails with ErrInvalidInput; provider
// failures are reported as ErrDelivery and recorded in the delivery log.
func (d *Dispatcher) Send(ctx context.Context, kind ReminderKind, data *ReminderData) (*Ack, error) {
	if data == nil || data.Email == "" {
		return nil, fmt.Errorf("%w: reminder data is required", ErrInvalidInput)
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown reminder kind %q", ErrInvalidInput, kind)
	}

	payload := d.buildPayload(kind, data)
	to := Recipient{
		SubscriberID: data.Email,
		Email:        data.Email,
	}

	entry := d.log.Begin(kind, data.Email)
	if err := d.provider.Trigger(ctx, string(kind), to, payload); err != nil {
		d.log.Complete(entry, err)
		return nil, fmt.Errorf("%w: %s to %s: %v", ErrDelivery, kind, data.Email, err)
	}
	d.log.Complete(entry, nil)

	d.logger.WithField("kind", string(kind)).
		WithField("email", data.Email).
		Info("Reminder has been sent")
	return &Ack{Message: "Reminder has been sent successfully"}, nil
}

// buildPayload renders the kind-specific template variables
func (d *Dispatcher) buildPayload(kind ReminderKind, data *ReminderData) map[string]interface{} {
	payload := map[string]interface{}{
		"membershipType": string(data.MembershipType),
		"firstName":      data.FirstName,
		"lastName":       data.LastName,
		"email":          data.Email,
		"invoice":        invoiceSummary(data.Invoice),
	}

	switch kind {
	case ReminderFirstMonth:
		payload["dueAmount"] = members.FormatCents(data.DueAmountCents)
	case ReminderMonthly:
		payload["monthlyAmount"] = members.FormatCents(data.MonthlyAmountCents)
		payload["dueDate"] = data.DueDate.Format(dateFormat)
	case ReminderAnnual:
		payload["totalAmount"] = members.FormatCents(data.TotalAmountCents)
		payload["dueDate"] = data.DueDate.Format(dateFormat)
	}
	return payload
}

// invoiceSummary renders a short human-readable invoice description for the
// reminder body
func invoiceSummary(invoice *members.Invoice) string {
	if invoice == nil {
		return ""
	}
	return fmt.Sprintf("Amount: %s, Issue Date: %s",
		members.FormatCents(invoice.AmountCents),
		invoice.IssueDate.Format(dateFormat))
}
