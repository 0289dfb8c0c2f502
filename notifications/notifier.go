// Package notifications delivers monitoring and retraining alerts to human
// operators. Transports implement the Notifier capability; callers treat
// delivery as best-effort and never let a transport failure abort the
// operation that raised the alert.
package notifications

import (
	"context"
	"errors"
	"fmt"
)

// Notifier is the alert delivery capability. Any transport (SMTP, webhook,
// message bus) can implement it.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// NotificationError represents a transport failure delivering an alert
type NotificationError struct {
	Transport string
	Err       error
}

// Error implements the error interface
func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification via %s failed: %v", e.Transport, e.Err)
}

// Unwrap returns the underlying error
func (e *NotificationError) Unwrap() error {
	return e.Err
}

// MultiNotifier fans an alert out to several transports. Every transport is
// attempted; failures are collected, not short-circuited.
type MultiNotifier struct {
	transports []Notifier
}

// NewMultiNotifier creates a fan-out notifier
func NewMultiNotifier(transports ...Notifier) *MultiNotifier {
	return &MultiNotifier{transports: transports}
}

// Notify delivers to every transport and joins any failures
func (m *MultiNotifier) Notify(ctx context.Context, subject, body string) error {
	var errs []error
	for _, t := range m.transports {
		if err := t.Notify(ctx, subject, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
