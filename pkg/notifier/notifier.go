// Package notifier delivers human-readable notifications for
// high-severity alerts and events. The engine only depends on the
// Notifier interface; transports are implementation details of the
// embedding deployment.
package notifier

import (
	"context"
	"time"
)

// Payload is the transport-neutral notification record.
type Payload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // alert, security, governance
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

type Notifier interface {
	Notify(ctx context.Context, p Payload) error
}

// Noop discards notifications. Used when no sink is configured and in
// tests.
type Noop struct{}

func (Noop) Notify(ctx context.Context, p Payload) error { return nil }
