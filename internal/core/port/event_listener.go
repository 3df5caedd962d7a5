package port

import "context"

// EventListenerPort is the contract for a component that consumes external
// events (queue messages) and drives the corresponding business logic.
type EventListenerPort interface {
	// Start launches the listener.
	Start(ctx context.Context) error

	// Close stops the listener gracefully, waiting for in-flight work.
	Close() error
}
