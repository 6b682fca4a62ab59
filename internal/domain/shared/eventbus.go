package shared

import "context"

// EventHandler reacts to committed bill events. A handler error never
// rolls anything back; the workflow has already committed.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types the handler subscribes to by default
	EventTypes() []string
}

// EventPublisher is what the billing service sees of the bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventBus is the in-process bus wired by cmd/server
type EventBus interface {
	EventPublisher
	Subscribe(handler EventHandler, eventTypes ...string)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
