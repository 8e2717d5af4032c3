package journalgate

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful when no downstream notification delivery is wired up
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// ItemSubmitted does nothing and returns nil
func (n *NoopEventSink) ItemSubmitted(ctx context.Context, item *Item) error {
	return nil
}

// ItemModerated does nothing and returns nil
func (n *NoopEventSink) ItemModerated(ctx context.Context, item *Item, event *ModerationEvent) error {
	return nil
}

// VisibilityChanged does nothing and returns nil
func (n *NoopEventSink) VisibilityChanged(ctx context.Context, item *Item) error {
	return nil
}

// LoggingEventSink logs every notification through slog. Useful in
// development and as the default sink of the configured server.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates an event sink that logs notifications.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

func (l *LoggingEventSink) ItemSubmitted(ctx context.Context, item *Item) error {
	l.logger.Info("item submitted for moderation",
		"item_id", item.ID, "kind", item.Kind, "owner_id", item.OwnerID)
	return nil
}

func (l *LoggingEventSink) ItemModerated(ctx context.Context, item *Item, event *ModerationEvent) error {
	l.logger.Info("item moderated",
		"item_id", item.ID, "from", event.FromStatus, "to", event.ToStatus,
		"actor_id", event.ActorID, "reason", event.Reason)
	return nil
}

func (l *LoggingEventSink) VisibilityChanged(ctx context.Context, item *Item) error {
	l.logger.Info("item visibility changed", "item_id", item.ID, "is_public", item.IsPublic)
	return nil
}
